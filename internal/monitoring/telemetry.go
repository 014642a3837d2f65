// Package monitoring - telemetry.go records events to JSONL files.
//
// DESIGN: Tracker writes structured events as JSONL (one JSON object per line):
//   - DecisionEvent: Every alert decision the detectors make
//   - DeliveryEvent: Every delivery attempt against a sink
//
// Events are appended to files immediately after each event for real-time logging.
package monitoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// Tracker handles telemetry event recording to file and stdout.
type Tracker struct {
	config          TelemetryConfig
	decisionLogPath string
	deliveryLogPath string
	decisionCount   int
	deliveryCount   int
	mu              sync.Mutex
}

// NewTracker creates a new telemetry tracker.
func NewTracker(cfg TelemetryConfig) (*Tracker, error) {
	t := &Tracker{
		config: cfg,
	}

	if !cfg.Enabled {
		return t, nil
	}

	if cfg.DecisionLogPath != "" {
		if err := ensureJSONL(cfg.DecisionLogPath); err != nil {
			return nil, err
		}
		t.decisionLogPath = cfg.DecisionLogPath
	}

	if cfg.DeliveryLogPath != "" {
		if err := ensureJSONL(cfg.DeliveryLogPath); err != nil {
			return nil, err
		}
		t.deliveryLogPath = cfg.DeliveryLogPath
	}

	return t, nil
}

// ensureJSONL creates the parent directory and an empty file if needed.
func ensureJSONL(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if f, err := os.Create(path); err == nil {
			f.Close()
		}
	}
	return nil
}

// appendJSONL appends a single JSON object as a line to the file.
func appendJSONL(path string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// RecordDecision records one detector decision.
func (t *Tracker) RecordDecision(event *DecisionEvent) {
	if !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.config.LogToStdout {
		log.Info().
			Str("kind", event.Kind).
			Bool("fired", event.Fired).
			Bool("suppressed", event.Suppressed).
			Msg("telemetry: decision")
	}

	if t.decisionLogPath != "" {
		if err := appendJSONL(t.decisionLogPath, event); err != nil {
			log.Error().Err(err).Str("path", t.decisionLogPath).Msg("telemetry: failed to write decision event")
		} else {
			t.decisionCount++
		}
	}
}

// RecordDelivery records one delivery attempt.
func (t *Tracker) RecordDelivery(event *DeliveryEvent) {
	if !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.config.LogToStdout {
		log.Info().
			Str("sink", event.Sink).
			Bool("success", event.Success).
			Int64("latency_ms", event.LatencyMs).
			Msg("telemetry: delivery")
	}

	if t.deliveryLogPath != "" {
		if err := appendJSONL(t.deliveryLogPath, event); err != nil {
			log.Error().Err(err).Str("path", t.deliveryLogPath).Msg("telemetry: failed to write delivery event")
		} else {
			t.deliveryCount++
		}
	}
}

// Counts returns how many events were written since start.
func (t *Tracker) Counts() (decisions, deliveries int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.decisionCount, t.deliveryCount
}
