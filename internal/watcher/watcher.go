// Package watcher wires the parser, the rolling window and both detectors
// into the single consuming path that turns raw log lines into alerts.
//
// DESIGN: One Watcher instance owns all detection state; nothing lives in
// globals. Lines are processed strictly sequentially, so the detectors need
// no locking of their own. The small mutex here only serializes Stats()
// readers (the status API) against the consuming goroutine. Cooldown state
// advances synchronously in ProcessLine before any dispatch handoff, so
// alert accounting never races with delivery.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/upstreamlab/poolwatch/internal/accesslog"
	"github.com/upstreamlab/poolwatch/internal/detect"
	"github.com/upstreamlab/poolwatch/internal/monitoring"
	"github.com/upstreamlab/poolwatch/internal/tailer"
)

// Dispatcher is the alert handoff the watcher needs. Implementations must
// not block: a slow sink is the dispatcher's problem, never the reader's.
type Dispatcher interface {
	Dispatch(ev *detect.Event) bool
}

// Config holds the detection settings.
type Config struct {
	WindowSize         int
	ErrorRateThreshold float64
	AlertCooldown      time.Duration
	LogFormat          accesslog.Format
	Clock              detect.Clock
}

// Watcher consumes parsed records and drives the detectors.
type Watcher struct {
	parser     *accesslog.Parser
	dispatcher Dispatcher
	metrics    *monitoring.MetricsCollector
	tracker    *monitoring.Tracker

	mu        sync.Mutex
	failover  *detect.FailoverDetector
	errorRate *detect.ErrorRateDetector
}

// New creates a watcher with fresh detection state.
func New(cfg Config, dispatcher Dispatcher, metrics *monitoring.MetricsCollector, tracker *monitoring.Tracker) *Watcher {
	clock := cfg.Clock
	if clock == nil {
		clock = detect.SystemClock
	}
	if metrics == nil {
		metrics = monitoring.NewMetricsCollector()
	}
	if tracker == nil {
		tracker, _ = monitoring.NewTracker(monitoring.TelemetryConfig{})
	}
	return &Watcher{
		parser:     accesslog.NewParser(cfg.LogFormat),
		dispatcher: dispatcher,
		metrics:    metrics,
		tracker:    tracker,
		failover:   detect.NewFailoverDetector(cfg.AlertCooldown, clock),
		errorRate:  detect.NewErrorRateDetector(cfg.WindowSize, cfg.ErrorRateThreshold, cfg.AlertCooldown, clock),
	}
}

// ProcessLine runs one raw line through parsing and both detectors.
// Unparsable lines are skipped silently; that is the normal case for the
// bulk of an access log.
func (w *Watcher) ProcessLine(line string) {
	rec, ok := w.parser.Parse(line)
	w.metrics.RecordLine(ok)
	if !ok {
		log.Debug().Str("line", truncate(line, 200)).Msg("Skipped unparsable line")
		return
	}

	log.Debug().
		Str("pool", rec.Pool).
		Str("release", rec.Release).
		Int("status", rec.Status).
		Bool("is_error", detect.IsError(rec.Status)).
		Msg("Parsed record")

	w.mu.Lock()
	failoverEv, failoverSuppressed := w.failover.Observe(rec.Pool, rec.Release)
	rateEv, rateSuppressed := w.errorRate.Observe(rec.Status)
	stats := w.errorRate.Stats()
	w.mu.Unlock()

	w.handleFailover(rec, failoverEv, failoverSuppressed)
	w.handleErrorRate(rateEv, rateSuppressed, stats)
}

func (w *Watcher) handleFailover(rec accesslog.Record, ev *detect.Event, suppressed bool) {
	switch {
	case ev != nil:
		w.metrics.RecordAlert()
		w.tracker.RecordDecision(&monitoring.DecisionEvent{
			Timestamp: ev.At,
			EventID:   ev.ID,
			Kind:      string(ev.Kind),
			Fired:     true,
			Pool:      ev.Pool,
			PrevPool:  ev.PrevPool,
		})
		log.Warn().
			Str("event_id", ev.ID).
			Str("prev_pool", ev.PrevPool).
			Str("pool", ev.Pool).
			Str("release", ev.Release).
			Msg("Failover detected")
		w.dispatcher.Dispatch(ev)
	case suppressed:
		w.metrics.RecordSuppressed()
		w.tracker.RecordDecision(&monitoring.DecisionEvent{
			Timestamp:  time.Now(),
			Kind:       string(detect.KindFailover),
			Suppressed: true,
			Pool:       rec.Pool,
		})
		log.Info().Str("pool", rec.Pool).Msg("Failover alert suppressed by cooldown")
	}
}

func (w *Watcher) handleErrorRate(ev *detect.Event, suppressed bool, stats detect.WindowStats) {
	switch {
	case ev != nil:
		w.metrics.RecordAlert()
		w.tracker.RecordDecision(&monitoring.DecisionEvent{
			Timestamp:  ev.At,
			EventID:    ev.ID,
			Kind:       string(ev.Kind),
			Fired:      true,
			ErrorRate:  ev.ErrorRate,
			ErrorCount: ev.ErrorCount,
			WindowSize: ev.WindowSize,
			Threshold:  ev.Threshold,
		})
		log.Warn().
			Str("event_id", ev.ID).
			Float64("error_rate", ev.ErrorRate).
			Int("error_count", ev.ErrorCount).
			Int("window_size", ev.WindowSize).
			Msg("High error rate detected")
		w.dispatcher.Dispatch(ev)
	case suppressed:
		w.metrics.RecordSuppressed()
		w.tracker.RecordDecision(&monitoring.DecisionEvent{
			Timestamp:  time.Now(),
			Kind:       string(detect.KindHighErrorRate),
			Suppressed: true,
			ErrorRate:  stats.ErrorRate,
			ErrorCount: stats.ErrorCount,
			WindowSize: stats.Cap,
		})
		log.Info().
			Float64("error_rate", stats.ErrorRate).
			Msg("High error rate alert suppressed by cooldown")
	}
}

// Run consumes lines until the context is canceled (clean shutdown, returns
// nil) or the stream closes (the source died, returned as an error so the
// process can exit: the watcher is useless without its input).
func (w *Watcher) Run(ctx context.Context, lines <-chan tailer.Line) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return fmt.Errorf("log stream closed")
			}
			if line.Err != nil {
				log.Error().Err(line.Err).Msg("Tail source error")
				continue
			}
			w.ProcessLine(line.Text)
		}
	}
}

// Stats is a point-in-time view of the watcher for the status API.
type Stats struct {
	Pool     string             `json:"pool,omitempty"`
	Window   detect.WindowStats `json:"window"`
	Counters map[string]int64   `json:"counters"`
}

// Stats snapshots the detection state. Safe to call from other goroutines.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	pool, _ := w.failover.CurrentPool()
	window := w.errorRate.Stats()
	w.mu.Unlock()
	return Stats{
		Pool:     pool,
		Window:   window,
		Counters: w.metrics.Stats(),
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
