// Package monitoring - alerts.go flags watcher anomalies.
//
// DESIGN: AlertManager logs notable events at appropriate levels:
//   - FlagSlowDispatch:   Warn when a sink delivery exceeds threshold
//   - FlagDispatchFailure: Error when a sink delivery fails
//   - FlagQueueFull:      Error when the dispatch queue drops an alert
//   - FlagPanic:          Error on recovered panics
//
// These are about the watcher's own health, not the pool alerts it raises.
package monitoring

import "time"

// AlertManager flags anomalies and errors.
type AlertManager struct {
	logger                *Logger
	slowDispatchThreshold time.Duration
}

// NewAlertManager creates a new alert manager.
func NewAlertManager(logger *Logger, cfg AlertConfig) *AlertManager {
	threshold := cfg.SlowDispatchThreshold
	if threshold == 0 {
		threshold = 5 * time.Second
	}
	return &AlertManager{logger: logger, slowDispatchThreshold: threshold}
}

// FlagSlowDispatch logs when a delivery took longer than the threshold.
func (am *AlertManager) FlagSlowDispatch(eventID, sink string, latency time.Duration) {
	if latency < am.slowDispatchThreshold {
		return
	}
	am.logger.Warn().
		Str("event_id", eventID).
		Str("sink", sink).
		Dur("latency", latency).
		Msg("slow_dispatch")
}

// FlagDispatchFailure logs a failed delivery attempt.
func (am *AlertManager) FlagDispatchFailure(eventID, sink string, err error) {
	am.logger.Error().
		Str("event_id", eventID).
		Str("sink", sink).
		Err(err).
		Msg("dispatch_failed")
}

// FlagQueueFull logs an alert dropped because the dispatch queue was full.
func (am *AlertManager) FlagQueueFull(eventID, kind string) {
	am.logger.Error().
		Str("event_id", eventID).
		Str("kind", kind).
		Msg("dispatch_queue_full")
}

// FlagPanic logs a recovered panic.
func (am *AlertManager) FlagPanic(requestID string, panicValue interface{}, stack string) {
	am.logger.Error().
		Str("request_id", requestID).
		Interface("panic", panicValue).
		Msg("panic_recovered")
}
