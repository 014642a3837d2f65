// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - lines/parsed/skipped:   Log consumption and parser hit rate
//   - alerts/suppressed:      Detector decisions
//   - dispatch_ok/failed:     Delivery outcomes across all sinks
//
// For production, export these to Prometheus or similar.
package monitoring

import "sync/atomic"

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	lines      atomic.Int64
	parsed     atomic.Int64
	skipped    atomic.Int64
	alerts     atomic.Int64
	suppressed atomic.Int64
	dispatchOK atomic.Int64
	dispatchKO atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordLine records one consumed log line and whether it parsed.
func (mc *MetricsCollector) RecordLine(parsed bool) {
	mc.lines.Add(1)
	if parsed {
		mc.parsed.Add(1)
	} else {
		mc.skipped.Add(1)
	}
}

// RecordAlert records a fired alert.
func (mc *MetricsCollector) RecordAlert() { mc.alerts.Add(1) }

// RecordSuppressed records an alert swallowed by a cooldown.
func (mc *MetricsCollector) RecordSuppressed() { mc.suppressed.Add(1) }

// RecordDispatch records one delivery attempt outcome.
func (mc *MetricsCollector) RecordDispatch(success bool) {
	if success {
		mc.dispatchOK.Add(1)
	} else {
		mc.dispatchKO.Add(1)
	}
}

// Stats returns current metrics.
func (mc *MetricsCollector) Stats() map[string]int64 {
	return map[string]int64{
		"lines":           mc.lines.Load(),
		"parsed":          mc.parsed.Load(),
		"skipped":         mc.skipped.Load(),
		"alerts":          mc.alerts.Load(),
		"suppressed":      mc.suppressed.Load(),
		"dispatch_ok":     mc.dispatchOK.Load(),
		"dispatch_failed": mc.dispatchKO.Load(),
	}
}
