package detect

import "time"

// ErrorRateDetector owns the rolling request window and alerts when the
// trailing error rate strictly exceeds the threshold.
//
// The rate is a continuously recomputed ratio over the current full window,
// not a count of errors since the last alert. Nothing fires until the window
// has seen its first N requests.
type ErrorRateDetector struct {
	window    *Window
	threshold float64
	cooldown  time.Duration
	clock     Clock

	lastAlertAt time.Time
}

// NewErrorRateDetector creates a detector around an empty window.
// threshold is a percentage (2.0 means 2%).
func NewErrorRateDetector(windowSize int, threshold float64, cooldown time.Duration, clock Clock) *ErrorRateDetector {
	if clock == nil {
		clock = SystemClock
	}
	return &ErrorRateDetector{
		window:    NewWindow(windowSize),
		threshold: threshold,
		cooldown:  cooldown,
		clock:     clock,
	}
}

// Observe appends one status to the window and evaluates the trailing error
// rate. It returns an event when the rate strictly exceeds the threshold and
// the cooldown allows alerting, or suppressed=true when the breach was
// swallowed by the cooldown.
func (d *ErrorRateDetector) Observe(status int) (ev *Event, suppressed bool) {
	d.window.Append(status)
	if !d.window.Full() {
		return nil, false
	}
	rate := d.window.ErrorRate()
	if rate <= d.threshold {
		return nil, false
	}

	now := d.clock.Now()
	if !d.lastAlertAt.IsZero() && now.Sub(d.lastAlertAt) < d.cooldown {
		return nil, true
	}
	d.lastAlertAt = now

	ev = newEvent(KindHighErrorRate, now)
	ev.ErrorRate = rate
	ev.ErrorCount = d.window.ErrorCount()
	ev.WindowSize = d.window.Cap()
	ev.Threshold = d.threshold
	return ev, false
}

// WindowStats is a point-in-time view of the rolling window.
type WindowStats struct {
	Len        int     `json:"len"`
	Cap        int     `json:"cap"`
	ErrorCount int     `json:"error_count"`
	ErrorRate  float64 `json:"error_rate"`
}

// Stats snapshots the window for status reporting.
func (d *ErrorRateDetector) Stats() WindowStats {
	return WindowStats{
		Len:        d.window.Len(),
		Cap:        d.window.Cap(),
		ErrorCount: d.window.ErrorCount(),
		ErrorRate:  d.window.ErrorRate(),
	}
}
