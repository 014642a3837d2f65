package detect

import "time"

// FailoverDetector tracks which backend pool is serving traffic and emits an
// event when it changes.
//
// The detector always follows the latest observed pool, even while the
// cooldown suppresses the alert. A rapid flap (blue->green->blue inside one
// cooldown) therefore alerts once and still ends up tracking the pool that
// actually serves traffic.
type FailoverDetector struct {
	cooldown time.Duration
	clock    Clock

	initialized bool
	current     string
	lastAlertAt time.Time
}

// NewFailoverDetector creates a detector with no pool observed yet.
func NewFailoverDetector(cooldown time.Duration, clock Clock) *FailoverDetector {
	if clock == nil {
		clock = SystemClock
	}
	return &FailoverDetector{cooldown: cooldown, clock: clock}
}

// Observe feeds one record's pool into the detector. It returns a failover
// event when the pool changed and the cooldown allows alerting, or
// suppressed=true when the change was swallowed by the cooldown. The first
// observation only initializes tracking.
func (d *FailoverDetector) Observe(pool, release string) (ev *Event, suppressed bool) {
	if !d.initialized {
		d.initialized = true
		d.current = pool
		return nil, false
	}
	if pool == d.current {
		return nil, false
	}
	prev := d.current
	d.current = pool

	now := d.clock.Now()
	if !d.lastAlertAt.IsZero() && now.Sub(d.lastAlertAt) < d.cooldown {
		return nil, true
	}
	d.lastAlertAt = now

	ev = newEvent(KindFailover, now)
	ev.Pool = pool
	ev.PrevPool = prev
	ev.Release = release
	return ev, false
}

// CurrentPool returns the pool the detector is tracking. ok is false before
// the first observation.
func (d *FailoverDetector) CurrentPool() (pool string, ok bool) {
	return d.current, d.initialized
}
