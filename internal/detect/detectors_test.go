package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests simulate elapsed time instead of sleeping.
type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 21, 14, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestFailoverFirstObservationInitializes(t *testing.T) {
	d := NewFailoverDetector(5*time.Minute, newFakeClock())

	_, ok := d.CurrentPool()
	assert.False(t, ok, "no pool tracked before the first record")

	ev, suppressed := d.Observe("blue", "v1")
	assert.Nil(t, ev, "first observation must not alert")
	assert.False(t, suppressed)

	pool, ok := d.CurrentPool()
	require.True(t, ok)
	assert.Equal(t, "blue", pool)
}

func TestFailoverSamePoolIsNoop(t *testing.T) {
	d := NewFailoverDetector(5*time.Minute, newFakeClock())
	d.Observe("blue", "v1")
	for i := 0; i < 10; i++ {
		ev, suppressed := d.Observe("blue", "v1")
		assert.Nil(t, ev)
		assert.False(t, suppressed)
	}
}

func TestFailoverChangeAlerts(t *testing.T) {
	clock := newFakeClock()
	d := NewFailoverDetector(5*time.Minute, clock)
	d.Observe("blue", "v1")

	ev, suppressed := d.Observe("green", "v2")
	require.NotNil(t, ev, "pool change must alert")
	assert.False(t, suppressed)
	assert.Equal(t, KindFailover, ev.Kind)
	assert.Equal(t, "blue", ev.PrevPool)
	assert.Equal(t, "green", ev.Pool)
	assert.Equal(t, "v2", ev.Release)
	assert.Equal(t, clock.now, ev.At)
	assert.NotEmpty(t, ev.ID)
}

// TestFailoverCooldownSuppressesButTracks verifies the core flap rule: the
// cooldown swallows the alert, but the detector still follows the new pool
// so it never holds stale state.
func TestFailoverCooldownSuppressesButTracks(t *testing.T) {
	clock := newFakeClock()
	d := NewFailoverDetector(5*time.Minute, clock)
	d.Observe("blue", "v1")

	ev, _ := d.Observe("green", "v1")
	require.NotNil(t, ev)

	clock.advance(time.Minute)
	ev, suppressed := d.Observe("blue", "v1")
	assert.Nil(t, ev, "flap back inside cooldown must not alert")
	assert.True(t, suppressed)
	pool, _ := d.CurrentPool()
	assert.Equal(t, "blue", pool, "state must advance even when suppressed")

	// Past the cooldown the next change alerts again.
	clock.advance(5 * time.Minute)
	ev, suppressed = d.Observe("green", "v1")
	require.NotNil(t, ev)
	assert.False(t, suppressed)
	assert.Equal(t, "blue", ev.PrevPool)
}

// TestFailoverFlapSequence covers the rapid A->B->A->B sequence: exactly one
// alert, and the tracked pool equals the last observed one.
func TestFailoverFlapSequence(t *testing.T) {
	clock := newFakeClock()
	d := NewFailoverDetector(5*time.Minute, clock)

	fired := 0
	for _, pool := range []string{"a", "b", "a", "b"} {
		clock.advance(time.Second)
		if ev, _ := d.Observe(pool, "v1"); ev != nil {
			fired++
		}
	}
	assert.Equal(t, 1, fired, "rapid flap inside one cooldown alerts once")
	pool, _ := d.CurrentPool()
	assert.Equal(t, "b", pool)
}

func TestFailoverZeroCooldownAlertsEveryChange(t *testing.T) {
	d := NewFailoverDetector(0, newFakeClock())
	d.Observe("a", "v1")

	fired := 0
	for _, pool := range []string{"b", "a", "b"} {
		if ev, _ := d.Observe(pool, "v1"); ev != nil {
			fired++
		}
	}
	assert.Equal(t, 3, fired)
}

func TestErrorRateNoPrematureEvaluation(t *testing.T) {
	d := NewErrorRateDetector(10, 2.0, 0, newFakeClock())
	for i := 0; i < 9; i++ {
		ev, suppressed := d.Observe(500)
		assert.Nil(t, ev, "detector must stay quiet until the window is full")
		assert.False(t, suppressed)
	}
	ev, _ := d.Observe(500)
	require.NotNil(t, ev, "tenth append fills the window and rate 100% > 2%")
	assert.Equal(t, 100.0, ev.ErrorRate)
}

// TestErrorRateThresholdBoundary verifies the strict comparison: a rate equal
// to the threshold stays quiet, strictly above fires.
func TestErrorRateThresholdBoundary(t *testing.T) {
	d := NewErrorRateDetector(4, 25.0, 0, newFakeClock())
	for _, s := range []int{200, 200, 200, 500} {
		ev, _ := d.Observe(s)
		assert.Nil(t, ev)
	}
	// Window [200,200,200,500], rate exactly 25.0 -> quiet.
	// One more error slides to [200,200,500,500], 50.0 -> fires.
	ev, _ := d.Observe(500)
	require.NotNil(t, ev)
	assert.Equal(t, KindHighErrorRate, ev.Kind)
	assert.InDelta(t, 50.0, ev.ErrorRate, 1e-9)
	assert.Equal(t, 2, ev.ErrorCount)
	assert.Equal(t, 4, ev.WindowSize)
	assert.Equal(t, 25.0, ev.Threshold)
}

func TestErrorRateCooldown(t *testing.T) {
	clock := newFakeClock()
	d := NewErrorRateDetector(2, 10.0, time.Minute, clock)

	d.Observe(500)
	ev, _ := d.Observe(500)
	require.NotNil(t, ev, "full window at 100% must fire")

	clock.advance(30 * time.Second)
	ev, suppressed := d.Observe(500)
	assert.Nil(t, ev, "breach inside cooldown must not alert")
	assert.True(t, suppressed)

	clock.advance(31 * time.Second)
	ev, suppressed = d.Observe(500)
	require.NotNil(t, ev, "cooldown elapsed, breach alerts again")
	assert.False(t, suppressed)
}

func TestErrorRateRecovery(t *testing.T) {
	d := NewErrorRateDetector(4, 25.0, 0, newFakeClock())
	for _, s := range []int{500, 500, 500, 500} {
		d.Observe(s)
	}
	// Healthy traffic ages the errors out; rates 75 and 50 still fire, then
	// 25 and below stay quiet.
	quiet := 0
	for i := 0; i < 8; i++ {
		if ev, _ := d.Observe(200); ev == nil {
			quiet++
		}
	}
	assert.Equal(t, 6, quiet)
	assert.Zero(t, d.Stats().ErrorCount)
}

// TestErrorRateEndToEnd walks the canonical scenario: N=4, threshold 25.0%,
// cooldown 0.
func TestErrorRateEndToEnd(t *testing.T) {
	d := NewErrorRateDetector(4, 25.0, 0, newFakeClock())

	for _, s := range []int{200, 200, 200, 200} {
		ev, _ := d.Observe(s)
		assert.Nil(t, ev, "healthy full window stays quiet")
	}

	ev, _ := d.Observe(500)
	assert.Nil(t, ev, "rate 25.0% equals the threshold, no alert")

	ev, _ = d.Observe(500)
	require.NotNil(t, ev, "rate 50.0% strictly exceeds the threshold")
	assert.InDelta(t, 50.0, ev.ErrorRate, 1e-9)
	assert.Equal(t, 2, ev.ErrorCount)
}

func TestErrorRateStats(t *testing.T) {
	d := NewErrorRateDetector(4, 2.0, 0, newFakeClock())
	d.Observe(200)
	d.Observe(503)

	stats := d.Stats()
	assert.Equal(t, 2, stats.Len)
	assert.Equal(t, 4, stats.Cap)
	assert.Equal(t, 1, stats.ErrorCount)
	assert.InDelta(t, 50.0, stats.ErrorRate, 1e-9)
}
