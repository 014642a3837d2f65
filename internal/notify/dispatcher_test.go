package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upstreamlab/poolwatch/internal/detect"
	"github.com/upstreamlab/poolwatch/internal/monitoring"
)

// fakeSink records deliveries and fails on demand.
type fakeSink struct {
	name string
	err  error

	mu    sync.Mutex
	calls []Message
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Send(_ context.Context, _ *detect.Event, msg Message) error {
	f.mu.Lock()
	f.calls = append(f.calls, msg)
	f.mu.Unlock()
	return f.err
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// waitDelivery receives one delivery from a feed or fails the test.
func waitDelivery(t *testing.T, feed <-chan Delivery) Delivery {
	t.Helper()
	select {
	case del := <-feed:
		return del
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return Delivery{}
	}
}

func TestDispatcherDeliversToAllSinks(t *testing.T) {
	good := &fakeSink{name: "good"}
	bad := &fakeSink{name: "bad", err: errors.New("boom")}
	metrics := monitoring.NewMetricsCollector()

	d := NewDispatcher(Options{Sinks: []Sink{bad, good}, Metrics: metrics})
	d.Start()
	defer d.Stop()

	feed, cancel := d.Subscribe(4)
	defer cancel()

	require.True(t, d.Dispatch(failoverEvent()))
	del := waitDelivery(t, feed)

	// A failing sink never blocks the next one.
	assert.Equal(t, 1, good.count())
	assert.Equal(t, 1, bad.count())

	require.Len(t, del.Outcomes, 2)
	assert.Equal(t, "bad", del.Outcomes[0].Sink)
	assert.False(t, del.Outcomes[0].OK)
	assert.Contains(t, del.Outcomes[0].Error, "boom")
	assert.Equal(t, "good", del.Outcomes[1].Sink)
	assert.True(t, del.Outcomes[1].OK)

	stats := metrics.Stats()
	assert.Equal(t, int64(1), stats["dispatch_ok"])
	assert.Equal(t, int64(1), stats["dispatch_failed"])

	history := d.History()
	require.Len(t, history, 1)
	assert.Equal(t, "ev-1", history[0].Event.ID)
}

func TestDispatcherLogOnlyMode(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Start()
	defer d.Stop()

	feed, cancel := d.Subscribe(1)
	defer cancel()

	require.True(t, d.Dispatch(errorRateEvent()))
	del := waitDelivery(t, feed)

	assert.Empty(t, del.Outcomes, "log-only dispatch has no sink outcomes")
	assert.Contains(t, del.Text, "High Error Rate Detected!")
	assert.Len(t, d.History(), 1, "log-only alerts still land in history")
}

// TestDispatcherQueueFullDrops verifies a blocked worker cannot stall the
// caller: once the queue is full, Dispatch drops and reports it.
func TestDispatcherQueueFullDrops(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 2})
	// Not started: nothing drains the queue.
	assert.True(t, d.Dispatch(failoverEvent()))
	assert.True(t, d.Dispatch(failoverEvent()))
	assert.False(t, d.Dispatch(failoverEvent()), "third dispatch must drop")
}

func TestDispatcherStartStopIdempotent(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Start()
	d.Start()
	d.Stop()
	d.Stop()
}

func TestDispatcherSubscribeCancel(t *testing.T) {
	d := NewDispatcher(Options{})
	feed, cancel := d.Subscribe(1)
	cancel()
	_, open := <-feed
	assert.False(t, open, "cancel must close the feed channel")
	cancel() // second cancel is a no-op
}

func TestDispatcherSlowSubscriberMissesDeliveries(t *testing.T) {
	sink := &fakeSink{name: "ok"}
	d := NewDispatcher(Options{Sinks: []Sink{sink}})
	d.Start()
	defer d.Stop()

	feed, cancel := d.Subscribe(1)
	defer cancel()
	drained, drainCancel := d.Subscribe(16)
	defer drainCancel()

	for i := 0; i < 5; i++ {
		ev := failoverEvent()
		ev.ID = fmt.Sprintf("ev-%d", i)
		require.True(t, d.Dispatch(ev))
	}
	for i := 0; i < 5; i++ {
		waitDelivery(t, drained)
	}

	assert.Equal(t, 5, sink.count(), "sink sees every alert")
	assert.LessOrEqual(t, len(feed), 1, "undersized feed drops instead of blocking")
}

func TestHistoryCap(t *testing.T) {
	h := NewHistory(0) // default 100
	for i := 0; i < 150; i++ {
		h.Add(Delivery{Text: fmt.Sprintf("alert %d", i), At: time.Now()})
	}
	assert.Equal(t, 100, h.Len())

	recent := h.Recent()
	require.Len(t, recent, 100)
	assert.Equal(t, "alert 149", recent[0].Text, "newest first")
	assert.Equal(t, "alert 50", recent[99].Text, "oldest retained entry")
}
