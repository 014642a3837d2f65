// Background delivery worker for alert dispatch.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/upstreamlab/poolwatch/internal/detect"
	"github.com/upstreamlab/poolwatch/internal/monitoring"
)

// Options configures a Dispatcher.
type Options struct {
	Sinks       []Sink
	QueueSize   int           // buffered queue length, default 16
	HistorySize int           // retained deliveries, default 100
	Timeout     time.Duration // per-sink delivery timeout, default 10s
	Metrics     *monitoring.MetricsCollector
	Tracker     *monitoring.Tracker
	Flags       *monitoring.AlertManager
}

// Dispatcher formats events and delivers them to sinks from a single
// background worker. Dispatch never blocks: when the queue is full the alert
// is dropped and flagged, because stalling log consumption is worse than
// losing one notification.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	queue   chan *detect.Event
	history *History
	metrics *monitoring.MetricsCollector
	tracker *monitoring.Tracker
	flags   *monitoring.AlertManager

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	subMu     sync.Mutex
	subs      map[int]chan Delivery
	nextSubID int
}

// NewDispatcher creates a stopped dispatcher. Call Start before dispatching.
func NewDispatcher(opts Options) *Dispatcher {
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 16
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetricsCollector()
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker, _ = monitoring.NewTracker(monitoring.TelemetryConfig{})
	}
	return &Dispatcher{
		sinks:    opts.Sinks,
		timeout:  timeout,
		queue:    make(chan *detect.Event, queueSize),
		history:  NewHistory(opts.HistorySize),
		metrics:  metrics,
		tracker:  tracker,
		flags:    opts.Flags,
		stopChan: make(chan struct{}),
		subs:     make(map[int]chan Delivery),
	}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	log.Info().Int("sinks", len(d.sinks)).Msg("Starting alert dispatcher")
	d.wg.Add(1)
	go d.process()
}

// Stop stops the worker. Alerts still queued are dropped; shutdown state is
// memory-only so nothing needs flushing.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopChan)
	d.mu.Unlock()
	d.wg.Wait()
	log.Info().Msg("Alert dispatcher stopped")
}

// Dispatch hands one event to the worker. It returns false when the queue is
// full and the alert was dropped. Never blocks the consuming path.
func (d *Dispatcher) Dispatch(ev *detect.Event) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		if d.flags != nil {
			d.flags.FlagQueueFull(ev.ID, string(ev.Kind))
		} else {
			log.Error().Str("event_id", ev.ID).Str("kind", string(ev.Kind)).Msg("dispatch_queue_full")
		}
		return false
	}
}

// History returns the most recent deliveries, newest first.
func (d *Dispatcher) History() []Delivery {
	return d.history.Recent()
}

// Subscribe registers a live feed of deliveries. Slow subscribers miss
// deliveries rather than slowing dispatch down. The returned cancel func
// closes the channel.
func (d *Dispatcher) Subscribe(buffer int) (<-chan Delivery, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Delivery, buffer)

	d.subMu.Lock()
	id := d.nextSubID
	d.nextSubID++
	d.subs[id] = ch
	d.subMu.Unlock()

	cancel := func() {
		d.subMu.Lock()
		if sub, ok := d.subs[id]; ok {
			delete(d.subs, id)
			close(sub)
		}
		d.subMu.Unlock()
	}
	return ch, cancel
}

func (d *Dispatcher) broadcast(del Delivery) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, ch := range d.subs {
		select {
		case ch <- del:
		default:
		}
	}
}

func (d *Dispatcher) process() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopChan:
			return
		case ev := <-d.queue:
			d.deliver(ev)
		}
	}
}

// deliver fans one event out to every sink sequentially and records the
// outcomes. With no sinks configured the alert is logged and still counts as
// handled.
func (d *Dispatcher) deliver(ev *detect.Event) {
	msg := Format(ev)
	del := Delivery{Event: ev, Text: msg.Text(), At: time.Now()}

	if len(d.sinks) == 0 {
		log.Info().
			Str("event_id", ev.ID).
			Str("kind", string(ev.Kind)).
			Str("text", msg.Text()).
			Msg("Alert (log-only, no sinks configured)")
	}

	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		start := time.Now()
		err := sink.Send(ctx, ev, msg)
		latency := time.Since(start)
		cancel()

		outcome := Outcome{Sink: sink.Name(), OK: err == nil, LatencyMs: latency.Milliseconds()}
		if err != nil {
			outcome.Error = err.Error()
		}
		del.Outcomes = append(del.Outcomes, outcome)

		d.metrics.RecordDispatch(err == nil)
		d.tracker.RecordDelivery(&monitoring.DeliveryEvent{
			Timestamp: time.Now(),
			EventID:   ev.ID,
			Kind:      string(ev.Kind),
			Sink:      sink.Name(),
			Success:   err == nil,
			Error:     outcome.Error,
			LatencyMs: outcome.LatencyMs,
		})

		if err != nil {
			if d.flags != nil {
				d.flags.FlagDispatchFailure(ev.ID, sink.Name(), err)
			} else {
				log.Error().Err(err).Str("event_id", ev.ID).Str("sink", sink.Name()).Msg("dispatch_failed")
			}
			continue
		}
		if d.flags != nil {
			d.flags.FlagSlowDispatch(ev.ID, sink.Name(), latency)
		}
		log.Info().
			Str("event_id", ev.ID).
			Str("kind", string(ev.Kind)).
			Str("sink", sink.Name()).
			Dur("latency", latency).
			Msg("Alert delivered")
	}

	d.history.Add(del)
	d.broadcast(del)
}
