package notify

import (
	"sync"
	"time"

	"github.com/upstreamlab/poolwatch/internal/detect"
)

// Outcome is the result of one sink delivery attempt.
type Outcome struct {
	Sink      string `json:"sink"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Delivery is one dispatched alert with its per-sink outcomes. Log-only
// dispatches have no outcomes.
type Delivery struct {
	Event    *detect.Event `json:"event"`
	Text     string        `json:"text"`
	Outcomes []Outcome     `json:"outcomes,omitempty"`
	At       time.Time     `json:"at"`
}

// History keeps the most recent deliveries in memory. It exists for the
// status API; nothing survives a restart.
type History struct {
	mu      sync.RWMutex
	entries []Delivery
	max     int
}

// NewHistory creates a history bounded to max entries (100 when max <= 0).
func NewHistory(max int) *History {
	if max <= 0 {
		max = 100
	}
	return &History{max: max}
}

// Add appends one delivery, evicting the oldest entry at capacity.
func (h *History) Add(d Delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, d)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Recent returns the held deliveries, newest first.
func (h *History) Recent() []Delivery {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Delivery, len(h.entries))
	for i, d := range h.entries {
		out[len(h.entries)-1-i] = d
	}
	return out
}

// Len returns how many deliveries are held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
