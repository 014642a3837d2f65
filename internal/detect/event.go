// Package detect holds the stateful core of the watcher: the rolling request
// window and the two alert detectors (pool failover, high error rate).
//
// DESIGN: Detectors are explicit instances, not globals. Each one owns its
// own cooldown clock so failover alerts never starve error-rate alerts or
// vice versa. All methods are intended for a single consuming goroutine;
// callers that need cross-goroutine reads wrap them (see internal/watcher).
package detect

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies an alert event.
type Kind string

const (
	KindFailover      Kind = "failover"
	KindHighErrorRate Kind = "high_error_rate"
)

// Event is one detected alert condition. Constructed by a detector, consumed
// once by the dispatcher. Kind-specific fields are zero for other kinds.
type Event struct {
	ID   string    `json:"id"`
	Kind Kind      `json:"kind"`
	At   time.Time `json:"at"`

	// Failover fields.
	Pool     string `json:"pool,omitempty"`
	PrevPool string `json:"prev_pool,omitempty"`
	Release  string `json:"release,omitempty"`

	// High error rate fields.
	ErrorRate  float64 `json:"error_rate,omitempty"`
	ErrorCount int     `json:"error_count,omitempty"`
	WindowSize int     `json:"window_size,omitempty"`
	Threshold  float64 `json:"threshold,omitempty"`
}

func newEvent(kind Kind, at time.Time) *Event {
	return &Event{ID: uuid.NewString(), Kind: kind, At: at}
}
