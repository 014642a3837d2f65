package notify

import (
	"context"

	"github.com/upstreamlab/poolwatch/internal/detect"
)

// Sink delivers one formatted alert to an external channel. Implementations
// must honor ctx cancellation and return an error only for this one delivery;
// a failing sink never takes the watcher down.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev *detect.Event, msg Message) error
}
