package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Dispatcher starts one rate update run for a trigger.
type Dispatcher interface {
	Dispatch(ctx context.Context, trigger string) error
}

var _ Dispatcher = (*InlineDispatcher)(nil)

// InlineDispatcher runs the update in the calling goroutine.
type InlineDispatcher struct {
	updater Updater
	timeout time.Duration
}

// NewInlineDispatcher creates a new InlineDispatcher. A positive timeout
// bounds each run.
func NewInlineDispatcher(updater Updater, timeout time.Duration) *InlineDispatcher {
	return &InlineDispatcher{updater: updater, timeout: timeout}
}

// Dispatch implements Dispatcher.
func (d *InlineDispatcher) Dispatch(ctx context.Context, trigger string) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return d.updater.Run(ctx, uuid.NewString(), trigger)
}
