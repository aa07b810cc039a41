package runner

import (
	"context"
	"sync"
)

// Handle is a deferred invocation created by Runner.Defer. It is triggered
// at most once: Start launches the flow asynchronously, Wait blocks until
// completion (starting it if necessary), and Sync drives it to completion on
// a fresh background context. All consumption paths observe the same single
// execution.
type Handle struct {
	runner *Runner
	input  string

	once   sync.Once
	done   chan struct{}
	result any
	err    error
}

// Start triggers the invocation asynchronously. It is idempotent; repeated
// calls observe the first execution.
func (h *Handle) Start(ctx context.Context) {
	h.once.Do(func() {
		go func() {
			defer close(h.done)
			h.result, h.err = h.runner.Call(ctx, h.input)
		}()
	})
}

// Done returns a channel closed when the invocation has completed. It does
// not start the invocation.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait starts the invocation if necessary and blocks until it completes or
// ctx is cancelled. On cancellation the flow keeps running under the context
// given to Start; only the wait is abandoned.
func (h *Handle) Wait(ctx context.Context) (any, error) {
	h.Start(ctx)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		return h.result, h.err
	}
}

// Sync drives the invocation to completion, blocking the caller. It uses a
// background context and the handle's dedicated goroutine as the explicit
// bridge between synchronous call sites and the asynchronous flow.
func (h *Handle) Sync() (any, error) {
	h.Start(context.Background())
	<-h.done
	return h.result, h.err
}
