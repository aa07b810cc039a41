package runner

import (
	"context"
	"time"

	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/logging"
)

// Flow is the user-authored workflow function. It receives the top-level
// input and runs under the ambient scope established by the Runner; it never
// references the store or sink directly.
type Flow func(ctx context.Context, input string) (any, error)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Store is the workflow's History Store. Nil disables top-level
	// persistence; specs then resolve to bare input outside phases.
	Store core.HistoryStore
	// Sink receives lifecycle and streaming events. A Sink is an ordinary
	// function, so whether it blocks is fixed by its implementation at
	// construction time; delivery is always synchronous with respect to the
	// producing forcing call. Nil disables event delivery.
	Sink core.Sink
	// Logger for runner diagnostics.
	Logger logging.Logger
}

// Runner drives flow executions: it injects the ambient scope (store, sink)
// per top-level invocation and tears it down unconditionally. Public methods
// are safe for concurrent use; each invocation gets an independent scope.
type Runner struct {
	flow   Flow
	store  core.HistoryStore
	sink   core.Sink
	logger logging.Logger
}

// New constructs a Runner with optional overrides.
func New(flow Flow, optFns ...func(o *Options)) *Runner {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{flow: flow, store: opts.Store, sink: opts.Sink, logger: opts.Logger}
}

// Call executes the flow under a fresh top-level scope. The scope is carried
// on a derived context, so the caller's context - and whatever scope it may
// already hold - is restored structurally on return, error and panic alike.
// Flow errors propagate unchanged.
func (r *Runner) Call(ctx context.Context, input string) (any, error) {
	invocationID := core.NewID()
	start := time.Now()
	r.logger.Debug("flow invocation started invocation_id=%s", invocationID)

	scope := core.Scope{Store: r.store, Sink: r.sink}
	result, err := r.flow(core.WithScope(ctx, scope), input)

	if err != nil {
		r.logger.Error("flow invocation failed invocation_id=%s duration=%s error=%v", invocationID, time.Since(start), err)
		return nil, err
	}
	r.logger.Debug("flow invocation completed invocation_id=%s duration=%s", invocationID, time.Since(start))
	return result, nil
}

// Defer creates a handle for a later invocation. Nothing runs until the
// handle is started, awaited or driven synchronously.
func (r *Runner) Defer(input string) *Handle {
	return &Handle{runner: r, input: input, done: make(chan struct{})}
}

// CallSync drives the flow to completion for callers without native
// concurrency support. The work runs on a dedicated goroutine - the explicit
// bridging point - so invoking it from a goroutine that also services events
// (e.g. inside a sink) cannot deadlock the caller.
func (r *Runner) CallSync(input string) (any, error) {
	return r.Defer(input).Sync()
}
