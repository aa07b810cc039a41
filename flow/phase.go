package flow

import (
	"context"
	"errors"

	"github.com/hupe1980/agentflow/core"
)

// PhaseOptions configure a phase boundary.
type PhaseOptions struct {
	// Persist flushes exactly the last completed (request, result) pair to
	// the workflow's History Store when the phase exits. The internal
	// transcript is never persisted.
	Persist bool
	// Share allocates a fresh mutable accumulation for the phase: agents
	// inside see each other's exchanges and write only into the boundary.
	// Without it the phase exposes a fixed read-only snapshot and nothing
	// owns writes.
	Share bool
}

// WithPersist enables persist-on-exit for a phase.
func WithPersist() func(o *PhaseOptions) {
	return func(o *PhaseOptions) { o.Persist = true }
}

// WithoutShare disables the phase's mutable accumulation, leaving only the
// read-only snapshot captured at entry.
func WithoutShare() func(o *PhaseOptions) {
	return func(o *PhaseOptions) { o.Share = false }
}

// Phase runs fn inside a scoped boundary. On entry it captures a snapshot of
// the history resolvable under the parent scope, derives a child scope with
// the new boundary, and emits BoundaryStarted. On exit - on every path,
// including errors and panics - it flushes the persist pair if requested,
// discards the accumulation, emits BoundaryEnded and leaves the parent scope
// untouched. Boundaries nest strictly LIFO; an inner phase never mutates an
// outer boundary's accumulation beyond the snapshot it inherited.
//
// fn receives the active boundary when sharing is enabled, or nil for a
// snapshot-only phase.
func Phase(ctx context.Context, label string, fn func(ctx context.Context, b *core.Boundary) error, optFns ...func(o *PhaseOptions)) (err error) {
	opts := PhaseOptions{Share: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	parent := core.ScopeFrom(ctx)

	inherited, err := parentHistory(ctx)
	if err != nil {
		return err
	}

	b := core.NewBoundary(label, opts.Persist, opts.Share, inherited)
	if err := b.Activate(); err != nil {
		return err
	}

	child := parent
	child.Boundary = b
	child.InPhase = true
	phaseCtx := core.WithScope(ctx, child)

	if err := core.Emit(phaseCtx, core.NewBoundaryStarted(label)); err != nil {
		// The boundary never ran; unwind it so the state machine stays clean.
		if _, cerr := b.Close(); cerr == nil {
			_ = b.Discard()
		}
		return err
	}

	defer func() {
		exitErr := exitBoundary(ctx, parent, b)
		if err == nil {
			err = exitErr
		} else if exitErr != nil {
			err = errors.Join(err, exitErr)
		}
	}()

	var yielded *core.Boundary
	if opts.Share {
		yielded = b
	}

	return fn(phaseCtx, yielded)
}

// exitBoundary performs the guaranteed teardown of a boundary: persist flush
// to the parent-level store, accumulation discard, BoundaryEnded emission.
// It always runs the full sequence and reports the first failure.
func exitBoundary(ctx context.Context, parent core.Scope, b *core.Boundary) error {
	var firstErr error

	elapsed, err := b.Close()
	if err != nil {
		firstErr = err
	}

	// Persist is a no-op without a configured store, matching a storeless
	// top-level run where there is nowhere to flush to.
	if b.Persist() && parent.Store != nil && firstErr == nil {
		if req, res, ok := b.LastExchange(); ok {
			if err := parent.Store.AddItems(ctx, []core.Item{req, res}); err != nil {
				firstErr = &core.HistoryAccessError{Op: "add items", Err: err}
			}
		}
	}

	if err := b.Discard(); err != nil && firstErr == nil {
		firstErr = err
	}

	// Emit on the parent scope: the boundary is already gone.
	if err := core.Emit(core.WithScope(ctx, parent), core.NewBoundaryEnded(b.Label(), elapsed)); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
