package flow

import (
	"context"

	"github.com/hupe1980/agentflow/core"
)

// resolution is the outcome of context resolution: the input items handed to
// the runtime, the session handle it may read and append through (nil when
// no mutable session owns writes), and the wrapped request item used for
// exchange bookkeeping.
type resolution struct {
	input   []core.Item
	session core.SessionHandle
	request core.Item
}

// resolve maps the live scope and the spec's flags onto the runtime input,
// evaluated only at forcing time. Priority, first match wins:
//
//  1. Isolated spec: raw input, no session. No other check runs.
//  2. Active accumulating boundary: raw input, the boundary as session.
//  3. Inside a non-accumulating phase: cached snapshot ++ wrapped input,
//     no session (nothing may own writes).
//  4. Default: raw input, the top-level store as session if present.
//
// Boundary presence is checked before store presence. A missing inherited
// snapshot on an active boundary is an InvariantViolation: the boundary
// stack is corrupted and the error is fatal, never retried.
func resolve(ctx context.Context, s *Spec) (resolution, error) {
	request := s.input.Clone()

	if s.isolated {
		return resolution{input: []core.Item{request}, request: request}, nil
	}

	sc := core.ScopeFrom(ctx)

	if b := sc.Boundary; b != nil {
		if b.Share() {
			if !b.HasSnapshot() {
				return resolution{}, &core.InvariantViolation{Reason: "accumulating boundary " + b.Label() + " lost its inherited snapshot"}
			}
			return resolution{input: []core.Item{request}, session: b, request: request}, nil
		}

		snapshot := b.Inherited()
		if snapshot == nil {
			return resolution{}, &core.InvariantViolation{Reason: "non-accumulating boundary " + b.Label() + " lost its cached snapshot"}
		}
		input := append(snapshot, request)
		return resolution{input: input, request: request}, nil
	}

	if sc.InPhase {
		// InPhase without a boundary pointer means the scope was mutated
		// outside the phase manager.
		return resolution{}, &core.InvariantViolation{Reason: "scope is inside a phase but carries no boundary"}
	}

	if sc.Store != nil {
		return resolution{input: []core.Item{request}, session: sc.Store, request: request}, nil
	}

	return resolution{input: []core.Item{request}, request: request}, nil
}

// parentHistory resolves the readable history one level up from a phase
// about to be entered: the innermost boundary's view when nested, else the
// top-level store, else empty. Store failures are wrapped as
// HistoryAccessError and propagate; a phase never opens over a store it
// cannot read.
func parentHistory(ctx context.Context) ([]core.Item, error) {
	sc := core.ScopeFrom(ctx)

	if b := sc.Boundary; b != nil {
		if b.Share() {
			items, err := b.GetItems(ctx, 0)
			if err != nil {
				return nil, err
			}
			return items, nil
		}
		snapshot := b.Inherited()
		if snapshot == nil {
			return nil, &core.InvariantViolation{Reason: "non-accumulating boundary " + b.Label() + " lost its cached snapshot"}
		}
		return snapshot, nil
	}

	if sc.Store != nil {
		items, err := sc.Store.GetItems(ctx, 0)
		if err != nil {
			return nil, &core.HistoryAccessError{Op: "get items", Err: err}
		}
		if items == nil {
			items = []core.Item{}
		}
		return items, nil
	}

	return []core.Item{}, nil
}
