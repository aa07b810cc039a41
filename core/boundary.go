package core

import (
	"context"
	"sync"
	"time"
)

// BoundaryState tracks the lifecycle of a phase boundary.
type BoundaryState int

const (
	// BoundaryNotEntered is the state before Activate.
	BoundaryNotEntered BoundaryState = iota
	// BoundaryActive is the state while the phase block runs.
	BoundaryActive
	// BoundaryClosing is the state during exit processing (persist flush).
	BoundaryClosing
	// BoundaryClosed is the terminal state; accumulation has been discarded.
	BoundaryClosed
)

// String returns the string representation of the boundary state.
func (s BoundaryState) String() string {
	switch s {
	case BoundaryNotEntered:
		return "not-entered"
	case BoundaryActive:
		return "active"
	case BoundaryClosing:
		return "closing"
	case BoundaryClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Boundary is one scoped phase span. It captures a read-only snapshot of the
// resolvable history at entry and, when sharing is enabled, owns a fresh
// mutable accumulation list that agents inside the phase read and append
// through (Boundary implements SessionHandle).
//
// Contract:
//   - The inherited snapshot is fixed at entry and never mutated.
//   - The accumulation list is exclusively owned by this boundary; no two
//     boundaries ever alias the same list.
//   - Lifecycle is strictly NotEntered -> Active -> Closing -> Closed;
//     out-of-order transitions surface as InvariantViolation.
//   - Concurrent appends from non-isolated sibling forcings are guarded
//     against memory corruption only; their ordering is undefined and such
//     fan-out should use isolated specs instead.
type Boundary struct {
	id      string
	label   string
	persist bool
	share   bool
	created time.Time

	mu        sync.Mutex
	state     BoundaryState
	inherited []Item
	items     []Item
	data      map[string]any
	lastReq   *Item
	lastRes   *Item
}

// NewBoundary constructs a boundary in the NotEntered state. inherited is
// the history snapshot resolved under the parent scope; it must be non-nil
// (an empty slice is valid and means no prior history).
func NewBoundary(label string, persist, share bool, inherited []Item) *Boundary {
	b := &Boundary{
		id:        NewID(),
		label:     label,
		persist:   persist,
		share:     share,
		inherited: inherited,
		data:      map[string]any{},
	}
	if share {
		b.items = []Item{}
	}
	return b
}

// ID returns the boundary's unique identifier.
func (b *Boundary) ID() string { return b.id }

// Label returns the boundary's display label.
func (b *Boundary) Label() string { return b.label }

// Persist reports whether the last exchange is flushed to the parent store
// on exit.
func (b *Boundary) Persist() bool { return b.persist }

// Share reports whether this boundary accumulates its own conversation.
func (b *Boundary) Share() bool { return b.share }

// Created returns the activation time (zero before Activate).
func (b *Boundary) Created() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created
}

// State returns the current lifecycle state.
func (b *Boundary) State() BoundaryState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Activate transitions NotEntered -> Active and records the creation time.
func (b *Boundary) Activate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BoundaryNotEntered {
		return &InvariantViolation{Reason: "boundary " + b.label + " activated in state " + b.state.String()}
	}
	if b.inherited == nil {
		return &InvariantViolation{Reason: "boundary " + b.label + " has no inherited snapshot"}
	}
	b.state = BoundaryActive
	b.created = time.Now().UTC()
	return nil
}

// Close transitions Active -> Closing and returns the elapsed time since
// activation. The caller performs persist processing before Discard.
func (b *Boundary) Close() (time.Duration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BoundaryActive {
		return 0, &InvariantViolation{Reason: "boundary " + b.label + " closed in state " + b.state.String()}
	}
	b.state = BoundaryClosing
	return time.Since(b.created), nil
}

// Discard transitions Closing -> Closed and drops the accumulation. The
// inherited snapshot and side data remain readable for diagnostics.
func (b *Boundary) Discard() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BoundaryClosing {
		return &InvariantViolation{Reason: "boundary " + b.label + " discarded in state " + b.state.String()}
	}
	b.state = BoundaryClosed
	b.items = nil
	return nil
}

// HasSnapshot reports whether the boundary carries an inherited snapshot,
// without copying it. A boundary without one indicates a corrupted stack.
func (b *Boundary) HasSnapshot() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inherited != nil
}

// Inherited returns a copy of the snapshot captured at entry. It returns nil
// only if the boundary was constructed with a nil snapshot, which indicates
// a corrupted stack.
func (b *Boundary) Inherited() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inherited == nil {
		return nil
	}
	return CloneItems(b.inherited)
}

// Items returns a copy of the phase-local accumulation.
func (b *Boundary) Items() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return CloneItems(b.items)
}

// GetItems implements SessionHandle: inherited snapshot followed by the
// phase-local accumulation.
func (b *Boundary) GetItems(_ context.Context, limit int) ([]Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inherited == nil {
		return nil, &InvariantViolation{Reason: "boundary " + b.label + " has no inherited snapshot"}
	}
	full := make([]Item, 0, len(b.inherited)+len(b.items))
	full = append(full, b.inherited...)
	full = append(full, b.items...)
	if limit > 0 && limit < len(full) {
		full = full[len(full)-limit:]
	}
	return CloneItems(full), nil
}

// AddItems implements SessionHandle: appends to the phase-local accumulation
// only, never to the inherited snapshot.
func (b *Boundary) AddItems(_ context.Context, items []Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.share {
		return &InvariantViolation{Reason: "boundary " + b.label + " has no accumulation (share=false)"}
	}
	if b.state != BoundaryActive {
		return &InvariantViolation{Reason: "write to boundary " + b.label + " in state " + b.state.String()}
	}
	b.items = append(b.items, CloneItems(items)...)
	return nil
}

// RecordExchange notes a completed (request, result) pair. Only complete
// exchanges are recorded; an aborted forcing never reaches this point, so
// persist-on-exit cannot flush a partial exchange.
func (b *Boundary) RecordExchange(req, res Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rq, rs := req.Clone(), res.Clone()
	b.lastReq, b.lastRes = &rq, &rs
}

// LastExchange returns the most recent completed (request, result) pair.
func (b *Boundary) LastExchange() (req, res Item, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastReq == nil || b.lastRes == nil {
		return Item{}, Item{}, false
	}
	return b.lastReq.Clone(), b.lastRes.Clone(), true
}

// SetData stores arbitrary keyed side data on the boundary. Flow code uses
// this to pass values out of a phase block.
func (b *Boundary) SetData(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
}

// Data returns a side data value and whether it was present.
func (b *Boundary) Data(key string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	return v, ok
}
