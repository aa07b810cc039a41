package core

import "context"

// Scope is the ambient execution state threaded through one logical call
// tree. It is an immutable value carried on the context: entering a phase
// derives a child context with an updated copy, and the parent's scope is
// restored structurally on every exit path because the parent context is
// never mutated. Concurrent branches therefore observe independent copies.
//
// A zero Scope (no store, no sink, no boundary) is valid and describes
// execution outside any Runner.
type Scope struct {
	// Store is the top-level History Store for this workflow, or nil.
	Store HistoryStore
	// Sink receives lifecycle and streaming events, or nil.
	Sink Sink
	// Boundary is the innermost active phase boundary, or nil at top level.
	Boundary *Boundary
	// InPhase reports whether execution is inside any phase, regardless of
	// whether that phase accumulates.
	InPhase bool
}

// CachedSnapshot returns the read-only history snapshot applicable to a
// non-accumulating phase, or nil when the scope is not inside one.
func (s Scope) CachedSnapshot() []Item {
	if s.Boundary == nil || s.Boundary.Share() {
		return nil
	}
	return s.Boundary.Inherited()
}

type scopeKey struct{}

// WithScope derives a context carrying the given scope.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom returns the ambient scope, or a zero Scope when none is set.
func ScopeFrom(ctx context.Context) Scope {
	if s, ok := ctx.Value(scopeKey{}).(Scope); ok {
		return s
	}
	return Scope{}
}

// CurrentStore returns the ambient History Store for diagnostics. Flow code
// must not write to it directly; persistence is owned by the resolver and
// the boundary manager.
func CurrentStore(ctx context.Context) HistoryStore { return ScopeFrom(ctx).Store }

// CurrentSink returns the ambient event sink, or nil.
func CurrentSink(ctx context.Context) Sink { return ScopeFrom(ctx).Sink }

// CurrentBoundary returns the innermost active boundary, or nil.
func CurrentBoundary(ctx context.Context) *Boundary { return ScopeFrom(ctx).Boundary }

// InsidePhase reports whether the scope is inside any phase.
func InsidePhase(ctx context.Context) bool { return ScopeFrom(ctx).InPhase }

// Emit delivers an event to the ambient sink, synchronously and in
// production order. A nil sink makes this a no-op. The producing operation
// is not finished until the sink returns, so a blocking sink backpressures
// the forcing call instead of dropping events.
func Emit(ctx context.Context, ev Event) error {
	sink := ScopeFrom(ctx).Sink
	if sink == nil {
		return nil
	}
	return sink(ctx, ev)
}
