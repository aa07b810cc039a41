package core

import (
	"context"
	"time"
)

// Event is the closed union of lifecycle and streaming notifications
// delivered to a Sink. Concrete event types implement the unexported isEvent
// marker; consumers dispatch with an exhaustive type switch rather than
// probing payload attributes.
type Event interface {
	isEvent()
	// OccurredAt returns the high precision UTC production timestamp.
	OccurredAt() time.Time
}

// BoundaryStarted is emitted when a phase boundary becomes active.
type BoundaryStarted struct {
	Label     string
	Timestamp time.Time
}

func (BoundaryStarted) isEvent() {}

// OccurredAt implements Event.
func (e BoundaryStarted) OccurredAt() time.Time { return e.Timestamp }

// BoundaryEnded is emitted after a phase boundary has been torn down,
// including on error and cancellation paths.
type BoundaryEnded struct {
	Label     string
	Elapsed   time.Duration
	Timestamp time.Time
}

func (BoundaryEnded) isEvent() {}

// OccurredAt implements Event.
func (e BoundaryEnded) OccurredAt() time.Time { return e.Timestamp }

// ResultProduced is emitted when a non-streaming forcing completes.
type ResultProduced struct {
	Payload   Item
	Timestamp time.Time
}

func (ResultProduced) isEvent() {}

// OccurredAt implements Event.
func (e ResultProduced) OccurredAt() time.Time { return e.Timestamp }

// RawStreamFragment is emitted for each partial chunk of a streaming forcing.
type RawStreamFragment struct {
	Payload   Item
	Timestamp time.Time
}

func (RawStreamFragment) isEvent() {}

// OccurredAt implements Event.
func (e RawStreamFragment) OccurredAt() time.Time { return e.Timestamp }

// NewBoundaryStarted constructs a BoundaryStarted stamped now.
func NewBoundaryStarted(label string) BoundaryStarted {
	return BoundaryStarted{Label: label, Timestamp: time.Now().UTC()}
}

// NewBoundaryEnded constructs a BoundaryEnded stamped now.
func NewBoundaryEnded(label string, elapsed time.Duration) BoundaryEnded {
	return BoundaryEnded{Label: label, Elapsed: elapsed, Timestamp: time.Now().UTC()}
}

// NewResultProduced constructs a ResultProduced stamped now.
func NewResultProduced(payload Item) ResultProduced {
	return ResultProduced{Payload: payload, Timestamp: time.Now().UTC()}
}

// NewRawStreamFragment constructs a RawStreamFragment stamped now.
func NewRawStreamFragment(payload Item) RawStreamFragment {
	return RawStreamFragment{Payload: payload, Timestamp: time.Now().UTC()}
}

// Sink receives events in strict production order. Delivery is synchronous
// with respect to the producing operation: the forcing call is not considered
// finished until the sink returns. A sink may block (e.g. awaiting transport
// I/O); there is no fire-and-forget path and events are never dropped or
// reordered.
type Sink func(ctx context.Context, ev Event) error
