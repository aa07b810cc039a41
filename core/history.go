package core

import "context"

// SessionHandle is a readable, appendable conversation context handed to the
// Agent Runtime at forcing time. The runtime reads prior items through
// GetItems and appends the completed exchange through AddItems.
type SessionHandle interface {
	// GetItems returns the ordered conversation items. A limit <= 0 returns
	// everything; a positive limit returns the trailing limit items.
	GetItems(ctx context.Context, limit int) ([]Item, error)

	// AddItems appends items to the conversation in order.
	AddItems(ctx context.Context, items []Item) error
}

// HistoryStore is the persistent, ordered conversation record owned by a
// workflow. It is append-only from the engine's perspective: items are
// written either directly by the runtime when no boundary is active, or by
// the boundary manager at persist time. Storage engines live outside this
// package (see the history package).
type HistoryStore interface {
	SessionHandle
}
