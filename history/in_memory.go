package history

import (
	"context"
	"sync"

	"github.com/hupe1980/agentflow/core"
)

// InMemoryStore is a volatile HistoryStore keeping the ordered conversation
// in a process-local slice. It is safe for concurrent access and best suited
// for tests or ephemeral flows. Reads return defensive copies to prevent
// external mutation of internal state.
type InMemoryStore struct {
	mu    sync.RWMutex
	items []core.Item
}

// NewInMemoryStore constructs an empty in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: []core.Item{}}
}

// GetItems returns the ordered items; a positive limit returns the trailing
// limit items.
func (s *InMemoryStore) GetItems(_ context.Context, limit int) ([]core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.items
	if limit > 0 && limit < len(items) {
		items = items[len(items)-limit:]
	}
	return core.CloneItems(items), nil
}

// AddItems appends items in order.
func (s *InMemoryStore) AddItems(_ context.Context, items []core.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, core.CloneItems(items)...)
	return nil
}

// Len returns the number of stored items.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear removes all stored items.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = s.items[:0]
}
