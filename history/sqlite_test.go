package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentflow/core"
)

func newTestSQLiteStore(t *testing.T, conversationID string) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path, conversationID)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t, "conv-1")

	items, err := store.GetItems(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = store.AddItems(ctx, []core.Item{
		core.NewUserItem("hello"),
		core.NewAssistantItem("hi there"),
	})
	require.NoError(t, err)

	items, err = store.GetItems(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "hello", items[0].Text())
	assert.Equal(t, "user", items[0].Role)
	assert.Equal(t, "hi there", items[1].Text())
}

func TestSQLiteStore_TrailingLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t, "conv-1")

	require.NoError(t, store.AddItems(ctx, []core.Item{
		core.NewUserItem("a"),
		core.NewAssistantItem("b"),
		core.NewUserItem("c"),
		core.NewAssistantItem("d"),
	}))

	tail, err := store.GetItems(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "c", tail[0].Text(), "trailing window must keep append order")
	assert.Equal(t, "d", tail[1].Text())
}

func TestSQLiteStore_ConversationsAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	a, err := NewSQLiteStore(path, "conv-a")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSQLiteStore(path, "conv-b")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.AddItems(ctx, []core.Item{core.NewUserItem("for a")}))
	require.NoError(t, b.AddItems(ctx, []core.Item{core.NewUserItem("for b")}))

	itemsA, err := a.GetItems(ctx, 0)
	require.NoError(t, err)
	require.Len(t, itemsA, 1)
	assert.Equal(t, "for a", itemsA[0].Text())

	itemsB, err := b.GetItems(ctx, 0)
	require.NoError(t, err)
	require.Len(t, itemsB, 1)
	assert.Equal(t, "for b", itemsB[0].Text())
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := NewSQLiteStore(path, "conv-1")
	require.NoError(t, err)
	require.NoError(t, store.AddItems(ctx, []core.Item{
		core.NewUserItem("before restart"),
		core.NewAssistantItem("acknowledged"),
	}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path, "conv-1")
	require.NoError(t, err)
	defer reopened.Close()

	items, err := reopened.GetItems(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "before restart", items[0].Text())
}

func TestSQLiteStore_PreservesPartTypes(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t, "conv-1")

	item := core.Item{
		ID:   core.NewID(),
		Role: "assistant",
		Parts: []core.Part{
			core.ReasoningPart{Text: "thinking it through"},
			core.TextPart{Text: "the answer"},
		},
	}
	require.NoError(t, store.AddItems(ctx, []core.Item{item}))

	items, err := store.GetItems(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, items[0].Parts, 2)
	_, ok := items[0].Parts[0].(core.ReasoningPart)
	assert.True(t, ok, "reasoning part type must survive the round trip")
	assert.Equal(t, "the answer", items[0].Text())
}
