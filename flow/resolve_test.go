package flow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/runtime"
)

// recordingStore is a minimal HistoryStore for resolution assertions.
type recordingStore struct {
	mu    sync.Mutex
	items []core.Item
	fail  error
}

func newRecordingStore(seed ...core.Item) *recordingStore {
	return &recordingStore{items: append([]core.Item{}, seed...)}
}

func (s *recordingStore) GetItems(_ context.Context, limit int) ([]core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	items := s.items
	if limit > 0 && limit < len(items) {
		items = items[len(items)-limit:]
	}
	return core.CloneItems(items), nil
}

func (s *recordingStore) AddItems(_ context.Context, items []core.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.items = append(s.items, core.CloneItems(items)...)
	return nil
}

func newTestSpec(t *testing.T, input string) *Spec {
	t.Helper()
	return New("assistant", runtime.NewMockRuntime()).Call(input)
}

func TestResolve_IsolatedBeatsEverything(t *testing.T) {
	b := core.NewBoundary("p", false, true, []core.Item{core.NewUserItem("history")})
	require.NoError(t, b.Activate())
	ctx := core.WithScope(context.Background(), core.Scope{
		Store:    newRecordingStore(core.NewUserItem("stored")),
		Boundary: b,
		InPhase:  true,
	})

	res, err := resolve(ctx, newTestSpec(t, "q").Isolate())
	require.NoError(t, err)
	assert.Nil(t, res.session, "isolated forcing must own no session")
	require.Len(t, res.input, 1)
	assert.Equal(t, "q", res.input[0].Text())
}

func TestResolve_AccumulatingBoundaryOwnsSession(t *testing.T) {
	b := core.NewBoundary("p", false, true, []core.Item{core.NewUserItem("inherited")})
	require.NoError(t, b.Activate())
	ctx := core.WithScope(context.Background(), core.Scope{
		Store:    newRecordingStore(),
		Boundary: b,
		InPhase:  true,
	})

	res, err := resolve(ctx, newTestSpec(t, "q"))
	require.NoError(t, err)
	assert.Equal(t, core.SessionHandle(b), res.session, "boundary must win over the store")
	require.Len(t, res.input, 1, "session expansion is the runtime's job")
}

func TestResolve_SnapshotPhasePrefixesHistory(t *testing.T) {
	b := core.NewBoundary("p", false, false, []core.Item{
		core.NewUserItem("earlier"),
		core.NewAssistantItem("answer"),
	})
	require.NoError(t, b.Activate())
	ctx := core.WithScope(context.Background(), core.Scope{Boundary: b, InPhase: true})

	res, err := resolve(ctx, newTestSpec(t, "q"))
	require.NoError(t, err)
	assert.Nil(t, res.session, "nothing owns writes in a snapshot phase")
	require.Len(t, res.input, 3)
	assert.Equal(t, "earlier", res.input[0].Text())
	assert.Equal(t, "q", res.input[2].Text())
}

func TestResolve_PhaseWithoutBoundaryIsInvariantViolation(t *testing.T) {
	ctx := core.WithScope(context.Background(), core.Scope{InPhase: true})
	_, err := resolve(ctx, newTestSpec(t, "q"))
	var iv *core.InvariantViolation
	require.ErrorAs(t, err, &iv)
}

func TestResolve_StoreFallback(t *testing.T) {
	store := newRecordingStore(core.NewUserItem("prior"))
	ctx := core.WithScope(context.Background(), core.Scope{Store: store})

	res, err := resolve(ctx, newTestSpec(t, "q"))
	require.NoError(t, err)
	assert.Equal(t, core.SessionHandle(store), res.session)
	require.Len(t, res.input, 1)
}

func TestResolve_BareContext(t *testing.T) {
	res, err := resolve(context.Background(), newTestSpec(t, "q"))
	require.NoError(t, err)
	assert.Nil(t, res.session)
	require.Len(t, res.input, 1)
	assert.Equal(t, "q", res.input[0].Text())
}

func TestParentHistory_Sources(t *testing.T) {
	t.Run("empty without scope", func(t *testing.T) {
		items, err := parentHistory(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("reads the store", func(t *testing.T) {
		store := newRecordingStore(core.NewUserItem("a"), core.NewAssistantItem("b"))
		ctx := core.WithScope(context.Background(), core.Scope{Store: store})
		items, err := parentHistory(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("reads the accumulating boundary view", func(t *testing.T) {
		b := core.NewBoundary("outer", false, true, []core.Item{core.NewUserItem("a")})
		require.NoError(t, b.Activate())
		require.NoError(t, b.AddItems(context.Background(), []core.Item{core.NewAssistantItem("b")}))
		ctx := core.WithScope(context.Background(), core.Scope{Boundary: b, InPhase: true})
		items, err := parentHistory(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 2, "inherited plus accumulated")
	})

	t.Run("store failure aborts phase entry", func(t *testing.T) {
		store := newRecordingStore()
		store.fail = errors.New("disk gone")
		ctx := core.WithScope(context.Background(), core.Scope{Store: store})
		_, err := parentHistory(ctx)
		var ha *core.HistoryAccessError
		require.ErrorAs(t, err, &ha)
	})
}
