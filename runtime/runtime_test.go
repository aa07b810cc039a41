package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agentflow/core"
)

type stubSession struct {
	items []core.Item
	fail  error
}

func (s *stubSession) GetItems(_ context.Context, limit int) ([]core.Item, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	items := s.items
	if limit > 0 && limit < len(items) {
		items = items[len(items)-limit:]
	}
	return core.CloneItems(items), nil
}

func (s *stubSession) AddItems(_ context.Context, items []core.Item) error {
	if s.fail != nil {
		return s.fail
	}
	s.items = append(s.items, core.CloneItems(items)...)
	return nil
}

func TestExpandInput_NoSession(t *testing.T) {
	req := Request{Input: []core.Item{core.NewUserItem("q")}}
	out, err := ExpandInput(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Text() != "q" {
		t.Errorf("expected bare input, got %+v", out)
	}
}

func TestExpandInput_SessionHistoryPrefixes(t *testing.T) {
	sess := &stubSession{items: []core.Item{core.NewUserItem("a"), core.NewAssistantItem("b")}}
	req := Request{Input: []core.Item{core.NewUserItem("q")}, Session: sess}
	out, err := ExpandInput(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("expected history+input = 3, got %d", len(out))
	}
	if out[0].Text() != "a" || out[2].Text() != "q" {
		t.Errorf("items out of order: %q ... %q", out[0].Text(), out[2].Text())
	}
}

func TestExpandInput_StoreFailureWrapped(t *testing.T) {
	sess := &stubSession{fail: errors.New("disk gone")}
	req := Request{Input: []core.Item{core.NewUserItem("q")}, Session: sess}
	_, err := ExpandInput(context.Background(), req)
	var ha *core.HistoryAccessError
	if !errors.As(err, &ha) {
		t.Fatalf("expected HistoryAccessError, got %v", err)
	}
}

func TestCommitExchange(t *testing.T) {
	sess := &stubSession{}
	req := Request{Input: []core.Item{core.NewUserItem("q")}, Session: sess}
	if err := CommitExchange(context.Background(), req, core.NewAssistantItem("a")); err != nil {
		t.Fatal(err)
	}
	if len(sess.items) != 2 {
		t.Fatalf("expected (request, result) pair, got %d items", len(sess.items))
	}
	if sess.items[0].Text() != "q" || sess.items[1].Text() != "a" {
		t.Errorf("unexpected pair: %q, %q", sess.items[0].Text(), sess.items[1].Text())
	}

	// No session, no writes.
	if err := CommitExchange(context.Background(), Request{Input: req.Input}, core.NewAssistantItem("a")); err != nil {
		t.Fatalf("commit without session should be a no-op, got %v", err)
	}
}
