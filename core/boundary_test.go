package core

import (
	"context"
	"errors"
	"testing"
)

func TestBoundary_Lifecycle(t *testing.T) {
	b := NewBoundary("research", false, true, []Item{})
	if b.State() != BoundaryNotEntered {
		t.Fatalf("expected not-entered, got %s", b.State())
	}

	if err := b.Activate(); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if b.State() != BoundaryActive {
		t.Fatalf("expected active, got %s", b.State())
	}

	if err := b.Activate(); err == nil {
		t.Error("double activation should fail")
	} else {
		var iv *InvariantViolation
		if !errors.As(err, &iv) {
			t.Errorf("expected InvariantViolation, got %T", err)
		}
	}

	if _, err := b.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if b.State() != BoundaryClosing {
		t.Fatalf("expected closing, got %s", b.State())
	}
	if err := b.Discard(); err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if b.State() != BoundaryClosed {
		t.Fatalf("expected closed, got %s", b.State())
	}

	if _, err := b.Close(); err == nil {
		t.Error("closing a closed boundary should fail")
	}
}

func TestBoundary_ActivateRequiresSnapshot(t *testing.T) {
	b := NewBoundary("broken", false, true, nil)
	var iv *InvariantViolation
	if err := b.Activate(); !errors.As(err, &iv) {
		t.Fatalf("expected InvariantViolation, got %v", err)
	}
}

func TestBoundary_HasSnapshot(t *testing.T) {
	if NewBoundary("broken", false, true, nil).HasSnapshot() {
		t.Error("nil snapshot should not be reported as present")
	}
	if !NewBoundary("fresh", false, true, []Item{}).HasSnapshot() {
		t.Error("an empty snapshot is still a snapshot")
	}
}

func TestBoundary_SessionHandle(t *testing.T) {
	ctx := context.Background()
	inherited := []Item{NewUserItem("earlier"), NewAssistantItem("context")}
	b := NewBoundary("phase", false, true, inherited)
	if err := b.Activate(); err != nil {
		t.Fatal(err)
	}

	if err := b.AddItems(ctx, []Item{NewUserItem("q"), NewAssistantItem("a")}); err != nil {
		t.Fatalf("add items failed: %v", err)
	}

	items, err := b.GetItems(ctx, 0)
	if err != nil {
		t.Fatalf("get items failed: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected inherited+local = 4 items, got %d", len(items))
	}
	if items[0].Text() != "earlier" || items[3].Text() != "a" {
		t.Errorf("items out of order: %q ... %q", items[0].Text(), items[3].Text())
	}

	tail, err := b.GetItems(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 || tail[0].Text() != "q" {
		t.Errorf("trailing limit wrong: %+v", tail)
	}

	// Appends never touch the inherited snapshot.
	if got := len(b.Inherited()); got != 2 {
		t.Errorf("inherited snapshot grew to %d", got)
	}
}

func TestBoundary_ShareFalseRejectsWrites(t *testing.T) {
	b := NewBoundary("snapshot-only", false, false, []Item{})
	if err := b.Activate(); err != nil {
		t.Fatal(err)
	}
	var iv *InvariantViolation
	if err := b.AddItems(context.Background(), []Item{NewUserItem("x")}); !errors.As(err, &iv) {
		t.Fatalf("expected InvariantViolation, got %v", err)
	}
}

func TestBoundary_ExchangeRecording(t *testing.T) {
	b := NewBoundary("p", true, true, []Item{})
	if err := b.Activate(); err != nil {
		t.Fatal(err)
	}

	if _, _, ok := b.LastExchange(); ok {
		t.Error("fresh boundary should have no exchange")
	}

	b.RecordExchange(NewUserItem("q1"), NewAssistantItem("a1"))
	b.RecordExchange(NewUserItem("q2"), NewAssistantItem("a2"))

	req, res, ok := b.LastExchange()
	if !ok {
		t.Fatal("expected a recorded exchange")
	}
	if req.Text() != "q2" || res.Text() != "a2" {
		t.Errorf("expected last exchange, got (%q, %q)", req.Text(), res.Text())
	}
}

func TestBoundary_SideData(t *testing.T) {
	b := NewBoundary("p", false, true, []Item{})
	if _, ok := b.Data("summary"); ok {
		t.Error("unset key should not be present")
	}
	b.SetData("summary", "done")
	v, ok := b.Data("summary")
	if !ok || v != "done" {
		t.Errorf("expected stored value, got %v (%v)", v, ok)
	}
}
