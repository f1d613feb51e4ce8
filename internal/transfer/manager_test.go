package transfer

import (
	"context"
	"testing"
	"time"
)

func TestManagerCreate(t *testing.T) {
	t.Parallel()
	m := NewManager(nil)

	tr, ctx := m.Create(context.Background(), ModeWatch, "https://ppng.io/a")
	if tr.ID == "" {
		t.Fatal("Create returned an empty id")
	}
	if tr.StartedAt.IsZero() {
		t.Error("StartedAt should not be zero")
	}
	if ctx.Err() != nil {
		t.Error("context cancelled at creation")
	}

	list := m.List()
	if len(list) != 1 || list[0] != tr {
		t.Fatalf("List = %v, want the created transfer", list)
	}
	if got := list[0]; got.Mode != ModeWatch || got.URL != "https://ppng.io/a" {
		t.Errorf("transfer = %+v", got)
	}
}

func TestManagerUniqueIDs(t *testing.T) {
	t.Parallel()
	m := NewManager(nil)

	a, _ := m.Create(context.Background(), ModeStream, "u")
	b, _ := m.Create(context.Background(), ModeStream, "u")
	if a.ID == b.ID {
		t.Fatalf("duplicate id %q", a.ID)
	}
	if len(m.List()) != 2 {
		t.Errorf("count: got %d, want 2", len(m.List()))
	}
}

func TestManagerRemove(t *testing.T) {
	t.Parallel()
	m := NewManager(nil)

	tr, ctx := m.Create(context.Background(), ModeDecrypt, "f")
	m.Remove(tr.ID)

	if len(m.List()) != 0 {
		t.Errorf("count after remove: got %d, want 0", len(m.List()))
	}
	if ctx.Err() == nil {
		t.Error("context not released by Remove")
	}
	// Removing twice is a no-op.
	m.Remove(tr.ID)
}

func TestManagerListOrder(t *testing.T) {
	t.Parallel()
	m := NewManager(nil)

	var ids []string
	for range 3 {
		tr, _ := m.Create(context.Background(), ModeStream, "u")
		ids = append(ids, tr.ID)
		time.Sleep(time.Millisecond)
	}

	list := m.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 transfers, got %d", len(list))
	}
	for i, tr := range list {
		if tr.ID != ids[i] {
			t.Errorf("List[%d] = %s, want %s", i, tr.ID, ids[i])
		}
	}
}

func TestManagerCancelAll(t *testing.T) {
	t.Parallel()
	m := NewManager(nil)

	_, ctxA := m.Create(context.Background(), ModeStream, "a")
	_, ctxB := m.Create(context.Background(), ModeWatch, "b")
	m.CancelAll()

	if ctxA.Err() == nil || ctxB.Err() == nil {
		t.Error("CancelAll left a transfer running")
	}
	if len(m.List()) != 2 {
		t.Error("CancelAll should not remove transfers")
	}
}

func TestManagerParentCancel(t *testing.T) {
	t.Parallel()
	m := NewManager(nil)

	parent, cancel := context.WithCancel(context.Background())
	_, ctx := m.Create(parent, ModeWatch, "u")
	cancel()
	if ctx.Err() == nil {
		t.Error("transfer context outlived its parent")
	}
}
