package complaint

import (
	"context"
	"testing"

	core "github.com/espressobar/brewsched/core/complaint"
)

func TestSQLiteStore_RecordList(t *testing.T) {
	store, err := NewSQLiteStore("file:complaints_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()

	c := core.New("Alice", "bob", "Auto-Raised (Timeout): Order #1 (Latte) waited 10.2 minutes.")
	if err := store.Record(context.Background(), c); err != nil {
		t.Fatalf("record: %v", err)
	}
	out, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 complaint, got %d", len(out))
	}
	if out[0].ID != c.ID || out[0].Barista != "Alice" || out[0].Customer != "bob" {
		t.Fatalf("roundtrip mismatch: %#v", out[0])
	}
}
