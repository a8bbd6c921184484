package memory

import (
	"context"
	"testing"

	"secondbrain/internal/core"
)

func TestJournalUpsertDeleteList(t *testing.T) {
	ctx := context.Background()
	j := New()

	for _, id := range []string{"a", "b", "c"} {
		if err := j.Upsert(ctx, core.Transaction{ID: id, Amount: core.Cents(100)}); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}
	if err := j.Upsert(ctx, core.Transaction{ID: "a", Amount: core.Cents(5)}); err != nil {
		t.Fatalf("update a: %v", err)
	}
	if err := j.Delete(ctx, "b"); err != nil {
		t.Fatalf("delete b: %v", err)
	}
	if err := j.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}

	got, err := j.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected rows: %+v", got)
	}
	if got[0].Amount.Cents != 5 {
		t.Errorf("expected a to be updated in place, got %v", got[0].Amount)
	}
}
