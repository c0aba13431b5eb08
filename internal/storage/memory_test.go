package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(sampleTransactions())

	got, _ := s.Load(ctx)
	got[0].Title = "mutated"
	again, _ := s.Load(ctx)
	if again[0].Title != "Paycheck" {
		t.Fatalf("Load must return a copy, got %q", again[0].Title)
	}

	if err := s.Save(ctx, got[:2]); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, _ = s.Load(ctx)
	if len(again) != 2 || s.Saves() != 1 {
		t.Fatalf("unexpected state: len=%d saves=%d", len(again), s.Saves())
	}
}

func TestNewMemoryStoreFromDir(t *testing.T) {
	dir := t.TempDir()
	// No seed file -> empty
	got, _ := NewMemoryStoreFromDir(dir).Load(context.Background())
	if len(got) != 0 {
		t.Fatalf("expected empty store, got %d", len(got))
	}

	seed := `[{"id": 1, "title": "Seed", "amount": 5, "type": "expense", "date": "2024-05-01", "category": "Misc", "notes": ""},
	          {"id": 2, "title": "", "amount": 5, "type": "expense", "date": "2024-05-01", "category": "", "notes": ""}]`
	if err := os.WriteFile(filepath.Join(dir, "seed_transactions.json"), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	got, _ = NewMemoryStoreFromDir(dir).Load(context.Background())
	if len(got) != 1 || got[0].Title != "Seed" {
		t.Fatalf("expected one seeded row, got %+v", got)
	}
}
