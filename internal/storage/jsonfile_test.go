package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"ledger/internal/core"
)

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		{ID: 1, Title: "Paycheck", Amount: 1500, Type: core.Income, Date: "2024-01-05", Category: "Salary", Notes: ""},
		{ID: 2, Title: "Groceries", Amount: 42.17, Type: core.Expense, Date: "2024-01-06", Category: "Food", Notes: "weekly"},
		{ID: 3, Title: "Pension", Amount: 120, Type: core.Deduction, Date: "2024-02-01", Category: "", Notes: ""},
	}
}

func TestJSONFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewJSONFileStore(filepath.Join(t.TempDir(), "data.json"))

	want := sampleTransactions()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestJSONFileStoreMissingFile(t *testing.T) {
	s := NewJSONFileStore(filepath.Join(t.TempDir(), "nope.json"))
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestJSONFileStoreRecoverableErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    error
	}{
		{"scalar", `"not a list"`, ErrStorageShapeInvalid},
		{"object", `{"id": 1, "title": "x"}`, ErrStorageShapeInvalid},
		{"garbage", `[{"id": 1,`, ErrStorageCorrupt},
		{"empty file", ``, ErrStorageCorrupt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.json")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := NewJSONFileStore(path).Load(context.Background())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsRecoverable(err) {
				t.Fatalf("error should be recoverable: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("expected empty collection, got %+v", got)
			}
		})
	}
}

func TestJSONFileStoreDropsInvalidRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	content := `[
		{"id": 1, "title": "ok", "amount": 10, "type": "income", "date": "2024-01-01", "category": "", "notes": ""},
		{"id": 2, "title": "", "amount": 10, "type": "income", "date": "2024-01-01", "category": "", "notes": ""},
		{"id": 3, "title": "neg", "amount": -1, "type": "expense", "date": "2024-01-01", "category": "", "notes": ""},
		{"id": 4, "title": "bad date", "amount": 1, "type": "expense", "date": "yesterday", "category": "", "notes": ""},
		{"id": 5, "title": "bad amount", "amount": "ten", "type": "expense", "date": "2024-01-01", "category": "", "notes": ""},
		{"id": 6, "title": "ok too", "amount": 2.5, "type": "deduction", "date": "2024-01-02", "category": "Tax", "notes": ""}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := NewJSONFileStore(path).Load(context.Background())
	if !errors.Is(err, ErrRowsDropped) || !IsRecoverable(err) {
		t.Fatalf("expected recoverable dropped-rows error, got %v", err)
	}
	if !strings.Contains(err.Error(), "4 of 6") {
		t.Errorf("expected dropped count in %q", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 6 {
		t.Fatalf("expected rows 1 and 6, got %+v", got)
	}
}

func TestJSONFileStoreKeepsUnknownTypeRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	content := `[
		{"id": 1, "title": "ok", "amount": 10, "type": "income", "date": "2024-01-01"},
		{"id": 2, "title": "refund", "amount": 4, "type": "refund", "date": "2024-01-02"},
		{"id": 3, "title": "", "amount": 4, "type": "refund", "date": "2024-01-02"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := NewJSONFileStore(path).Load(context.Background())
	if !errors.Is(err, ErrRowsDropped) {
		t.Fatalf("expected row 3 to be dropped, got %v", err)
	}
	if len(got) != 2 || got[1].Type != core.TransactionType("refund") {
		t.Fatalf("expected the refund row to be kept, got %+v", got)
	}
}

func TestJSONFileStoreSaveFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewJSONFileStore(path)
	if err := s.Save(context.Background(), sampleTransactions()[:1]); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, field := range []string{`"id": 1`, `"title": "Paycheck"`, `"amount": 1500`, `"type": "income"`, `"date": "2024-01-05"`, `"category": "Salary"`, `"notes": ""`} {
		if !strings.Contains(text, field) {
			t.Errorf("saved file missing %s:\n%s", field, text)
		}
	}
	if !strings.HasPrefix(text, "[\n    {") {
		t.Errorf("expected 4-space pretty printing, got:\n%s", text)
	}

	// Empty collections are written as an empty array, not null.
	if err := s.Save(context.Background(), nil); err != nil {
		t.Fatalf("save nil: %v", err)
	}
	data, _ = os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("expected [], got %q", data)
	}
}

func TestJSONFileStoreSaveUnwritable(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the data directory should be makes MkdirAll fail.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewJSONFileStore(filepath.Join(blocker, "data.json"))
	if err := s.Save(context.Background(), sampleTransactions()); err == nil {
		t.Fatal("expected save error for unwritable path")
	}
}

func TestJSONFileStorePing(t *testing.T) {
	dir := t.TempDir()
	if err := NewJSONFileStore(filepath.Join(dir, "data.json")).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := NewJSONFileStore(filepath.Join(dir, "missing", "data.json")).Ping(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
