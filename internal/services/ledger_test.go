package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type failingStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (s *failingStore) Load(context.Context) ([]core.Transaction, error) {
	return []core.Transaction{}, s.loadErr
}

func (s *failingStore) Save(context.Context, []core.Transaction) error {
	s.saves++
	return s.saveErr
}

type recordingPublisher struct {
	mu  sync.Mutex
	txs []core.Transaction
	err error
}

func (p *recordingPublisher) PublishTransactionCreated(_ context.Context, tx core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs = append(p.txs, tx)
	return p.err
}

func validDraft(title string) core.Draft {
	return core.Draft{Title: title, Amount: "12.50", Type: "expense", Date: "2024-01-15", Category: "Food"}
}

func TestOpenLoadsExistingTransactions(t *testing.T) {
	store := storage.NewMemoryStore([]core.Transaction{
		{ID: 1, Title: "Paycheck", Amount: 100, Type: core.Income, Date: "2024-01-01"},
	})
	l, err := Open(context.Background(), store, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if l.Len() != 1 || l.LoadWarning() != nil {
		t.Fatalf("unexpected state: len=%d warning=%v", l.Len(), l.LoadWarning())
	}
}

func TestOpenRecoverableWarning(t *testing.T) {
	store := &failingStore{loadErr: fmt.Errorf("read data.json: %w", storage.ErrStorageCorrupt)}
	l, err := Open(context.Background(), store, nil)
	if l == nil {
		t.Fatal("recoverable load error should still yield a ledger")
	}
	if err != nil {
		t.Fatalf("recoverable load error should not fail Open, got %v", err)
	}
	if !errors.Is(l.LoadWarning(), storage.ErrStorageCorrupt) {
		t.Fatalf("expected corrupt warning, got %v", l.LoadWarning())
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty ledger, got %d", l.Len())
	}
}

func TestOpenKeepsValidRowsAndAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")
	data := `[
		{"id":1,"title":"Paycheck","amount":100,"type":"income","date":"2024-01-01"},
		{"id":2,"title":"","amount":5,"type":"expense","date":"2024-01-02"},
		{"id":3,"title":"Rent","amount":40,"type":"expense","date":"2024-01-03"},
		{"id":4,"title":"Refund","amount":10,"type":"refund","date":"2024-01-04"}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	store := storage.NewJSONFileStore(path)
	l, err := Open(ctx, store, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !errors.Is(l.LoadWarning(), storage.ErrRowsDropped) {
		t.Fatalf("expected dropped-rows warning, got %v", l.LoadWarning())
	}
	if l.Len() != 3 {
		t.Fatalf("expected 3 kept rows, got %d", l.Len())
	}
	if got := core.Summarize(l.Snapshot()).Unrecognized; got != 1 {
		t.Errorf("Unrecognized = %d, want 1", got)
	}

	tx, err := l.Append(ctx, validDraft("Groceries"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if tx.ID != 5 {
		t.Errorf("new id = %d, want 5", tx.ID)
	}

	stored, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	seen := map[int]bool{}
	for _, row := range stored {
		if seen[row.ID] {
			t.Fatalf("duplicate id %d in %+v", row.ID, stored)
		}
		seen[row.ID] = true
	}
	if len(stored) != 4 {
		t.Fatalf("expected 4 stored rows, got %d", len(stored))
	}
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		want int
	}{
		{"empty", nil, 1},
		{"dense", []int{1, 2, 3}, 4},
		{"gap", []int{1, 3}, 4},
		{"unordered", []int{7, 2}, 8},
		{"zero ids", []int{0, 0}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := make([]core.Transaction, len(tt.ids))
			for i, id := range tt.ids {
				txs[i].ID = id
			}
			if got := nextID(txs); got != tt.want {
				t.Errorf("nextID(%v) = %d, want %d", tt.ids, got, tt.want)
			}
		})
	}
}

func TestOpenFatalError(t *testing.T) {
	store := &failingStore{loadErr: errors.New("permission denied")}
	l, err := Open(context.Background(), store, nil)
	if err == nil || l != nil {
		t.Fatalf("expected fatal error, got ledger=%v err=%v", l, err)
	}
}

func TestAppendAssignsIDsAndPersists(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(nil)
	pub := &recordingPublisher{}
	l, err := Open(ctx, store, pub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for i, title := range []string{"first", "second", "third"} {
		tx, err := l.Append(ctx, validDraft(title))
		if err != nil {
			t.Fatalf("Append(%s): %v", title, err)
		}
		if tx.ID != i+1 {
			t.Errorf("Append(%s) id = %d, want %d", title, tx.ID, i+1)
		}
	}

	stored, _ := store.Load(ctx)
	if len(stored) != 3 || store.Saves() != 3 {
		t.Fatalf("expected 3 stored rows after 3 saves, got %d rows, %d saves", len(stored), store.Saves())
	}
	if stored[2].Title != "third" || stored[2].Amount != 12.5 {
		t.Errorf("unexpected last row: %+v", stored[2])
	}
	if len(pub.txs) != 3 || pub.txs[0].ID != 1 {
		t.Errorf("expected 3 published events, got %+v", pub.txs)
	}
}

func TestAppendValidationLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(nil)
	pub := &recordingPublisher{}
	l, _ := Open(ctx, store, pub)

	_, err := l.Append(ctx, core.Draft{Title: "", Amount: "0", Type: "expense", Date: "2024-01-15"})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !verr.Has("title") || !verr.Has("amount") {
		t.Errorf("expected title and amount fields, got %v", verr.FieldNames())
	}
	if l.Len() != 0 || store.Saves() != 0 || len(pub.txs) != 0 {
		t.Fatalf("validation failure must not touch state: len=%d saves=%d published=%d",
			l.Len(), store.Saves(), len(pub.txs))
	}
}

func TestAppendSaveFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{saveErr: errors.New("disk full")}
	pub := &recordingPublisher{}
	l, _ := Open(ctx, store, pub)

	if _, err := l.Append(ctx, validDraft("lost")); err == nil {
		t.Fatal("expected save error")
	}
	if l.Len() != 0 {
		t.Fatalf("failed save must roll back, len=%d", l.Len())
	}
	if len(pub.txs) != 0 {
		t.Fatal("nothing should be published after a failed save")
	}

	// The next successful append still gets id 1.
	store.saveErr = nil
	tx, err := l.Append(ctx, validDraft("kept"))
	if err != nil || tx.ID != 1 {
		t.Fatalf("expected id 1 after rollback, got %d err=%v", tx.ID, err)
	}
}

func TestAppendPublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	l, _ := Open(ctx, storage.NewMemoryStore(nil), &recordingPublisher{err: errors.New("broker down")})

	if _, err := l.Append(ctx, validDraft("ok")); err != nil {
		t.Fatalf("publish failure must not fail append: %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 transaction, got %d", l.Len())
	}
}

func TestAppendDefaultsDateToToday(t *testing.T) {
	ctx := context.Background()
	l, _ := Open(ctx, storage.NewMemoryStore(nil), nil)
	l.now = func() time.Time { return time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC) }

	tx, err := l.Append(ctx, core.Draft{Title: "Coffee", Amount: "3"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if tx.Date != "2024-07-04" || tx.Type != core.Income {
		t.Fatalf("expected defaults, got %+v", tx)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	l, _ := Open(ctx, storage.NewMemoryStore(nil), nil)
	if _, err := l.Append(ctx, validDraft("a")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	snap := l.Snapshot()
	snap[0].Title = "changed"
	if l.Snapshot()[0].Title != "a" {
		t.Fatal("Snapshot must not expose internal state")
	}
}

func TestAppendConcurrent(t *testing.T) {
	ctx := context.Background()
	l, _ := Open(ctx, storage.NewMemoryStore(nil), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.Append(ctx, validDraft(fmt.Sprintf("tx-%d", i))); err != nil {
				t.Errorf("Append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for _, tx := range l.Snapshot() {
		if seen[tx.ID] {
			t.Fatalf("duplicate id %d", tx.ID)
		}
		seen[tx.ID] = true
	}
	if len(seen) != 20 {
		t.Fatalf("expected 20 unique ids, got %d", len(seen))
	}
}
