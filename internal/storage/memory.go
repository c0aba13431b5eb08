package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"ledger/internal/core"
)

// MemoryStore keeps the collection in process memory. Nothing survives a
// restart; it backs demos and tests.
type MemoryStore struct {
	mu    sync.Mutex
	items []core.Transaction
	saves int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(seed []core.Transaction) *MemoryStore {
	return &MemoryStore{items: append([]core.Transaction(nil), seed...)}
}

// NewMemoryStoreFromDir seeds the store from base/seed_transactions.json when
// that file exists and parses. Invalid rows are skipped.
func NewMemoryStoreFromDir(base string) *MemoryStore {
	path := filepath.Join(base, "seed_transactions.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return NewMemoryStore(nil)
	}
	txs, err := decodeTransactions(context.Background(), data)
	if err != nil && !errors.Is(err, ErrRowsDropped) {
		slog.Warn("Ignoring unreadable seed file", "path", path, "error", err)
		return NewMemoryStore(nil)
	}
	return NewMemoryStore(txs)
}

func (s *MemoryStore) Load(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.Transaction(nil), txs...)
	s.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
