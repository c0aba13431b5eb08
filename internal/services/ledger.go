package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// EventPublisher announces newly recorded transactions.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, tx core.Transaction) error
}

// Ledger owns the in-memory transaction collection for the life of the
// process and writes it through to the store on every append.
type Ledger struct {
	store     storage.Store
	publisher EventPublisher
	now       func() time.Time

	mu          sync.Mutex
	txs         []core.Transaction
	loadWarning error
}

// Open loads the collection from store. A recoverable load error does not
// fail Open: the ledger starts with whatever rows the store returned and the
// error is kept for LoadWarning. Any other error is fatal. publisher may be
// nil.
func Open(ctx context.Context, store storage.Store, publisher EventPublisher) (*Ledger, error) {
	l := &Ledger{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}

	txs, err := store.Load(ctx)
	if err != nil {
		if !storage.IsRecoverable(err) {
			return nil, fmt.Errorf("load transactions: %w", err)
		}
		logger(ctx).WarnContext(ctx, "Opening ledger with a load warning",
			applog.FieldError, err, "kept", len(txs))
		l.loadWarning = err
	}
	l.txs = txs

	logger(ctx).InfoContext(ctx, "Ledger opened", "transactions", len(txs))
	return l, nil
}

// LoadWarning returns the recoverable error reported when the ledger was opened, if any.
func (l *Ledger) LoadWarning() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadWarning
}

// Append validates d, assigns the next id, and persists the whole
// collection. If the save fails the collection is left as it was.
func (l *Ledger) Append(ctx context.Context, d core.Draft) (core.Transaction, error) {
	tx, err := d.Validate(l.now())
	if err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	prev := l.txs
	tx.ID = nextID(prev)
	next := make([]core.Transaction, len(prev), len(prev)+1)
	copy(next, prev)
	next = append(next, tx)

	if err := l.store.Save(ctx, next); err != nil {
		l.mu.Unlock()
		logger(ctx).ErrorContext(ctx, "Failed to save transactions", applog.FieldError, err, applog.FieldTransactionID, tx.ID)
		return core.Transaction{}, fmt.Errorf("save transactions: %w", err)
	}
	l.txs = next
	l.mu.Unlock()

	applog.LogTransactionCreated(ctx, tx.ID, string(tx.Type), tx.Amount, tx.Category)

	if l.publisher != nil {
		if err := l.publisher.PublishTransactionCreated(ctx, tx); err != nil {
			logger(ctx).WarnContext(ctx, "Failed to publish transaction event",
				applog.FieldTransactionID, tx.ID, applog.FieldError, err)
		}
	}

	return tx, nil
}

// Snapshot returns a copy of the collection in insertion order.
func (l *Ledger) Snapshot() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

// Len returns the number of recorded transactions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.txs)
}

// nextID is one past the largest id in use. Skipped rows can leave gaps, so
// the count alone could hand out an id that already exists.
func nextID(txs []core.Transaction) int {
	highest := len(txs)
	for _, t := range txs {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest + 1
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentLedger)
}
