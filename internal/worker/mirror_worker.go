package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/sheets"
)

// Redeliveries normally arrive within minutes; a day of event IDs, capped
// by count, is the dedupe window.
const (
	DefaultDedupeSize = 10000
	DefaultDedupeTTL  = 24 * time.Hour
)

// MirrorWorker copies every transaction.created event into a spreadsheet.
// Events are delivered at least once, so recently mirrored event IDs are
// remembered and skipped. An event redelivered after it has left the
// window is appended again.
type MirrorWorker struct {
	appender sheets.TransactionAppender
	seen     *cache.LRUCache[string]
	mirrored atomic.Int64
}

func NewMirrorWorker(appender sheets.TransactionAppender) *MirrorWorker {
	return newMirrorWorker(appender, DefaultDedupeSize, DefaultDedupeTTL)
}

func newMirrorWorker(appender sheets.TransactionAppender, size int, ttl time.Duration) *MirrorWorker {
	return &MirrorWorker{
		appender: appender,
		seen:     cache.NewLRUCache[string](size, ttl),
	}
}

// HandleTransactionCreated appends the event's transaction as one row. A
// returned error makes the consumer requeue the message.
func (w *MirrorWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"event_id", msg.EventID,
		"transaction_id", msg.Transaction.ID)

	if ref, done := w.seen.Get(msg.EventID); done {
		slog.InfoContext(ctx, "Skipping already mirrored event",
			"event_id", msg.EventID,
			"row_ref", ref)
		return nil
	}

	ref, err := w.appender.Append(ctx, msg.Transaction)
	if err != nil {
		return fmt.Errorf("mirror transaction %d: %w", msg.Transaction.ID, err)
	}
	w.seen.Set(msg.EventID, ref)
	w.mirrored.Add(1)

	slog.InfoContext(ctx, "Mirrored transaction",
		"event_id", msg.EventID,
		"transaction_id", msg.Transaction.ID,
		"row_ref", ref)
	return nil
}

// Mirrored returns how many rows have been written.
func (w *MirrorWorker) Mirrored() int {
	return int(w.mirrored.Load())
}

// CleanExpired drops event IDs older than the dedupe window.
func (w *MirrorWorker) CleanExpired() int {
	return w.seen.CleanExpired()
}

// Remembered returns how many event IDs are currently in the dedupe window.
func (w *MirrorWorker) Remembered() int {
	return w.seen.Size()
}
