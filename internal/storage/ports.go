package storage

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/core"
)

// Store persists the whole transaction collection. There are no incremental
// writes: Save replaces whatever was stored before.
type Store interface {
	// Load returns the stored collection. A missing store yields an empty
	// collection and no error. A store that exists but cannot be read as a
	// list of transactions yields an empty collection together with an
	// error wrapping ErrStorageCorrupt or ErrStorageShapeInvalid. Rows that
	// fail validation are skipped and reported by returning the remaining
	// rows together with an error wrapping ErrRowsDropped. Callers treat all
	// three as warnings.
	Load(ctx context.Context) ([]core.Transaction, error)

	// Save overwrites the store with txs.
	Save(ctx context.Context, txs []core.Transaction) error
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	ErrStorageCorrupt      = errors.New("stored data is corrupted or in the wrong format")
	ErrStorageShapeInvalid = errors.New("stored data is not a list of transactions")
	ErrRowsDropped         = errors.New("some stored transactions are invalid and were skipped")
)

// IsRecoverable reports whether a Load error is a warning rather than a
// failure: the ledger can start with whatever rows were returned.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrStorageCorrupt) ||
		errors.Is(err, ErrStorageShapeInvalid) ||
		errors.Is(err, ErrRowsDropped)
}

// checkStoredRow validates a loaded row. An unknown type alone is accepted:
// aggregation leaves such rows out of every total and counts them.
func checkStoredRow(t core.Transaction) error {
	err := t.Validate()
	var verr *core.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) == 1 && verr.Has("type") {
		return nil
	}
	return err
}


func droppedError(dropped, total int) error {
	if dropped == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d rows", ErrRowsDropped, dropped, total)
}
