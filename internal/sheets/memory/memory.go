package memory

import (
	"context"
	"fmt"
	"sync"

	"ledger/internal/core"
	"ledger/internal/sheets"
)

// Sheet is an in-process stand-in for a spreadsheet. It keeps rendered rows so
// the mirror worker can run without Google credentials.
type Sheet struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.TransactionAppender = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{rows: [][]any{toAny(sheets.Columns)}}
}

// Append validates tx and stores its row, returning a synthetic row reference.
func (s *Sheet) Append(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, sheets.Row(tx))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of every row including the header.
func (s *Sheet) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
