package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"ledger/internal/core"
)

// JSONFileStore keeps the collection as a pretty-printed JSON array in a
// single file. It assumes one writer.
type JSONFileStore struct {
	path string
}

// Ensure interface conformance
var _ Store = (*JSONFileStore)(nil)

func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

// Path returns the backing file path.
func (s *JSONFileStore) Path() string {
	return s.path
}

// Ping checks that the directory holding the data file exists.
func (s *JSONFileStore) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", dir)
	}
	return nil
}

func (s *JSONFileStore) Load(ctx context.Context) ([]core.Transaction, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.DebugContext(ctx, "Data file not found, starting empty", "path", s.path)
		return []core.Transaction{}, nil
	}
	if err != nil {
		return []core.Transaction{}, fmt.Errorf("read %s: %w: %v", s.path, ErrStorageCorrupt, err)
	}

	txs, err := decodeTransactions(ctx, data)
	if err != nil {
		if txs == nil {
			txs = []core.Transaction{}
		}
		return txs, fmt.Errorf("load %s: %w", s.path, err)
	}

	slog.InfoContext(ctx, "Transactions loaded from file", "path", s.path, "count", len(txs))
	return txs, nil
}

func (s *JSONFileStore) Save(ctx context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	data, err := json.MarshalIndent(txs, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal transactions: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Write a sibling temp file, then rename over the target.
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	slog.InfoContext(ctx, "Transactions saved to file", "path", s.path, "count", len(txs))
	return nil
}

// decodeTransactions parses a JSON array of transactions. Rows that do not
// decode or do not validate are skipped; the rest are returned along with an
// ErrRowsDropped error counting them.
func decodeTransactions(ctx context.Context, data []byte) ([]core.Transaction, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageCorrupt, err)
	}
	if _, ok := raw.([]any); !ok {
		return nil, fmt.Errorf("%w: got %T", ErrStorageShapeInvalid, raw)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageCorrupt, err)
	}

	txs := make([]core.Transaction, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		var t core.Transaction
		if err := json.Unmarshal(row, &t); err != nil {
			slog.WarnContext(ctx, "Skipping undecodable transaction", "index", i, "error", err)
			dropped++
			continue
		}
		if err := checkStoredRow(t); err != nil {
			slog.WarnContext(ctx, "Skipping invalid transaction", "index", i, "id", t.ID, "error", err)
			dropped++
			continue
		}
		txs = append(txs, t)
	}
	return txs, droppedError(dropped, len(rows))
}
