package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the collection in a SQLite table. Save replaces every
// row inside one SQL transaction, so the table always holds a complete
// collection.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps the single-writer model and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, amount, type, date, category, notes FROM transactions ORDER BY position`)
	if err != nil {
		return []core.Transaction{}, fmt.Errorf("query transactions: %w: %v", ErrStorageCorrupt, err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	total, dropped := 0, 0
	for rows.Next() {
		total++
		var t core.Transaction
		var typ string
		if err := rows.Scan(&t.ID, &t.Title, &t.Amount, &typ, &t.Date, &t.Category, &t.Notes); err != nil {
			return []core.Transaction{}, fmt.Errorf("scan transaction: %w: %v", ErrStorageCorrupt, err)
		}
		t.Type = core.TransactionType(typ)
		if err := checkStoredRow(t); err != nil {
			slog.WarnContext(ctx, "Skipping invalid transaction row", "id", t.ID, "error", err)
			dropped++
			continue
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return []core.Transaction{}, fmt.Errorf("iterate transactions: %w: %v", ErrStorageCorrupt, err)
	}

	slog.InfoContext(ctx, "Transactions loaded from SQLite", "count", len(txs))
	return txs, droppedError(dropped, total)
}

func (s *SQLiteStore) Save(ctx context.Context, txs []core.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (position, id, title, amount, type, date, category, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range txs {
		if _, err := stmt.ExecContext(ctx, i+1, t.ID, t.Title, t.Amount, string(t.Type), t.Date, t.Category, t.Notes); err != nil {
			return fmt.Errorf("insert transaction %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transactions saved to SQLite", "count", len(txs))
	return nil
}
