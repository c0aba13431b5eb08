// Package export renders transactions for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"ledger/internal/core"
)

// Header lists the CSV columns in output order.
var Header = []string{"id", "title", "amount", "type", "date", "category", "notes"}

// WriteCSV writes a header row followed by one row per transaction.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range txs {
		row := []string{
			strconv.Itoa(tx.ID),
			tx.Title,
			strconv.FormatFloat(tx.Amount, 'f', -1, 64),
			string(tx.Type),
			tx.Date,
			tx.Category,
			tx.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the download name for an export of the given month label.
func FileName(label string) string {
	if label == "" {
		label = core.AllMonths
	}
	return "financial_transactions_" + label + ".csv"
}
