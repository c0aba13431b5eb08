package sheets

import (
	"context"

	"ledger/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionAppender mirrors a recorded transaction as one spreadsheet row.
	TransactionAppender interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}
)

// Columns is the header row of a mirror sheet, in cell order.
var Columns = []string{"ID", "Date", "Month", "Type", "Title", "Category", "Amount", "Notes"}

// Row renders tx in Columns order. The month cell uses the dashboard's month
// label so the sheet can be pivoted the same way.
func Row(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.Date,
		core.MonthLabel(tx),
		string(tx.Type),
		tx.Title,
		tx.Category,
		tx.Amount,
		tx.Notes,
	}
}
