package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AllMonths is the selector label that disables month filtering.
const AllMonths = "All Months"

// MonthLabelLayout renders a date as a filter label, e.g. "March 2024".
const MonthLabelLayout = "January 2006"

type (
	// Summary holds the four dashboard metrics for a set of transactions.
	Summary struct {
		TotalIncome      float64 `json:"total_income"`
		TotalExpenses    float64 `json:"total_expenses"`
		TotalDeductions  float64 `json:"total_deductions"`
		RemainingBalance float64 `json:"remaining_balance"`
		// Unrecognized counts rows whose type is none of the known tags.
		// They are left out of every total.
		Unrecognized int `json:"unrecognized"`
	}

	// CategoryTotal is one slice of the expense breakdown.
	CategoryTotal struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}
)

// MonthLabel returns the filter label for a transaction, or "" when its date
// does not parse.
func MonthLabel(t Transaction) string {
	d := t.Time()
	if d.IsZero() {
		return ""
	}
	return d.Format(MonthLabelLayout)
}

// ListMonths returns the distinct month labels present in txs in
// chronological order, preceded by AllMonths.
func ListMonths(txs []Transaction) []string {
	type ym struct {
		year  int
		month time.Month
	}
	seen := make(map[ym]struct{})
	var months []ym
	for _, t := range txs {
		d := t.Time()
		if d.IsZero() {
			continue
		}
		k := ym{d.Year(), d.Month()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		months = append(months, k)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})

	labels := make([]string, 0, len(months)+1)
	labels = append(labels, AllMonths)
	for _, m := range months {
		labels = append(labels, time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC).Format(MonthLabelLayout))
	}
	return labels
}

// FilterByMonth returns the transactions dated in the calendar month named by
// label. AllMonths returns txs unchanged; a label that does not parse selects
// nothing.
func FilterByMonth(txs []Transaction, label string) []Transaction {
	if label == AllMonths || label == "" {
		return txs
	}
	want, err := time.Parse(MonthLabelLayout, label)
	if err != nil {
		return []Transaction{}
	}
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		d := t.Time()
		if d.IsZero() {
			continue
		}
		if d.Year() == want.Year() && d.Month() == want.Month() {
			out = append(out, t)
		}
	}
	return out
}

// FilterByType returns the transactions tagged typ, keeping input order.
func FilterByType(txs []Transaction, typ TransactionType) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}

// Summarize sums amounts per type. RemainingBalance is income minus expenses
// minus deductions.
func Summarize(txs []Transaction) Summary {
	income, expenses, deductions := decimal.Zero, decimal.Zero, decimal.Zero
	var s Summary
	for _, t := range txs {
		amt := decimal.NewFromFloat(t.Amount)
		switch t.Type {
		case Income:
			income = income.Add(amt)
		case Expense:
			expenses = expenses.Add(amt)
		case Deduction:
			deductions = deductions.Add(amt)
		default:
			s.Unrecognized++
		}
	}
	s.TotalIncome = income.InexactFloat64()
	s.TotalExpenses = expenses.InexactFloat64()
	s.TotalDeductions = deductions.InexactFloat64()
	s.RemainingBalance = income.Sub(expenses).Sub(deductions).InexactFloat64()
	return s
}

// BreakdownByCategory sums expense amounts per category. The empty category
// is a valid key.
func BreakdownByCategory(txs []Transaction) map[string]float64 {
	acc := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		acc[t.Category] = acc[t.Category].Add(decimal.NewFromFloat(t.Amount))
	}
	out := make(map[string]float64, len(acc))
	for k, v := range acc {
		out[k] = v.InexactFloat64()
	}
	return out
}

// SortedBreakdown orders a breakdown by amount, largest first, then by name.
func SortedBreakdown(breakdown map[string]float64) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(breakdown))
	for k, v := range breakdown {
		out = append(out, CategoryTotal{Category: k, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}
