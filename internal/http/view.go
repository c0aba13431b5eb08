package http

import (
	"fmt"

	"ledger/internal/core"
)

// Chart colours and titles shown on the dashboard.
const (
	colorIncome           = "#10B981"
	colorOutflow          = "#EF4444"
	colorIncomeBar        = "#2563EB"
	colorExpensesBar      = "#B91C1C"
	colorDeductionsBar    = "#F59E0B"
	titleIncomeVsOutflow  = "Income vs. Expenses + Deductions"
	titleExpenseBreakdown = "Expenses Breakdown by Category"
	titleTotalsByType     = "Income vs. Expenses vs. Deductions"
)

const (
	msgEmptyLedger = "Add a transaction to get started. Data file is currently empty."
	msgNoneForTmpl = "No transactions found for %s."
	msgNoRowsTmpl  = "No %s transactions to display for this period."
)

// monthReport is the aggregated view of one month selection. It is cached
// per ledger size and label.
type monthReport struct {
	Label        string
	Transactions []core.Transaction
	Summary      core.Summary
	Breakdown    []core.CategoryTotal
}

func buildReport(all []core.Transaction, label string) monthReport {
	txs := core.FilterByMonth(all, label)
	return monthReport{
		Label:        label,
		Transactions: txs,
		Summary:      core.Summarize(txs),
		Breakdown:    core.SortedBreakdown(core.BreakdownByCategory(txs)),
	}
}

type metric struct {
	Label string
	Value string
	// Negative marks a balance below zero for styling.
	Negative bool
}

type typeTable struct {
	Title string
	Type  core.TransactionType
	Rows  []core.Transaction
	Empty string
}

// dashboardView feeds the dashboard partial and the index page.
type dashboardView struct {
	Month       string
	Months      []string
	Empty       bool
	Message     string
	Warning     string
	Metrics     []metric
	Tables      []typeTable
	Charts      chartsPayload
	ExportURL   string
	ExportLabel string
	Summary     core.Summary
}

// indexView adds the form fields to the dashboard.
type indexView struct {
	dashboardView
	Types []core.TransactionType
	Today string
}

func newDashboardView(all []core.Transaction, rep monthReport, warning error) dashboardView {
	v := dashboardView{
		Month:       rep.Label,
		Months:      core.ListMonths(all),
		Empty:       len(all) == 0,
		Summary:     rep.Summary,
		Charts:      newChartsPayload(rep),
		ExportURL:   "/export.csv" + monthQuery(rep.Label),
		ExportLabel: fmt.Sprintf("Download %s Data", rep.Label),
	}
	if warning != nil {
		v.Warning = warning.Error()
	}

	switch {
	case v.Empty:
		v.Message = msgEmptyLedger
	case len(rep.Transactions) == 0:
		v.Message = fmt.Sprintf(msgNoneForTmpl, rep.Label)
	}

	s := rep.Summary
	v.Metrics = []metric{
		{Label: "Total Income", Value: core.FormatAmount(s.TotalIncome)},
		{Label: "Total Expenses", Value: core.FormatAmount(s.TotalExpenses)},
		{Label: "Total Deductions", Value: core.FormatAmount(s.TotalDeductions)},
		{Label: "Remaining Balance", Value: core.FormatAmount(s.RemainingBalance), Negative: s.RemainingBalance < 0},
	}

	for _, tt := range []struct {
		title string
		typ   core.TransactionType
	}{
		{"Income Transactions", core.Income},
		{"Expense Transactions", core.Expense},
		{"Deduction Transactions", core.Deduction},
	} {
		v.Tables = append(v.Tables, typeTable{
			Title: tt.title,
			Type:  tt.typ,
			Rows:  core.FilterByType(rep.Transactions, tt.typ),
			Empty: fmt.Sprintf(msgNoRowsTmpl, tt.typ),
		})
	}
	return v
}

type chartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
}

// chartConfig is the subset of a Chart.js configuration the page needs.
type chartConfig struct {
	ID        string         `json:"id"`
	Kind      string         `json:"type"`
	Title     string         `json:"title"`
	IndexAxis string         `json:"indexAxis,omitempty"`
	Labels    []string       `json:"labels"`
	Datasets  []chartDataset `json:"datasets"`
}

type chartsPayload struct {
	Month     string        `json:"month"`
	Available bool          `json:"available"`
	Message   string        `json:"message,omitempty"`
	Charts    []chartConfig `json:"charts"`
}

func newChartsPayload(rep monthReport) chartsPayload {
	p := chartsPayload{Month: rep.Label, Charts: []chartConfig{}}
	if len(rep.Transactions) == 0 {
		p.Message = fmt.Sprintf(msgNoneForTmpl, rep.Label)
		return p
	}
	p.Available = true
	s := rep.Summary

	labels := make([]string, 0, len(rep.Breakdown))
	amounts := make([]float64, 0, len(rep.Breakdown))
	for _, c := range rep.Breakdown {
		name := c.Category
		if name == "" {
			name = "(uncategorized)"
		}
		labels = append(labels, name)
		amounts = append(amounts, c.Amount)
	}

	p.Charts = []chartConfig{
		{
			ID:        "income-vs-outflow",
			Kind:      "bar",
			Title:     titleIncomeVsOutflow,
			IndexAxis: "y",
			Labels:    []string{"Income", "Expenses + Deductions"},
			Datasets: []chartDataset{{
				Label:           "Amount",
				Data:            []float64{s.TotalIncome, s.TotalExpenses + s.TotalDeductions},
				BackgroundColor: []string{colorIncome, colorOutflow},
			}},
		},
		{
			ID:       "expense-breakdown",
			Kind:     "pie",
			Title:    titleExpenseBreakdown,
			Labels:   labels,
			Datasets: []chartDataset{{Label: "Amount", Data: amounts}},
		},
		{
			ID:     "totals-by-type",
			Kind:   "bar",
			Title:  titleTotalsByType,
			Labels: []string{"Income", "Expenses", "Deductions"},
			Datasets: []chartDataset{{
				Label:           "Amount",
				Data:            []float64{s.TotalIncome, s.TotalExpenses, s.TotalDeductions},
				BackgroundColor: []string{colorIncomeBar, colorExpensesBar, colorDeductionsBar},
			}},
		},
	}
	return p
}
