package core

import (
	"reflect"
	"testing"
)

func sample() []Transaction {
	return []Transaction{
		{ID: 1, Title: "Pay", Amount: 100, Type: Income, Date: "2024-01-05"},
		{ID: 2, Title: "Lunch", Amount: 30, Type: Expense, Category: "Food", Date: "2024-01-10"},
		{ID: 3, Title: "Tax", Amount: 10, Type: Deduction, Date: "2024-01-31"},
		{ID: 4, Title: "Bonus", Amount: 50, Type: Income, Date: "2024-02-01"},
	}
}

func TestFilterAndSummarizeJanuary(t *testing.T) {
	jan := FilterByMonth(sample(), "January 2024")
	if len(jan) != 3 {
		t.Fatalf("expected 3 January rows, got %d", len(jan))
	}
	got := Summarize(jan)
	want := Summary{TotalIncome: 100, TotalExpenses: 30, TotalDeductions: 10, RemainingBalance: 60}
	if got != want {
		t.Fatalf("Summarize = %+v, want %+v", got, want)
	}
	bd := BreakdownByCategory(jan)
	if !reflect.DeepEqual(bd, map[string]float64{"Food": 30}) {
		t.Fatalf("breakdown = %v", bd)
	}
}

func TestAllMonthsIsIdentity(t *testing.T) {
	txs := sample()
	if got, want := Summarize(FilterByMonth(txs, AllMonths)), Summarize(txs); got != want {
		t.Fatalf("All Months summary %+v != %+v", got, want)
	}
	if got := FilterByMonth(txs, AllMonths); len(got) != len(txs) {
		t.Fatalf("All Months should return every row")
	}
}

func TestFilterByMonthIsNotSubstring(t *testing.T) {
	txs := []Transaction{
		{Title: "a", Amount: 1, Type: Income, Date: "2023-01-01"},
		{Title: "b", Amount: 1, Type: Income, Date: "2024-01-01"},
	}
	got := FilterByMonth(txs, "January 2024")
	if len(got) != 1 || got[0].Title != "b" {
		t.Fatalf("expected only 2024 row, got %+v", got)
	}
	if got := FilterByMonth(txs, "Smarch 2024"); len(got) != 0 {
		t.Fatalf("unknown label should select nothing, got %+v", got)
	}
}

func TestListMonthsChronological(t *testing.T) {
	txs := []Transaction{
		{Date: "2024-03-01"},
		{Date: "2024-01-15"},
		{Date: "2024-03-20"},
	}
	want := []string{"All Months", "January 2024", "March 2024"}
	if got := ListMonths(txs); !reflect.DeepEqual(got, want) {
		t.Fatalf("ListMonths = %v, want %v", got, want)
	}
}

func TestListMonthsAcrossYears(t *testing.T) {
	txs := []Transaction{
		{Date: "2024-02-01"},
		{Date: "2023-12-01"},
		{Date: "2023-04-01"},
	}
	// A lexical sort would put "April 2023" first and "February 2024" before "December 2023".
	want := []string{"All Months", "April 2023", "December 2023", "February 2024"}
	if got := ListMonths(txs); !reflect.DeepEqual(got, want) {
		t.Fatalf("ListMonths = %v, want %v", got, want)
	}
}

func TestEmptyInputs(t *testing.T) {
	if got := Summarize(nil); got != (Summary{}) {
		t.Fatalf("Summarize(nil) = %+v", got)
	}
	if got := BreakdownByCategory(nil); len(got) != 0 {
		t.Fatalf("BreakdownByCategory(nil) = %v", got)
	}
	if got := ListMonths(nil); !reflect.DeepEqual(got, []string{AllMonths}) {
		t.Fatalf("ListMonths(nil) = %v", got)
	}
	if got := FilterByMonth(nil, "January 2024"); len(got) != 0 {
		t.Fatalf("FilterByMonth(nil) = %v", got)
	}
}

func TestUnrecognizedTypesExcluded(t *testing.T) {
	txs := []Transaction{
		{Amount: 10, Type: Income, Date: "2024-01-01"},
		{Amount: 99, Type: "refund", Date: "2024-01-01"},
	}
	got := Summarize(txs)
	if got.TotalIncome != 10 || got.RemainingBalance != 10 || got.Unrecognized != 1 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestBreakdownEmptyCategoryAndSorting(t *testing.T) {
	txs := []Transaction{
		{Amount: 5, Type: Expense, Category: ""},
		{Amount: 20, Type: Expense, Category: "Rent"},
		{Amount: 5, Type: Expense, Category: "Bus"},
		{Amount: 7, Type: Deduction, Category: "Rent"},
	}
	bd := BreakdownByCategory(txs)
	if bd[""] != 5 || bd["Rent"] != 20 || bd["Bus"] != 5 {
		t.Fatalf("breakdown = %v", bd)
	}
	want := []CategoryTotal{{"Rent", 20}, {"", 5}, {"Bus", 5}}
	if got := SortedBreakdown(bd); !reflect.DeepEqual(got, want) {
		t.Fatalf("SortedBreakdown = %v, want %v", got, want)
	}
}

func TestFilterByType(t *testing.T) {
	got := FilterByType(sample(), Income)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 4 {
		t.Fatalf("FilterByType = %+v", got)
	}
}
