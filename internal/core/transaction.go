package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the on-disk date format for transactions.
const DateLayout = "2006-01-02"

const (
	Income    TransactionType = "income"
	Expense   TransactionType = "expense"
	Deduction TransactionType = "deduction"
)

type (
	TransactionType string

	// Transaction is one recorded monetary event. The JSON tags define the
	// persisted file format.
	Transaction struct {
		ID       int             `json:"id"`
		Title    string          `json:"title"`
		Amount   float64         `json:"amount"`
		Type     TransactionType `json:"type"`
		Date     string          `json:"date"`
		Category string          `json:"category"`
		Notes    string          `json:"notes"`
	}

	// Draft is user-submitted, not yet validated transaction input.
	Draft struct {
		Title    string
		Amount   string
		Type     string
		Date     string
		Category string
		Notes    string
	}
)

var (
	ErrEmptyTitle    = errors.New("title is required")
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrInvalidType   = errors.New("type must be one of income, expense, deduction")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
)

// Types lists the recognized transaction tags in display order.
func Types() []TransactionType {
	return []TransactionType{Income, Expense, Deduction}
}

// Valid reports whether t is one of the three known tags.
func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Deduction:
		return true
	default:
		return false
	}
}

// Time parses the transaction date. The zero time is returned for malformed dates.
func (t Transaction) Time() time.Time {
	d, err := time.Parse(DateLayout, t.Date)
	if err != nil {
		return time.Time{}
	}
	return d
}

// Validate checks a persisted record with the same rules applied to drafts.
func (t Transaction) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(t.Title) == "" {
		verr.add("title", ErrEmptyTitle)
	}
	if !(t.Amount > 0) {
		verr.add("amount", ErrInvalidAmount)
	}
	if !t.Type.Valid() {
		verr.add("type", ErrInvalidType)
	}
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		verr.add("date", ErrInvalidDate)
	}
	return verr.orNil()
}

// Validate checks the draft and converts it into a transaction without an ID.
// An empty date defaults to today and an empty type defaults to income, the
// same defaults the entry form preselects.
func (d Draft) Validate(now time.Time) (Transaction, error) {
	verr := &ValidationError{}

	title := strings.TrimSpace(d.Title)
	if title == "" {
		verr.add("title", ErrEmptyTitle)
	}

	amount, err := ParseAmount(d.Amount)
	if err != nil {
		verr.add("amount", err)
	}

	typ := TransactionType(strings.ToLower(strings.TrimSpace(d.Type)))
	if typ == "" {
		typ = Income
	}
	if !typ.Valid() {
		verr.add("type", ErrInvalidType)
	}

	date := strings.TrimSpace(d.Date)
	if date == "" {
		date = now.Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		verr.add("date", ErrInvalidDate)
	}

	if err := verr.orNil(); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Title:    title,
		Amount:   amount,
		Type:     typ,
		Date:     date,
		Category: strings.TrimSpace(d.Category),
		Notes:    strings.TrimSpace(d.Notes),
	}, nil
}
