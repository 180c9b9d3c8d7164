package core

import (
	"errors"
	"strings"
	"time"
)

// Category values. CategoryIncome is the only income discriminator; every
// other category is an expense.
const (
	CategoryAll            = "All"
	CategoryIncome         = "Income"
	CategoryHousing        = "Housing"
	CategoryFood           = "Food"
	CategoryTransportation = "Transportation"
	CategoryEntertainment  = "Entertainment"
	CategoryOthers         = "Others"
)

const (
	DefaultIncomeDescription  = "Income"
	DefaultExpenseDescription = "Expense"
	DefaultExpenseCategory    = CategoryOthers

	// DateLayout and TimeLayout are the persisted string formats. Dates compare
	// lexically in DateLayout, which the filters rely on.
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// ExpenseCategories lists the selectable expense categories in display order.
var ExpenseCategories = []string{
	CategoryHousing,
	CategoryFood,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryOthers,
}

// FilterCategories lists the category filter options in display order.
var FilterCategories = []string{
	CategoryAll,
	CategoryHousing,
	CategoryFood,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryOthers,
	CategoryIncome,
}

type (
	Money struct {
		Cents int64
	}

	// Transaction is a persisted income or expense record.
	Transaction struct {
		ID          int64
		Description string
		Category    string
		Amount      Money
		Date        string // YYYY-MM-DD, set at insert
		Time        string // HH:MM:SS, set at insert
	}

	// NewTransaction carries the fields of a row that has not been stored yet.
	NewTransaction struct {
		Description string
		Category    string
		Amount      Money
		Date        string
		Time        string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrMissingDateTime = errors.New("missing date or time")
)

// IsIncome reports whether category denotes an income record.
func IsIncome(category string) bool {
	return category == CategoryIncome
}

// IsIncome reports whether t is an income record.
func (t Transaction) IsIncome() bool {
	return IsIncome(t.Category)
}

// StampedAt builds a NewTransaction whose date and time come from at.
func StampedAt(description, category string, amount Money, at time.Time) NewTransaction {
	return NewTransaction{
		Description: description,
		Category:    category,
		Amount:      amount,
		Date:        at.Format(DateLayout),
		Time:        at.Format(TimeLayout),
	}
}

func (n NewTransaction) Validate() error {
	if strings.TrimSpace(n.Category) == "" {
		return ErrEmptyCategory
	}
	if err := n.Amount.Validate(); err != nil {
		return err
	}
	if n.Date == "" || n.Time == "" {
		return ErrMissingDateTime
	}
	return nil
}

// WithID returns the stored form of n.
func (n NewTransaction) WithID(id int64) Transaction {
	return Transaction{
		ID:          id,
		Description: n.Description,
		Category:    n.Category,
		Amount:      n.Amount,
		Date:        n.Date,
		Time:        n.Time,
	}
}

// Validate rejects zero and negative amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
