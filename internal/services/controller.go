// Package services hosts the reactive controller that turns one UI trigger
// into at most one kind of store mutation followed by a full re-derivation.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Store is the record store contract the controller depends on.
type Store interface {
	Initialize(ctx context.Context) error
	Insert(ctx context.Context, n core.NewTransaction) (int64, error)
	Update(ctx context.Context, id int64, description, category string, amount core.Money) error
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]core.Transaction, error)
}

// Trigger is one UI mutation. The set of implementations is closed.
type Trigger interface {
	triggerName() string
}

type (
	// AddIncome inserts an Income row when Amount parses to a positive value.
	AddIncome struct {
		Description string
		Amount      string
	}

	// AddExpense inserts an expense row when Amount parses to a positive value.
	AddExpense struct {
		Description string
		Category    string
		Amount      string
	}

	// FilterChanged recomputes the view for the event filter without mutating.
	FilterChanged struct{}

	// TableEdited carries the table snapshot before and after an inline edit.
	TableEdited struct {
		Prior   []core.TableRow
		Current []core.TableRow
	}

	// ClearFilters resets the filter before recomputing.
	ClearFilters struct{}
)

func (AddIncome) triggerName() string     { return "add-income" }
func (AddExpense) triggerName() string    { return "add-expense" }
func (FilterChanged) triggerName() string { return "filter" }
func (TableEdited) triggerName() string   { return "table" }
func (ClearFilters) triggerName() string  { return "clear-filters" }

// TriggerName returns the wire name of t, or "refresh" for nil.
func TriggerName(t Trigger) string {
	if t == nil {
		return "refresh"
	}
	return t.triggerName()
}

// Event is a single controller invocation: the trigger plus the filter state
// the UI holds at that moment.
type Event struct {
	Trigger Trigger
	Filter  core.Filter
}

// Inputs holds the transient entry fields. Every ViewState carries them empty.
type Inputs struct {
	IncomeDescription  string
	IncomeAmount       string
	ExpenseDescription string
	ExpenseCategory    string
	ExpenseAmount      string
}

// ViewState is everything the dashboard renders after one invocation.
type ViewState struct {
	Rows          []core.Transaction
	TotalIncome   string
	TotalExpenses string
	Balance       string
	Breakdown     []core.CategoryAmount
	Filter        core.Filter
	Inputs        Inputs
}

type Controller struct {
	store Store
	now   func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now as the source of insert timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(store Store, opts ...Option) *Controller {
	c := &Controller{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle applies the mutation implied by ev.Trigger, if any, then re-reads
// the whole store and derives the view for the resulting filter.
func (c *Controller) Handle(ctx context.Context, ev Event) (ViewState, error) {
	filter := ev.Filter.Normalized()

	switch t := ev.Trigger.(type) {
	case ClearFilters:
		filter = core.Filter{Category: core.CategoryAll}
	case AddIncome:
		if err := c.add(ctx, t.Description, core.DefaultIncomeDescription, core.CategoryIncome, t.Amount); err != nil {
			return ViewState{}, err
		}
	case AddExpense:
		category := t.Category
		if strings.TrimSpace(category) == "" {
			category = core.DefaultExpenseCategory
		}
		if err := c.add(ctx, t.Description, core.DefaultExpenseDescription, category, t.Amount); err != nil {
			return ViewState{}, err
		}
	case TableEdited:
		if err := c.applyTable(ctx, t); err != nil {
			return ViewState{}, err
		}
	}

	all, err := c.store.ListAll(ctx)
	if err != nil {
		return ViewState{}, fmt.Errorf("list transactions: %w", err)
	}
	return viewStateOf(core.Derive(all, filter), filter), nil
}

func (c *Controller) add(ctx context.Context, description, defaultDescription, category, rawAmount string) error {
	amount, err := core.ParseDecimalToCents(rawAmount)
	if err != nil {
		slog.DebugContext(ctx, "Skipping add without a positive amount",
			"category", category, "amount", rawAmount)
		return nil
	}
	if strings.TrimSpace(description) == "" {
		description = defaultDescription
	}

	n := core.StampedAt(description, category, core.Money{Cents: amount}, c.now())
	if err := n.Validate(); err != nil {
		return err
	}
	if _, err := c.store.Insert(ctx, n); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (c *Controller) applyTable(ctx context.Context, t TableEdited) error {
	diff := core.DiffTable(t.Prior, t.Current)
	for _, id := range diff.DeletedIDs {
		if err := c.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
	}
	for _, r := range diff.Updated {
		if err := c.store.Update(ctx, r.ID, r.Description, r.Category, r.Amount); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
	}
	if !diff.Empty() {
		slog.DebugContext(ctx, "Applied table edit",
			"deleted", len(diff.DeletedIDs), "updated", len(diff.Updated))
	}
	return nil
}

func viewStateOf(v core.View, f core.Filter) ViewState {
	return ViewState{
		Rows:          v.Rows,
		TotalIncome:   v.TotalIncome.String(),
		TotalExpenses: v.TotalExpenses.String(),
		Balance:       v.Balance.String(),
		Breakdown:     v.Breakdown,
		Filter:        f,
	}
}
