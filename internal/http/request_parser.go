// Package http provides HTTP server and handler implementations.
//
// This file turns a dashboard form post into a controller event.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// Form field names shared with the dashboard template.
const (
	fieldTrigger            = "trigger"
	fieldFilterCategory     = "filter_category"
	fieldStartDate          = "start_date"
	fieldEndDate            = "end_date"
	fieldIncomeDescription  = "income_description"
	fieldIncomeAmount       = "income_amount"
	fieldExpenseDescription = "expense_description"
	fieldExpenseCategory    = "expense_category"
	fieldExpenseAmount      = "expense_amount"
	fieldRowID              = "row_id"
	fieldRowDescription     = "row_description"
	fieldRowCategory        = "row_category"
	fieldRowAmount          = "row_amount"
	fieldTablePrevious      = "table_previous"
)

var errMisalignedRows = errors.New("table row fields are misaligned")

// snapshotRow is the JSON form of a table row embedded in the page so the
// next post can be diffed against what was shown.
type snapshotRow struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
}

// EncodeSnapshot serializes rows for the table_previous field.
func EncodeSnapshot(rows []core.TableRow) (string, error) {
	out := make([]snapshotRow, len(rows))
	for i, r := range rows {
		out[i] = snapshotRow{ID: r.ID, Description: r.Description, Category: r.Category, Amount: r.Amount.String()}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeSnapshot parses a table_previous value. Empty input is an empty
// snapshot.
func DecodeSnapshot(s string) ([]core.TableRow, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var in []snapshotRow
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		return nil, fmt.Errorf("decode table snapshot: %w", err)
	}
	rows := make([]core.TableRow, len(in))
	for i, r := range in {
		amount, err := core.ParseAmount(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("decode table snapshot row %d: %w", r.ID, err)
		}
		rows[i] = core.TableRow{ID: r.ID, Description: r.Description, Category: r.Category, Amount: amount}
	}
	return rows, nil
}

// ParseEvent builds the controller event for a dashboard post. An absent or
// unknown trigger yields a refresh.
func ParseEvent(ctx context.Context, form url.Values) (services.Event, error) {
	ev := services.Event{Filter: parseFilter(ctx, form)}

	switch form.Get(fieldTrigger) {
	case "add-income":
		ev.Trigger = services.AddIncome{
			Description: sanitizeInput(form.Get(fieldIncomeDescription)),
			Amount:      strings.TrimSpace(form.Get(fieldIncomeAmount)),
		}
	case "add-expense":
		ev.Trigger = services.AddExpense{
			Description: sanitizeInput(form.Get(fieldExpenseDescription)),
			Category:    sanitizeInput(form.Get(fieldExpenseCategory)),
			Amount:      strings.TrimSpace(form.Get(fieldExpenseAmount)),
		}
	case "filter":
		ev.Trigger = services.FilterChanged{}
	case "clear-filters":
		ev.Trigger = services.ClearFilters{}
	case "table":
		prior, err := DecodeSnapshot(form.Get(fieldTablePrevious))
		if err != nil {
			return services.Event{}, err
		}
		current, err := parseTableRows(ctx, form, prior)
		if err != nil {
			return services.Event{}, err
		}
		ev.Trigger = services.TableEdited{Prior: prior, Current: current}
	}
	return ev, nil
}

func parseFilter(ctx context.Context, form url.Values) core.Filter {
	return core.Filter{
		Category:  sanitizeInput(form.Get(fieldFilterCategory)),
		StartDate: parseDateField(ctx, form, fieldStartDate),
		EndDate:   parseDateField(ctx, form, fieldEndDate),
	}
}

// parseDateField returns the value when it is a valid YYYY-MM-DD date and ""
// otherwise.
func parseDateField(ctx context.Context, form url.Values, name string) string {
	v := strings.TrimSpace(form.Get(name))
	if v == "" {
		return ""
	}
	if _, err := time.Parse(core.DateLayout, v); err != nil {
		slog.WarnContext(ctx, "Ignoring invalid date filter", "field", name, "value", v)
		return ""
	}
	return v
}

// parseTableRows reads the aligned row_* fields. A row whose amount does not
// parse keeps the amount it had in prior, so a typo never reads as a delete.
func parseTableRows(ctx context.Context, form url.Values, prior []core.TableRow) ([]core.TableRow, error) {
	ids := form[fieldRowID]
	descs := form[fieldRowDescription]
	cats := form[fieldRowCategory]
	amounts := form[fieldRowAmount]
	if len(descs) != len(ids) || len(cats) != len(ids) || len(amounts) != len(ids) {
		return nil, errMisalignedRows
	}

	priorByID := make(map[int64]core.TableRow, len(prior))
	for _, r := range prior {
		priorByID[r.ID] = r
	}

	rows := make([]core.TableRow, 0, len(ids))
	for i, rawID := range ids {
		id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid row id %q: %w", rawID, err)
		}
		row := core.TableRow{
			ID:          id,
			Description: sanitizeInput(descs[i]),
			Category:    sanitizeInput(cats[i]),
		}
		amount, err := core.ParseAmount(amounts[i])
		if err != nil {
			p, ok := priorByID[id]
			if !ok {
				return nil, fmt.Errorf("invalid amount %q for row %d: %w", amounts[i], id, err)
			}
			slog.WarnContext(ctx, "Keeping previous amount for unparseable edit",
				"transaction_id", id, "amount", amounts[i])
			amount = p.Amount
		}
		row.Amount = amount
		rows = append(rows, row)
	}
	return rows, nil
}
