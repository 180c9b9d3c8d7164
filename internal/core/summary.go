package core

import "sort"

// Filter is the dashboard filter state. Empty values mean "no constraint";
// Category also accepts the CategoryAll sentinel.
type Filter struct {
	Category  string
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, inclusive
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name    string
	Amount  Money
	Percent int // share of the expense total, rounded
}

// View is the derived dashboard state for one filter.
type View struct {
	Rows          []Transaction
	TotalIncome   Money
	TotalExpenses Money
	Balance       Money
	Breakdown     []CategoryAmount
}

// Normalized returns f with an empty category replaced by CategoryAll.
func (f Filter) Normalized() Filter {
	if f.Category == "" {
		f.Category = CategoryAll
	}
	return f
}

// Match reports whether t passes the category and date constraints of f.
func (f Filter) Match(t Transaction) bool {
	if f.Category != "" && f.Category != CategoryAll && t.Category != f.Category {
		return false
	}
	if f.StartDate != "" && t.Date < f.StartDate {
		return false
	}
	if f.EndDate != "" && t.Date > f.EndDate {
		return false
	}
	return true
}

// Derive filters all by f and computes totals and the expense breakdown over
// the filtered rows. all is not modified.
func Derive(all []Transaction, f Filter) View {
	v := View{Rows: make([]Transaction, 0, len(all))}
	sums := make(map[string]Money)

	for _, t := range all {
		if !f.Match(t) {
			continue
		}
		v.Rows = append(v.Rows, t)
		if t.IsIncome() {
			v.TotalIncome = v.TotalIncome.Add(t.Amount)
			continue
		}
		v.TotalExpenses = v.TotalExpenses.Add(t.Amount)
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}
	v.Balance = v.TotalIncome.Sub(v.TotalExpenses)

	v.Breakdown = make([]CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		v.Breakdown = append(v.Breakdown, CategoryAmount{
			Name:    name,
			Amount:  amount,
			Percent: percentOf(amount.Cents, v.TotalExpenses.Cents),
		})
	}
	sort.Slice(v.Breakdown, func(i, j int) bool {
		return v.Breakdown[i].Name < v.Breakdown[j].Name
	})
	return v
}

// percentOf returns part/total as a rounded percentage.
func percentOf(part, total int64) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	return int((part*100 + total/2) / total)
}
