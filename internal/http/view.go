package http

import (
	"fintrack/internal/core"
	"fintrack/internal/services"
)

// pageData is what index.html and the dashboard partial render.
type pageData struct {
	State             services.ViewState
	Snapshot          string
	FilterCategories  []string
	ExpenseCategories []string
	RowCategories     []string
	DefaultCategory   string
	SheetsEnabled     bool
}

func (s *Server) newPageData(vs services.ViewState) (pageData, error) {
	snapshot, err := EncodeSnapshot(core.RowsOf(vs.Rows))
	if err != nil {
		return pageData{}, err
	}
	return pageData{
		State:             vs,
		Snapshot:          snapshot,
		FilterCategories:  core.FilterCategories,
		ExpenseCategories: core.ExpenseCategories,
		RowCategories:     append([]string{core.CategoryIncome}, core.ExpenseCategories...),
		DefaultCategory:   core.DefaultExpenseCategory,
		SheetsEnabled:     s.sheets != nil,
	}, nil
}
