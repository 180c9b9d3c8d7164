package core

// TableRow is the editable projection of a Transaction shown in the records
// table. Date and time are not part of it because they never change.
type TableRow struct {
	ID          int64
	Description string
	Category    string
	Amount      Money
}

// TableDiff lists the store mutations implied by an edited table.
type TableDiff struct {
	DeletedIDs []int64
	Updated    []TableRow
}

// Empty reports whether the diff carries no mutation.
func (d TableDiff) Empty() bool {
	return len(d.DeletedIDs) == 0 && len(d.Updated) == 0
}

// RowsOf projects transactions onto table rows.
func RowsOf(txs []Transaction) []TableRow {
	rows := make([]TableRow, len(txs))
	for i, t := range txs {
		rows[i] = TableRow{ID: t.ID, Description: t.Description, Category: t.Category, Amount: t.Amount}
	}
	return rows
}

// DiffTable compares the snapshot shown before an edit with the one after it.
// Ids missing from current are deleted (in prior order); ids present in both
// whose mutable fields differ are updated with the current values (in current
// order). An empty prior snapshot yields an empty diff.
func DiffTable(prior, current []TableRow) TableDiff {
	var d TableDiff
	if len(prior) == 0 {
		return d
	}

	before := make(map[int64]TableRow, len(prior))
	for _, r := range prior {
		before[r.ID] = r
	}
	seen := make(map[int64]bool, len(current))
	for _, r := range current {
		seen[r.ID] = true
		p, ok := before[r.ID]
		if !ok {
			continue
		}
		if p.Description != r.Description || p.Category != r.Category || p.Amount != r.Amount {
			d.Updated = append(d.Updated, r)
		}
	}
	for _, r := range prior {
		if !seen[r.ID] {
			d.DeletedIDs = append(d.DeletedIDs, r.ID)
		}
	}
	return d
}
