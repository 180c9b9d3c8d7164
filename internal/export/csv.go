// Package export serializes the full transaction table.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"fintrack/internal/core"
)

// Filename is the attachment name offered for downloads.
const Filename = "transactions.csv"

// Header is the column order of every export.
var Header = []string{"id", "description", "category", "amount", "date", "time"}

// Records converts transactions to string records, without the header.
func Records(txs []core.Transaction) [][]string {
	out := make([][]string, len(txs))
	for i, t := range txs {
		out[i] = []string{
			strconv.FormatInt(t.ID, 10),
			t.Description,
			t.Category,
			t.Amount.String(),
			t.Date,
			t.Time,
		}
	}
	return out
}

// WriteCSV writes the header followed by one line per transaction.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(Records(txs)); err != nil {
		return fmt.Errorf("write csv records: %w", err)
	}
	return nil
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, col := range Header {
		if head[i] != col {
			return nil, fmt.Errorf("unexpected csv column %d: %q, want %q", i+1, head[i], col)
		}
	}

	var out []core.Transaction
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: invalid id %q", line, rec[0])
		}
		amount, err := core.ParseAmount(rec[3])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, core.Transaction{
			ID:          id,
			Description: rec[1],
			Category:    rec[2],
			Amount:      amount,
			Date:        rec[4],
			Time:        rec[5],
		})
	}
	return out, nil
}
