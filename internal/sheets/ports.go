package sheets

import "context"

// Ports for outbound adapters.
type (
	// RecordsWriter replaces the whole content of a remote sheet with rows.
	// The first row is the header.
	RecordsWriter interface {
		ReplaceRecords(ctx context.Context, rows [][]string) error
	}
)
