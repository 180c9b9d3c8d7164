package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// busyTimeoutMs lets a statement wait for a competing writer from another
// browser session instead of failing with SQLITE_BUSY.
const busyTimeoutMs = 5000

// SQLiteStore persists transactions in a single SQLite table. It holds no
// connection between calls: every operation opens the database, runs one
// statement and closes it again.
type SQLiteStore struct {
	dbPath string
	dsn    string
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	return &SQLiteStore{
		dbPath: dbPath,
		dsn:    fmt.Sprintf("%s?_pragma=busy_timeout(%d)", dbPath, busyTimeoutMs),
	}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Initialize creates the transactions table if it does not exist yet.
// Safe to call on every process start.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	if err := RunMigrations(s.dsn); err != nil {
		return fmt.Errorf("initialize sqlite store: %w", err)
	}
	slog.DebugContext(ctx, "SQLite schema ready", "path", s.dbPath)
	return nil
}

// withConn opens a single-connection handle for the duration of fn.
func (s *SQLiteStore) withConn(ctx context.Context, fn func(db *sql.DB) error) error {
	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return fn(db)
}

// Insert appends a row and returns its generated id.
func (s *SQLiteStore) Insert(ctx context.Context, n core.NewTransaction) (int64, error) {
	var id int64
	err := s.withConn(ctx, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`INSERT INTO transactions (description, category, amount, date, time) VALUES (?, ?, ?, ?, ?)`,
			n.Description, n.Category, n.Amount.Float64(), n.Date, n.Time)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"description", n.Description,
		"category", n.Category,
		"amount_cents", n.Amount.Cents,
		"date", n.Date)

	return id, nil
}

// Update overwrites description, category and amount of row id. A missing id
// is not an error.
func (s *SQLiteStore) Update(ctx context.Context, id int64, description, category string, amount core.Money) error {
	var affected int64
	err := s.withConn(ctx, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`UPDATE transactions SET description = ?, category = ?, amount = ? WHERE id = ?`,
			description, category, amount.Float64(), id)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id, "category", category, "amount_cents", amount.Cents, "rows", affected)
	return nil
}

// Delete removes row id. A missing id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	var affected int64
	err := s.withConn(ctx, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "rows", affected)
	return nil
}

// ListAll returns every row in id order.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]core.Transaction, error) {
	var out []core.Transaction
	err := s.withConn(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT id,
			       COALESCE(description, ''),
			       COALESCE(category, ''),
			       COALESCE(amount, 0),
			       COALESCE(date, ''),
			       COALESCE(time, '')
			FROM transactions
			ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				t      core.Transaction
				amount float64
			)
			if err := rows.Scan(&t.ID, &t.Description, &t.Category, &amount, &t.Date, &t.Time); err != nil {
				return err
			}
			t.Amount = core.MoneyFromFloat(amount)
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}
