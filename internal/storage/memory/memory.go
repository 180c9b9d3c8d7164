// Package memory is a process-local transaction store used by the memory
// data backend and by tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/export"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Transaction
}

// New returns a store holding a copy of seed. Ids continue after the largest
// seeded id.
func New(seed ...core.Transaction) *Store {
	s := &Store{items: append([]core.Transaction(nil), seed...)}
	for _, t := range seed {
		if t.ID > s.nextID {
			s.nextID = t.ID
		}
	}
	return s
}

// NewFromFile seeds the store from a CSV export at path. A missing file
// yields an empty store.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	txs, err := export.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return New(txs...), nil
}

func (s *Store) Initialize(_ context.Context) error {
	return nil
}

// Insert stores n under a fresh id.
func (s *Store) Insert(_ context.Context, n core.NewTransaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.items = append(s.items, n.WithID(s.nextID))
	return s.nextID, nil
}

func (s *Store) Update(_ context.Context, id int64, description, category string, amount core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Description = description
			s.items[i].Category = category
			s.items[i].Amount = amount
			return nil
		}
	}
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// ListAll returns a copy of every row in insertion order.
func (s *Store) ListAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...), nil
}
