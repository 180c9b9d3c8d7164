package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// EventPublisher receives a change event after every successful mutation.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, e amqp.TransactionEvent) error
}

// TransactionService orchestrates store mutations and change events. It is
// itself a Store, so the controller can sit on top of it unchanged.
type TransactionService struct {
	store     Store
	publisher EventPublisher
}

// NewTransactionService wraps store. publisher may be nil, in which case no
// events are published.
func NewTransactionService(store Store, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

func (s *TransactionService) Initialize(ctx context.Context) error {
	return s.store.Initialize(ctx)
}

// Insert saves n and publishes a created event.
func (s *TransactionService) Insert(ctx context.Context, n core.NewTransaction) (int64, error) {
	// Store first; the event only ever describes committed state
	id, err := s.store.Insert(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.NewCreatedEvent(n.WithID(id)))
	return id, nil
}

func (s *TransactionService) Update(ctx context.Context, id int64, description, category string, amount core.Money) error {
	if err := s.store.Update(ctx, id, description, category, amount); err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}

	s.publish(ctx, amqp.NewUpdatedEvent(id, description, category, amount))
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	s.publish(ctx, amqp.NewDeletedEvent(id))
	return nil
}

func (s *TransactionService) ListAll(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListAll(ctx)
}

func (s *TransactionService) publish(ctx context.Context, e amqp.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, e); err != nil {
		// Don't fail the request - the row is already persisted
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"type", e.Type, "id", e.ID, "error", err)
	}
}

// Close closes the publisher when it holds a connection.
func (s *TransactionService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
