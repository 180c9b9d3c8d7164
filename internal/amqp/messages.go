package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// EventType names the store mutation an event reports.
type EventType string

const (
	EventCreated EventType = "transaction.created"
	EventUpdated EventType = "transaction.updated"
	EventDeleted EventType = "transaction.deleted"
)

// TransactionEvent is published after a successful store mutation. Deleted
// events carry only the id.
type TransactionEvent struct {
	Type        EventType `json:"type"`
	ID          int64     `json:"id"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Date        string    `json:"date,omitempty"`
	Time        string    `json:"time,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewCreatedEvent describes a freshly inserted row.
func NewCreatedEvent(t core.Transaction) TransactionEvent {
	return TransactionEvent{
		Type:        EventCreated,
		ID:          t.ID,
		Description: t.Description,
		Category:    t.Category,
		AmountCents: t.Amount.Cents,
		Date:        t.Date,
		Time:        t.Time,
		Timestamp:   time.Now(),
	}
}

// NewUpdatedEvent describes the new mutable fields of row id.
func NewUpdatedEvent(id int64, description, category string, amount core.Money) TransactionEvent {
	return TransactionEvent{
		Type:        EventUpdated,
		ID:          id,
		Description: description,
		Category:    category,
		AmountCents: amount.Cents,
		Timestamp:   time.Now(),
	}
}

func NewDeletedEvent(id int64) TransactionEvent {
	return TransactionEvent{Type: EventDeleted, ID: id, Timestamp: time.Now()}
}

// ToJSON converts the event to JSON bytes
func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event body.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return TransactionEvent{}, err
	}
	return e, nil
}
