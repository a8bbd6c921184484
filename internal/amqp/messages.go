package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"secondbrain/internal/core"
)

// EventType names a committed ledger mutation.
type EventType string

const (
	EventTransactionRecorded EventType = "transaction.recorded"
	EventTransactionUpdated  EventType = "transaction.updated"
	EventTransactionDeleted  EventType = "transaction.deleted"
	EventAccountDeleted      EventType = "account.deleted"
	EventBudgetDeleted       EventType = "budget.deleted"
)

// LedgerEvent is published after a ledger mutation has been persisted.
// Transaction carries the full row for recorded/updated events and the
// removed row for deleted events so consumers never read back the store.
type LedgerEvent struct {
	Type        EventType         `json:"type"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	AccountID   string            `json:"accountId,omitempty"`
	BudgetID    string            `json:"budgetId,omitempty"`
	// ReassignedTo is set on account.deleted when transactions moved.
	ReassignedTo string    `json:"reassignedTo,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event for a single transaction.
func NewTransactionEvent(t EventType, tx core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		Type:        t,
		Transaction: &tx,
		AccountID:   tx.AccountID,
		BudgetID:    tx.LinkedBudgetID,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate checks that transaction events carry their transaction.
func (m *LedgerEvent) Validate() error {
	switch m.Type {
	case EventTransactionRecorded, EventTransactionUpdated, EventTransactionDeleted:
		if m.Transaction == nil || m.Transaction.ID == "" {
			return fmt.Errorf("%s event without transaction", m.Type)
		}
	case EventAccountDeleted:
		if m.AccountID == "" {
			return fmt.Errorf("%s event without account id", m.Type)
		}
	case EventBudgetDeleted:
		if m.BudgetID == "" {
			return fmt.Errorf("%s event without budget id", m.Type)
		}
	default:
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	return nil
}

// LedgerEventFromJSON creates a message from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
