package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expensetracker/internal/core"
)

// Action names the change a TransactionEvent reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

func (a Action) IsValid() bool {
	return a == ActionCreated || a == ActionUpdated || a == ActionDeleted
}

// EventType is the AMQP message type header, e.g. transaction.created.
func (a Action) EventType() string {
	return "transaction." + string(a)
}

// TransactionEvent reports one change to a stored transaction. Deleted
// events carry only the ID.
type TransactionEvent struct {
	Action      Action            `json:"action"`
	ID          string            `json:"id"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewTransactionEvent builds an event for t. The snapshot is dropped for
// deletions.
func NewTransactionEvent(action Action, t core.Transaction) *TransactionEvent {
	ev := &TransactionEvent{
		Action:    action,
		ID:        t.ID,
		Timestamp: time.Now().UTC(),
	}
	if action != ActionDeleted {
		snapshot := t
		ev.Transaction = &snapshot
	}
	return ev
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and sanity-checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.ID == "" {
		return nil, fmt.Errorf("event has no transaction id")
	}
	return &ev, nil
}
