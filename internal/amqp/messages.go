package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// EventType names a change applied to the store.
type EventType string

const (
	OperationCreated EventType = "operation.created"
	OperationUpdated EventType = "operation.updated"
	OperationDeleted EventType = "operation.deleted"
	CategoryCreated  EventType = "category.created"
	CategoryDeleted  EventType = "category.deleted"
)

func (t EventType) Valid() bool {
	switch t {
	case OperationCreated, OperationUpdated, OperationDeleted, CategoryCreated, CategoryDeleted:
		return true
	}
	return false
}

// ChangeEvent describes a committed mutation. Operation events carry the
// operation fields; category events carry only Kind, ID and Name.
type ChangeEvent struct {
	Type        EventType `json:"type"`
	Kind        core.Kind `json:"kind"`
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Category    string    `json:"category,omitempty"`
	Date        string    `json:"date,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewOperationEvent builds an operation event stamped with the current time.
func NewOperationEvent(t EventType, op core.Operation) *ChangeEvent {
	ev := &ChangeEvent{
		Type:        t,
		Kind:        op.Kind,
		ID:          op.ID,
		Name:        op.Name,
		AmountCents: op.Amount.Cents,
		Category:    op.Category,
		Timestamp:   time.Now().UTC(),
	}
	if !op.Date.IsZero() {
		ev.Date = op.Date.ISO()
	}
	return ev
}

func NewCategoryEvent(t EventType, c core.Category) *ChangeEvent {
	return &ChangeEvent{
		Type:      t,
		Kind:      c.Kind,
		ID:        c.ID,
		Name:      c.Name,
		Timestamp: time.Now().UTC(),
	}
}

func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON decodes and validates an event body.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if err := ev.Kind.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}
