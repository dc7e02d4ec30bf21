package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the interface that all domain events must implement.
type Event interface {
	// EventID returns the unique identifier for this event instance.
	EventID() uuid.UUID

	// EventType returns the type name of the event (e.g., "OrderPaymentCompleted").
	EventType() string

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the order that produced this event.
	AggregateID() string
}

// BaseEvent carries the fields shared by every event.
// Embed it in concrete events.
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	OrderRef  string    `json:"aggregate_id"`
}

func (e BaseEvent) EventID() uuid.UUID {
	return e.ID
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e BaseEvent) AggregateID() string {
	return e.OrderRef
}

// NewBaseEvent creates a BaseEvent stamped with a fresh id and the current time.
func NewBaseEvent(eventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		OrderRef:  aggregateID,
	}
}
