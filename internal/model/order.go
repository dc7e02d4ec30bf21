package model

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// OrderStatus represents the local, coarse-grained status of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
)

// String returns the string representation of the status.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if the status is a terminal state.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed
}

// CanTransitionTo checks if a transition from the current status to target is valid.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	allowed := orderTransitions[s]
	for _, a := range allowed {
		if a == target {
			return true
		}
	}
	return false
}

// orderTransitions defines valid state transitions.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusCompleted, OrderStatusFailed},
	OrderStatusCompleted: {}, // Terminal state
	OrderStatusFailed:    {}, // Terminal state
}

// PaymentProvider identifies the external gateway an order was placed with.
type PaymentProvider string

const (
	ProviderAggregatorA PaymentProvider = "aggregator_a"
	ProviderPixOnlyB    PaymentProvider = "pix_only_b"
	ProviderCardGeneric PaymentProvider = "card_generic"
)

// String returns the string representation of the provider.
func (p PaymentProvider) String() string {
	return string(p)
}

// IsValid checks if the provider is one of the supported gateways.
func (p PaymentProvider) IsValid() bool {
	switch p {
	case ProviderAggregatorA, ProviderPixOnlyB, ProviderCardGeneric:
		return true
	}
	return false
}

// SupportsPix reports whether the provider can return a PIX payload.
func (p PaymentProvider) SupportsPix() bool {
	return p == ProviderAggregatorA || p == ProviderPixOnlyB
}

// Order is the storefront order as persisted by the order repository.
type Order struct {
	ID              string          `gorm:"primaryKey" json:"id"`
	CustomerEmail   string          `gorm:"index" json:"customer_email"`
	PaymentProvider PaymentProvider `gorm:"not null" json:"payment_provider"`
	RemoteReference string          `gorm:"index" json:"remote_reference,omitempty"`
	Status          OrderStatus     `gorm:"not null;default:pending;index" json:"status"`
	AmountCents     int64           `json:"amount_cents"`
	Currency        string          `gorm:"default:brl" json:"currency"`
	ItemIDs         pq.Int64Array   `gorm:"type:bigint[]" json:"item_ids"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName returns the database table name.
func (Order) TableName() string {
	return "orders"
}

// IsPending returns true if the order is still awaiting payment.
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// HasLookupKey returns true if the order carries anything a gateway can be queried by.
func (o *Order) HasLookupKey() bool {
	return strings.TrimSpace(o.RemoteReference) != "" || strings.TrimSpace(o.CustomerEmail) != ""
}

// OrderUpdate is a partial update applied to an order in one write.
type OrderUpdate struct {
	Status          *OrderStatus
	RemoteReference *string
}

// IsEmpty returns true if the update carries no fields.
func (u OrderUpdate) IsEmpty() bool {
	return u.Status == nil && u.RemoteReference == nil
}

// Fields returns the column map for the update.
func (u OrderUpdate) Fields() map[string]any {
	fields := make(map[string]any, 2)
	if u.Status != nil {
		fields["status"] = *u.Status
	}
	if u.RemoteReference != nil {
		fields["remote_reference"] = *u.RemoteReference
	}
	return fields
}

// Apply copies the update onto an in-memory order.
func (u OrderUpdate) Apply(o *Order) {
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.RemoteReference != nil {
		o.RemoteReference = *u.RemoteReference
	}
}
