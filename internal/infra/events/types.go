package events

import "github.com/botmarket/server/internal/model"

// Order payment event type constants.
const (
	OrderPaymentCompletedType = "OrderPaymentCompleted"
	OrderPaymentFailedType    = "OrderPaymentFailed"
)

// OrderPaymentCompletedEvent is emitted when reconciliation marks an order completed.
type OrderPaymentCompletedEvent struct {
	BaseEvent

	OrderID         string                `json:"order_id"`
	CustomerEmail   string                `json:"customer_email"`
	Provider        model.PaymentProvider `json:"provider"`
	RemoteReference string                `json:"remote_reference,omitempty"`
	AmountCents     int64                 `json:"amount_cents"`
	Currency        string                `json:"currency"`
	ItemIDs         []int64               `json:"item_ids,omitempty"`
}

// NewOrderPaymentCompletedEvent creates an OrderPaymentCompletedEvent from the settled order.
func NewOrderPaymentCompletedEvent(order *model.Order) *OrderPaymentCompletedEvent {
	return &OrderPaymentCompletedEvent{
		BaseEvent:       NewBaseEvent(OrderPaymentCompletedType, order.ID),
		OrderID:         order.ID,
		CustomerEmail:   order.CustomerEmail,
		Provider:        order.PaymentProvider,
		RemoteReference: order.RemoteReference,
		AmountCents:     order.AmountCents,
		Currency:        order.Currency,
		ItemIDs:         append([]int64(nil), order.ItemIDs...),
	}
}

// OrderPaymentFailedEvent is emitted when reconciliation marks an order failed.
type OrderPaymentFailedEvent struct {
	BaseEvent

	OrderID         string                `json:"order_id"`
	CustomerEmail   string                `json:"customer_email"`
	Provider        model.PaymentProvider `json:"provider"`
	RemoteReference string                `json:"remote_reference,omitempty"`

	// Canonical is the provider outcome that failed the order
	// (rejected, cancelled or refunded).
	Canonical model.CanonicalStatus `json:"canonical"`
}

// NewOrderPaymentFailedEvent creates an OrderPaymentFailedEvent from the failed order.
func NewOrderPaymentFailedEvent(order *model.Order, canonical model.CanonicalStatus) *OrderPaymentFailedEvent {
	return &OrderPaymentFailedEvent{
		BaseEvent:       NewBaseEvent(OrderPaymentFailedType, order.ID),
		OrderID:         order.ID,
		CustomerEmail:   order.CustomerEmail,
		Provider:        order.PaymentProvider,
		RemoteReference: order.RemoteReference,
		Canonical:       canonical,
	}
}
