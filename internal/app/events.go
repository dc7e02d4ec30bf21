package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/botmarket/server/internal/infra/events"
	"github.com/botmarket/server/internal/port/outbound"
)

// eventBusPublisher adapts the event bus to outbound.EventPublisherPort.
type eventBusPublisher struct {
	bus *events.Bus
}

func newEventBusPublisher(bus *events.Bus) *eventBusPublisher {
	return &eventBusPublisher{bus: bus}
}

// Publish dispatches a domain event to every subscriber.
func (p *eventBusPublisher) Publish(ctx context.Context, event interface{}) error {
	e, ok := event.(events.Event)
	if !ok {
		return fmt.Errorf("unsupported event type %T", event)
	}
	return p.bus.Publish(ctx, e)
}

var _ outbound.EventPublisherPort = (*eventBusPublisher)(nil)

// registerEventHandlers registers all domain event handlers.
func registerEventHandlers(bus *events.Bus, log *zap.Logger) {
	// Audit trail of settled orders; provisioning subscribes the same way.
	bus.Register(events.NewHandlerFunc(
		[]string{events.OrderPaymentCompletedType, events.OrderPaymentFailedType},
		func(_ context.Context, e events.Event) error {
			fields := []zap.Field{
				zap.String("event_id", e.EventID().String()),
				zap.String("event_type", e.EventType()),
				zap.String("order_id", e.AggregateID()),
			}
			switch ev := e.(type) {
			case *events.OrderPaymentCompletedEvent:
				fields = append(fields,
					zap.String("provider", ev.Provider.String()),
					zap.Int64("amount_cents", ev.AmountCents),
					zap.Int("items", len(ev.ItemIDs)),
				)
			case *events.OrderPaymentFailedEvent:
				fields = append(fields,
					zap.String("provider", ev.Provider.String()),
					zap.String("canonical", ev.Canonical.String()),
				)
			}
			log.Info("order payment settled", fields...)
			return nil
		},
	))
}
