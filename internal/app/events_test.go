package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/botmarket/server/internal/infra/events"
	"github.com/botmarket/server/internal/model"
)

func TestEventBusPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	bus := ProvideEventBus(zap.New(core))
	publisher := newEventBusPublisher(bus)

	order := &model.Order{
		ID:              "ord_1",
		PaymentProvider: model.ProviderPixOnlyB,
		AmountCents:     4990,
		ItemIDs:         []int64{7, 8},
	}
	require.NoError(t, publisher.Publish(context.Background(), events.NewOrderPaymentCompletedEvent(order)))

	entries := logs.FilterMessage("order payment settled").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "ord_1", fields["order_id"])
	assert.Equal(t, events.OrderPaymentCompletedType, fields["event_type"])
	assert.Equal(t, int64(4990), fields["amount_cents"])
}

func TestEventBusPublisher_RejectsForeignEvents(t *testing.T) {
	publisher := newEventBusPublisher(events.NewBus(zap.NewNop()))

	err := publisher.Publish(context.Background(), "not an event")

	assert.ErrorContains(t, err, "unsupported event type string")
}
