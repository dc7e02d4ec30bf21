package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Bus is a synchronous in-process event bus.
// Subscribers run in registration order on the publisher's goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	logger      *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]Handler),
		logger:      logger,
	}
}

// Register subscribes handler to every event type it handles.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range handler.Handles() {
		b.subscribers[eventType] = append(b.subscribers[eventType], handler)
	}
}

// Publish delivers event to its subscribers. Every subscriber is called even
// when an earlier one fails or panics; the failures are joined into the result.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := b.subscribers[event.EventType()]
	b.mu.RUnlock()

	log := b.logger.With(
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("order_id", event.AggregateID()),
	)
	if len(subs) == 0 {
		log.Debug("event has no subscribers")
		return nil
	}

	var errs []error
	for i, sub := range subs {
		if err := deliver(ctx, sub, event); err != nil {
			log.Error("event subscriber failed", zap.Int("subscriber", i), zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %d of %d subscribers failed: %w", event.EventType(), len(errs), len(subs), errors.Join(errs...))
	}
	return nil
}

func deliver(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return h.Handle(ctx, event)
}
