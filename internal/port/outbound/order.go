package outbound

import (
	"context"

	"github.com/botmarket/server/internal/model"
)

// OrderRepositoryPort is the external order store the engine reads and writes.
type OrderRepositoryPort interface {
	// GetOrders returns every order known to the store.
	GetOrders(ctx context.Context) ([]*model.Order, error)

	// GetOrder returns an order by ID, or nil if it does not exist.
	GetOrder(ctx context.Context, id string) (*model.Order, error)

	// UpdateOrder applies a partial update to an order in one atomic write.
	UpdateOrder(ctx context.Context, id string, update model.OrderUpdate) error
}
