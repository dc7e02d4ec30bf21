package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/outbound"
)

// orderAdapter implements outbound.OrderRepositoryPort.
type orderAdapter struct {
	db *gorm.DB
}

// NewOrderAdapter creates a new order repository adapter.
func NewOrderAdapter(db *gorm.DB) outbound.OrderRepositoryPort {
	return &orderAdapter{db: db}
}

func (a *orderAdapter) GetOrders(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := a.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (a *orderAdapter) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := a.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// UpdateOrder writes every field of the update in a single statement.
func (a *orderAdapter) UpdateOrder(ctx context.Context, id string, update model.OrderUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	return a.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(update.Fields()).Error
}

// Compile-time check
var _ outbound.OrderRepositoryPort = (*orderAdapter)(nil)
