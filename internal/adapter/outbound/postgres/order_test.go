package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/botmarket/server/internal/model"
)

func TestOrderAdapter_EmptyUpdateIsNoOp(t *testing.T) {
	// A nil db would panic if the adapter issued a statement.
	adapter := &orderAdapter{}

	assert.NotPanics(t, func() {
		assert.NoError(t, adapter.UpdateOrder(context.Background(), "ord_1", model.OrderUpdate{}))
	})
}
