package inbound

import "github.com/gin-gonic/gin"

// PaymentHttpPort defines HTTP handler interface for checkout operations.
type PaymentHttpPort interface {
	// CreatePayment handles POST /payments
	// Creates a provider checkout for a pending order.
	CreatePayment(c *gin.Context)

	// GetPaymentStatus handles GET /payments/:order_id/status
	// Queries the order's provider without writing anything.
	GetPaymentStatus(c *gin.Context)
}
