package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/botmarket/server/internal/domain/payment"
	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/inbound"
	apperrors "github.com/botmarket/server/internal/utils/errors"
)

// paymentAdapter implements inbound.PaymentHttpPort.
type paymentAdapter struct {
	domain payment.PaymentDomain
}

// NewPaymentAdapter creates a new payment HTTP adapter.
func NewPaymentAdapter(domain payment.PaymentDomain) inbound.PaymentHttpPort {
	return &paymentAdapter{domain: domain}
}

// RegisterPaymentRoutes registers payment routes. Guards run before every route.
func RegisterPaymentRoutes(r *gin.RouterGroup, adapter inbound.PaymentHttpPort, idempotency gin.HandlerFunc, guards ...gin.HandlerFunc) {
	payments := r.Group("/payments", guards...)
	{
		payments.POST("", idempotency, adapter.CreatePayment)
		payments.GET("/:order_id/status", adapter.GetPaymentStatus)
	}
}

func (a *paymentAdapter) CreatePayment(c *gin.Context) {
	var req model.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	result, err := a.domain.CreatePayment(c.Request.Context(), &req)
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(createPaymentStatus(result), result)
}

func (a *paymentAdapter) GetPaymentStatus(c *gin.Context) {
	status, err := a.domain.GetStatus(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// createPaymentStatus picks the HTTP status for a checkout result.
func createPaymentStatus(result *model.CreatePaymentResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.ErrorCode {
	case payment.CodeValidation:
		return http.StatusUnprocessableEntity
	case payment.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
