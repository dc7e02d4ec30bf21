package gin

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/botmarket/server/internal/domain/payment"
	apperrors "github.com/botmarket/server/internal/utils/errors"
	"github.com/botmarket/server/internal/utils/logger"
)

// respondError writes the error body and aborts the request.
func respondError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.StatusCode, err.ToResponse())
}

// handlePaymentError maps payment domain errors to HTTP responses.
func handlePaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payment.ErrOrderNotFound):
		respondError(c, apperrors.NotFound("order"))
	case errors.Is(err, payment.ErrOrderNotPending):
		appErr := apperrors.Conflict("order is not pending")
		appErr.Code = "ORDER_NOT_PENDING"
		respondError(c, appErr)
	case errors.Is(err, payment.ErrProviderNotConfigured):
		appErr := apperrors.ServiceUnavailable(err.Error())
		appErr.Code = "PROVIDER_NOT_CONFIGURED"
		respondError(c, appErr)
	case payment.IsValidation(err):
		respondError(c, apperrors.ValidationError(err.Error()))
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", logger.Err(err))
		respondError(c, apperrors.Internal("internal server error", err))
	}
}
