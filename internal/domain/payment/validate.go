package payment

import (
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/botmarket/server/internal/model"
)

var validate = validator.New()

// ValidateCreatePayment checks a checkout request before any network call.
// Every error it returns matches ErrValidation.
func ValidateCreatePayment(req *model.CreatePaymentRequest) error {
	if req == nil {
		return invalid(ErrInvalidAmount)
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return invalid(ErrInvalidAmount)
	}
	// Amounts below one minor unit round to zero at the provider.
	if AmountCents(req.Amount) <= 0 {
		return invalid(ErrInvalidAmount)
	}
	if err := validate.Var(strings.TrimSpace(req.Customer.Email), "required,email"); err != nil {
		return invalid(ErrInvalidEmail)
	}
	for _, id := range req.ItemIDs {
		if id <= 0 {
			return invalid(ErrInvalidLineItem)
		}
	}
	return nil
}

// AmountCents converts a decimal amount to integer minor units.
func AmountCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
