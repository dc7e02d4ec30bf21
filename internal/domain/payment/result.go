package payment

import (
	"errors"

	"github.com/botmarket/server/internal/model"
)

// Error codes carried by a failed CreatePaymentResult.
const (
	CodeValidation         = "validation_error"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnavailable        = "provider_unavailable"
	CodeRejected           = "provider_rejected"
)

// FailureResult converts a taxonomy error into a failed checkout result
// with an actionable message.
func FailureResult(err error) *model.CreatePaymentResult {
	res := &model.CreatePaymentResult{Success: false, Error: err.Error()}
	switch {
	case errors.Is(err, ErrValidation):
		res.ErrorCode = CodeValidation
	case errors.Is(err, ErrInvalidCredentials):
		res.ErrorCode = CodeInvalidCredentials
		res.Error = ErrInvalidCredentials.Error()
	case errors.Is(err, ErrProviderUnavailable):
		res.ErrorCode = CodeUnavailable
	default:
		res.ErrorCode = CodeRejected
	}
	return res
}

// LookupFromError converts a taxonomy error into a pending status lookup.
func LookupFromError(err error) *model.StatusLookup {
	l := &model.StatusLookup{Status: model.CanonicalPending, Err: err}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		l.Outcome = model.LookupInvalidCredentials
	case errors.Is(err, ErrNotFound):
		l.Outcome = model.LookupNotFound
	default:
		l.Outcome = model.LookupUnavailable
	}
	return l
}
