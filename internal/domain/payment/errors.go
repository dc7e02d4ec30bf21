package payment

import "errors"

var (
	// ErrInvalidCredentials is returned when a provider rejects the access
	// credential with 401 or 403.
	ErrInvalidCredentials = errors.New("payment provider credentials invalid")

	// ErrProviderUnavailable is returned on network failures, unexpected
	// HTTP errors, malformed bodies and open circuit breakers.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrNotFound is returned when no endpoint candidate or matcher hit
	// produced a record.
	ErrNotFound = errors.New("payment record not found")

	// ErrValidation is the parent of every createPayment input error.
	ErrValidation = errors.New("invalid payment request")

	// ErrInvalidAmount is returned when the amount is not a positive finite number.
	ErrInvalidAmount = errors.New("invalid amount: must be a positive finite number")

	// ErrInvalidEmail is returned when the customer email is malformed.
	ErrInvalidEmail = errors.New("invalid customer email")

	// ErrInvalidLineItem is returned when a cart reference is not a positive integer.
	ErrInvalidLineItem = errors.New("invalid cart item reference: must be a positive integer")

	// ErrProviderRejected is returned when the provider refused to create a checkout.
	ErrProviderRejected = errors.New("payment provider rejected the request")

	// ErrOrderNotFound is returned when the order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotPending is returned when a checkout is requested for a settled order.
	ErrOrderNotPending = errors.New("order is not pending")

	// ErrProviderNotConfigured is returned when no gateway is registered for a provider.
	ErrProviderNotConfigured = errors.New("payment provider not configured")
)

// IsValidation reports whether err is a createPayment input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// validationError joins a specific input error under ErrValidation.
type validationError struct {
	err error
}

func (e *validationError) Error() string {
	return e.err.Error()
}

func (e *validationError) Unwrap() []error {
	return []error{ErrValidation, e.err}
}

func invalid(err error) error {
	return &validationError{err: err}
}
