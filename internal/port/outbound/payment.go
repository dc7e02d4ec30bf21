package outbound

import (
	"context"

	"github.com/botmarket/server/internal/model"
)

// GatewayPort is a client for one external payment provider.
// Implementations never return errors from CreatePayment or GetStatus;
// failures are reported inside the result values.
type GatewayPort interface {
	// Provider returns the provider this client talks to.
	Provider() model.PaymentProvider

	// CreatePayment validates the request and creates a checkout for the order.
	CreatePayment(ctx context.Context, order *model.Order, req *model.CreatePaymentRequest) *model.CreatePaymentResult

	// GetStatus resolves the order's payment record and normalizes its status.
	GetStatus(ctx context.Context, order *model.Order) *model.StatusLookup

	// Probe checks that the provider is reachable. It is advisory only.
	Probe(ctx context.Context) error

	// WithCredential returns a copy of the client authenticating with token.
	WithCredential(token string) GatewayPort
}

// GatewayRegistryPort looks up gateway clients by provider.
type GatewayRegistryPort interface {
	// Get returns the client for a provider.
	Get(provider model.PaymentProvider) (GatewayPort, error)

	// Has returns true if a client is registered for the provider.
	Has(provider model.PaymentProvider) bool

	// List returns every registered client.
	List() []GatewayPort
}
