package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botmarket/server/internal/domain/payment"
	"github.com/botmarket/server/internal/model"
)

func TestStripeClient(t *testing.T) {
	t.Run("Creates a checkout session", func(t *testing.T) {
		srv, h := newProvider(t, map[string]http.HandlerFunc{
			"POST /v1/checkout/sessions": reply(http.StatusOK, `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.example/cs_test_1"}`),
		})
		c := NewStripeCard(Config{BaseURL: srv.URL, Token: "sk_test_1"}, testDeps(srv))

		res := c.CreatePayment(context.Background(), pendingOrder(model.ProviderCardGeneric), validRequest())

		require.True(t, res.Success, res.Error)
		assert.Equal(t, "cs_test_1", res.RemoteReference)
		assert.Equal(t, "https://checkout.example/cs_test_1", res.CheckoutRedirectURL)
		assert.Equal(t, []string{"POST /v1/checkout/sessions"}, h.list())
	})

	t.Run("Resolves a paid session by id", func(t *testing.T) {
		order := pendingOrder(model.ProviderCardGeneric)
		order.RemoteReference = "cs_test_1"
		srv, _ := newProvider(t, map[string]http.HandlerFunc{
			"GET /v1/checkout/sessions/cs_test_1": reply(http.StatusOK, `{
				"id":"cs_test_1","object":"checkout.session","status":"complete",
				"payment_status":"paid","customer_details":{"email":"ana@example.com"}
			}`),
		})
		c := NewStripeCard(Config{BaseURL: srv.URL, Token: "sk_test_1"}, testDeps(srv))

		lookup := c.GetStatus(context.Background(), order)

		assert.Equal(t, model.LookupResolved, lookup.Outcome)
		assert.Equal(t, model.CanonicalApproved, lookup.Status)
		assert.Equal(t, "cs_test_1", lookup.RemoteReference)
	})

	t.Run("A completed but unpaid session stays pending", func(t *testing.T) {
		order := pendingOrder(model.ProviderCardGeneric)
		order.RemoteReference = "cs_test_2"
		srv, _ := newProvider(t, map[string]http.HandlerFunc{
			"GET /v1/checkout/sessions/cs_test_2": reply(http.StatusOK, `{
				"id":"cs_test_2","object":"checkout.session","status":"complete","payment_status":"unpaid"
			}`),
		})
		c := NewStripeCard(Config{BaseURL: srv.URL, Token: "sk_test_1"}, testDeps(srv))

		lookup := c.GetStatus(context.Background(), order)

		assert.Equal(t, model.LookupResolved, lookup.Outcome)
		assert.Equal(t, model.CanonicalPending, lookup.Status)
	})

	t.Run("A rejected key is reported as invalid credentials", func(t *testing.T) {
		srv, _ := newProvider(t, map[string]http.HandlerFunc{
			"GET /v1/checkout/sessions/chk_123": reply(http.StatusUnauthorized, `{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`),
		})
		c := NewStripeCard(Config{BaseURL: srv.URL, Token: "sk_test_bad"}, testDeps(srv))

		lookup := c.GetStatus(context.Background(), pendingOrder(model.ProviderCardGeneric))

		assert.Equal(t, model.LookupInvalidCredentials, lookup.Outcome)
		assert.ErrorIs(t, lookup.Err, payment.ErrInvalidCredentials)
	})

	t.Run("Rejects an invalid amount locally", func(t *testing.T) {
		srv, h := newProvider(t, nil)
		c := NewStripeCard(Config{BaseURL: srv.URL, Token: "sk_test_1"}, testDeps(srv))
		req := validRequest()
		req.Amount = 0

		res := c.CreatePayment(context.Background(), pendingOrder(model.ProviderCardGeneric), req)

		assert.False(t, res.Success)
		assert.Equal(t, payment.CodeValidation, res.ErrorCode)
		assert.Empty(t, h.list())
	})
}
