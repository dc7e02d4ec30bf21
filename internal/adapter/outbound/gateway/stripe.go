package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/botmarket/server/internal/domain/payment"
	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/outbound"
)

// stripeListLimit caps how many sessions an email scan inspects.
const stripeListLimit = 20

// StripeClient serves the card processor through Stripe Checkout.
type StripeClient struct {
	cfg     Config
	deps    Deps
	api     *client.API
	breaker *gobreaker.CircuitBreaker[any]
	matcher *payment.Matcher
}

var _ outbound.GatewayPort = (*StripeClient)(nil)

// NewStripeCard creates the Stripe Checkout flavour of the card processor.
// cfg.Token is the secret key and cfg.BaseURL optionally overrides the API host.
func NewStripeCard(cfg Config, deps Deps) *StripeClient {
	cfg = cfg.withDefaults()
	deps = deps.withDefaults()
	return &StripeClient{
		cfg:     cfg,
		deps:    deps,
		api:     newStripeAPI(cfg.Token, cfg.BaseURL, deps.HTTPClient),
		breaker: newBreaker[any](model.ProviderCardGeneric, cfg.Breaker, stripeSuccessful),
		matcher: payment.NewMatcher(cfg.LocalReferencePrefix),
	}
}

func newStripeAPI(key, baseURL string, httpClient *http.Client) *client.API {
	bc := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if baseURL != "" {
		bc.URL = stripe.String(strings.TrimRight(baseURL, "/"))
	}
	return client.New(key, &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, bc),
	})
}

// stripeSuccessful keeps client errors from tripping the breaker.
func stripeSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var serr *stripe.Error
	return errors.As(err, &serr) && serr.HTTPStatusCode > 0 && serr.HTTPStatusCode < http.StatusInternalServerError
}

// Provider returns the card processor.
func (c *StripeClient) Provider() model.PaymentProvider {
	return model.ProviderCardGeneric
}

// WithCredential returns a copy using another secret key.
func (c *StripeClient) WithCredential(token string) outbound.GatewayPort {
	if strings.TrimSpace(token) == "" {
		return c
	}
	cp := *c
	cp.api = newStripeAPI(token, c.cfg.BaseURL, c.deps.HTTPClient)
	return &cp
}

// CreatePayment opens a Checkout Session for the order.
func (c *StripeClient) CreatePayment(ctx context.Context, order *model.Order, req *model.CreatePaymentRequest) *model.CreatePaymentResult {
	if err := payment.ValidateCreatePayment(req); err != nil {
		return payment.FailureResult(err)
	}

	currency := req.Currency
	if currency == "" {
		currency = c.cfg.Currency
	}
	name := req.Description
	if name == "" {
		name = "Order " + order.ID
	}

	params := &stripe.CheckoutSessionParams{
		Params:            stripe.Params{Context: ctx},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(order.ID),
		CustomerEmail:     stripe.String(strings.TrimSpace(req.Customer.Email)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(currency)),
					UnitAmount: stripe.Int64(payment.AmountCents(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if url := returnURL(c.cfg, req); url != "" {
		params.SuccessURL = stripe.String(url)
	}
	if c.cfg.CancelURL != "" {
		params.CancelURL = stripe.String(c.cfg.CancelURL)
	}
	params.AddMetadata("order_id", order.ID)

	res, err := c.call(ctx, "create_payment", func() (any, error) {
		return c.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return payment.FailureResult(stripeCreateError(err))
	}

	s := res.(*stripe.CheckoutSession)
	if s.URL == "" {
		return payment.FailureResult(fmt.Errorf("%w: provider returned neither a checkout URL nor a PIX payload", payment.ErrProviderRejected))
	}
	return &model.CreatePaymentResult{
		Success:             true,
		RemoteReference:     s.ID,
		CheckoutRedirectURL: s.URL,
	}
}

// GetStatus reads the session by id, then scans the customer's sessions.
func (c *StripeClient) GetStatus(ctx context.Context, order *model.Order) *model.StatusLookup {
	var firstErr error

	if ref := c.matcher.RemoteReference(order); ref != "" {
		res, err := c.call(ctx, "get_status", func() (any, error) {
			return c.api.CheckoutSessions.Get(ref, &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}})
		})
		if err == nil {
			rec := payment.NewRecord(sessionRecord(res.(*stripe.CheckoutSession)))
			if match := c.matcher.Match(order, []*model.GatewayPaymentRecord{rec}); match != nil {
				return c.resolved(order, match)
			}
		} else {
			err = stripeLookupError(err)
			if errors.Is(err, payment.ErrInvalidCredentials) {
				return payment.LookupFromError(err)
			}
			if !errors.Is(err, payment.ErrNotFound) {
				firstErr = err
			}
		}
	}

	if email := strings.TrimSpace(order.CustomerEmail); email != "" {
		res, err := c.call(ctx, "list_payments", func() (any, error) {
			return c.listSessions(ctx, email)
		})
		if err == nil {
			if match := c.matcher.Match(order, res.([]*model.GatewayPaymentRecord)); match != nil {
				return c.resolved(order, match)
			}
		} else {
			err = stripeLookupError(err)
			if errors.Is(err, payment.ErrInvalidCredentials) {
				return payment.LookupFromError(err)
			}
			if firstErr == nil && !errors.Is(err, payment.ErrNotFound) {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		return payment.LookupFromError(firstErr)
	}
	return payment.LookupFromError(payment.ErrNotFound)
}

func (c *StripeClient) listSessions(ctx context.Context, email string) ([]*model.GatewayPaymentRecord, error) {
	params := &stripe.CheckoutSessionListParams{
		ListParams: stripe.ListParams{
			Context: ctx,
			Limit:   stripe.Int64(stripeListLimit),
			Single:  true,
		},
		CustomerDetails: &stripe.CheckoutSessionListCustomerDetailsParams{
			Email: stripe.String(email),
		},
	}

	var records []*model.GatewayPaymentRecord
	it := c.api.CheckoutSessions.List(params)
	for it.Next() {
		records = append(records, payment.NewRecord(sessionRecord(it.CheckoutSession())))
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *StripeClient) resolved(order *model.Order, rec *model.GatewayPaymentRecord) *model.StatusLookup {
	return &model.StatusLookup{
		Status:          rec.Status,
		Outcome:         model.LookupResolved,
		RemoteReference: c.matcher.ResolvedReference(order, rec),
	}
}

// Probe reads the account balance, which any valid key may do.
func (c *StripeClient) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	_, err := c.api.Balance.Get(&stripe.BalanceParams{Params: stripe.Params{Context: ctx}})
	c.deps.Metrics.RecordGatewayRequest(model.ProviderCardGeneric.String(), "probe", stripeStatus(err), time.Since(start))

	if err != nil {
		var serr *stripe.Error
		switch {
		case !errors.As(err, &serr) || serr.HTTPStatusCode == 0:
			err = fmt.Errorf("%w: %v", payment.ErrProviderUnavailable, err)
		case serr.HTTPStatusCode == http.StatusUnauthorized || serr.HTTPStatusCode == http.StatusForbidden:
			err = fmt.Errorf("%w: %s", payment.ErrInvalidCredentials, serr.Msg)
		case serr.HTTPStatusCode >= http.StatusInternalServerError:
			err = fmt.Errorf("%w: %s", payment.ErrProviderUnavailable, serr.Msg)
		default:
			err = nil
		}
	}
	c.deps.Metrics.SetGatewayHealth(model.ProviderCardGeneric.String(), err == nil)
	return err
}

// call runs one Stripe API call through the breaker and records it.
func (c *StripeClient) call(ctx context.Context, operation string, fn func() (any, error)) (any, error) {
	_, span := tracer.Start(ctx, "gateway."+operation)
	defer span.End()

	start := time.Now()
	res, err := c.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.deps.Metrics.RecordGatewayRejected(model.ProviderCardGeneric.String(), operation)
		return nil, fmt.Errorf("circuit breaker for %s: %w", model.ProviderCardGeneric, err)
	}
	c.deps.Metrics.RecordGatewayRequest(model.ProviderCardGeneric.String(), operation, stripeStatus(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
	}
	return res, err
}

// stripeStatus returns the HTTP status behind a Stripe call result.
func stripeStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return serr.HTTPStatusCode
	}
	return 0
}

func stripeCreateError(err error) error {
	var serr *stripe.Error
	if !errors.As(err, &serr) || serr.HTTPStatusCode == 0 {
		return fmt.Errorf("%w: %v", payment.ErrProviderUnavailable, err)
	}
	switch code := serr.HTTPStatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return payment.ErrInvalidCredentials
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", payment.ErrProviderUnavailable, code)
	default:
		return fmt.Errorf("%w: %s", payment.ErrProviderRejected, serr.Msg)
	}
}

func stripeLookupError(err error) error {
	var serr *stripe.Error
	if !errors.As(err, &serr) || serr.HTTPStatusCode == 0 {
		return fmt.Errorf("%w: %v", payment.ErrProviderUnavailable, err)
	}
	switch code := serr.HTTPStatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", payment.ErrInvalidCredentials, serr.Msg)
	case code == http.StatusNotFound:
		return payment.ErrNotFound
	default:
		return fmt.Errorf("%w: status %d: %s", payment.ErrProviderUnavailable, code, serr.Msg)
	}
}

// sessionRecord flattens a Checkout Session into the generic record shape.
func sessionRecord(s *stripe.CheckoutSession) map[string]any {
	status := "pending"
	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		status = "paid"
	case s.Status == stripe.CheckoutSessionStatusExpired:
		status = "expired"
	}

	raw := map[string]any{
		"id":     s.ID,
		"status": status,
	}
	email := s.CustomerEmail
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		email = s.CustomerDetails.Email
	}
	if email != "" {
		raw["email"] = email
	}
	if s.Created > 0 {
		raw["created_at"] = strconv.FormatInt(s.Created, 10)
	}
	if s.ClientReferenceID != "" {
		raw["external_id"] = s.ClientReferenceID
	}
	if s.PaymentIntent != nil && s.PaymentIntent.ID != "" {
		raw["payment_id"] = s.PaymentIntent.ID
	}
	if s.URL != "" {
		raw["checkout_url"] = s.URL
	}
	return raw
}
