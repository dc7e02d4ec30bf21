package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/botmarket/server/internal/domain/payment"
	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/outbound"
)

// dialect describes the endpoints and request shape of one provider API.
type dialect struct {
	provider   model.PaymentProvider
	createPath string

	// byIDPaths and byEmailPaths are fmt templates taking the escaped key.
	byIDPaths    []string
	byEmailPaths []string

	// shape adds provider-specific fields to the common creation body.
	shape func(body map[string]any, cfg Config, order *model.Order, req *model.CreatePaymentRequest)
}

func (d *dialect) byID(ref string) []Candidate {
	return candidates(d.byIDPaths, url.PathEscape(ref))
}

func (d *dialect) byEmail(email string) []Candidate {
	return candidates(d.byEmailPaths, url.QueryEscape(email))
}

func candidates(templates []string, key string) []Candidate {
	out := make([]Candidate, 0, len(templates))
	for _, t := range templates {
		out = append(out, get(fmt.Sprintf(t, key)))
	}
	return out
}

// Client is a JSON-over-HTTP payment gateway client driven by a dialect.
type Client struct {
	dialect   *dialect
	cfg       Config
	transport *transport
	chain     *chain
	matcher   *payment.Matcher
	deps      Deps
}

var _ outbound.GatewayPort = (*Client)(nil)

func newClient(d *dialect, cfg Config, deps Deps) *Client {
	cfg = cfg.withDefaults()
	deps = deps.withDefaults()

	t := &transport{
		provider:   d.provider,
		baseURL:    cfg.BaseURL,
		httpClient: deps.HTTPClient,
		tokens:     tokenSource(cfg, deps.HTTPClient),
		breaker:    newBreaker[*response](d.provider, cfg.Breaker, countsAsSuccess),
		metrics:    deps.Metrics,
	}
	return &Client{
		dialect:   d,
		cfg:       cfg,
		transport: t,
		chain:     &chain{transport: t, logger: deps.Logger},
		matcher:   payment.NewMatcher(cfg.LocalReferencePrefix),
		deps:      deps,
	}
}

// Provider returns the provider this client talks to.
func (c *Client) Provider() model.PaymentProvider {
	return c.dialect.provider
}

// WithCredential returns a copy of the client authenticating with token.
// The copy shares the circuit breaker of the original.
func (c *Client) WithCredential(token string) outbound.GatewayPort {
	if strings.TrimSpace(token) == "" {
		return c
	}
	cp := *c
	cp.transport = c.transport.withTokens(staticToken(token))
	cp.chain = &chain{transport: cp.transport, logger: c.deps.Logger}
	return &cp
}

// CreatePayment creates a checkout for the order.
func (c *Client) CreatePayment(ctx context.Context, order *model.Order, req *model.CreatePaymentRequest) *model.CreatePaymentResult {
	if err := payment.ValidateCreatePayment(req); err != nil {
		return payment.FailureResult(err)
	}

	resp, err := c.transport.do(ctx, "create_payment", http.MethodPost, c.dialect.createPath, c.createBody(order, req))
	if errors.Is(err, payment.ErrInvalidCredentials) {
		return payment.FailureResult(err)
	}
	if err != nil {
		return payment.FailureResult(fmt.Errorf("%w: %v", payment.ErrProviderUnavailable, err))
	}

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return payment.FailureResult(payment.ErrInvalidCredentials)
	case code >= http.StatusInternalServerError:
		return payment.FailureResult(fmt.Errorf("%w: status %d", payment.ErrProviderUnavailable, code))
	case code < 200 || code >= 300:
		return payment.FailureResult(fmt.Errorf("%w: %s", payment.ErrProviderRejected, providerMessage(resp.Body)))
	}

	obj, ok := decodeCreated(resp.Body)
	if !ok {
		return payment.FailureResult(fmt.Errorf("%w: %v", payment.ErrProviderUnavailable, errMalformedBody))
	}

	ref := payment.RemoteID(obj, order.ID)
	checkoutURL := payment.CheckoutURL(obj)

	var pix *model.PixPayload
	if c.dialect.provider.SupportsPix() {
		pix = payment.ExtractPix(obj)
		if pix == nil && checkoutURL != "" {
			id := payment.IDFromRedirectURL(checkoutURL)
			if id == "" {
				id = ref
			}
			if id != "" {
				pix = c.recoverPix(ctx, id)
				if ref == "" {
					ref = id
				}
			}
		}
	}

	if pix == nil && checkoutURL == "" {
		return payment.FailureResult(fmt.Errorf("%w: provider returned neither a checkout URL nor a PIX payload", payment.ErrProviderRejected))
	}

	return &model.CreatePaymentResult{
		Success:             true,
		RemoteReference:     ref,
		Pix:                 pix,
		CheckoutRedirectURL: checkoutURL,
	}
}

// recoverPix fetches a checkout by id to read the PIX payload that the
// creation response only linked to.
func (c *Client) recoverPix(ctx context.Context, id string) *model.PixPayload {
	var pix *model.PixPayload
	_, err := c.chain.resolve(ctx, "recover_pix", c.dialect.byID(id), func(records []map[string]any) bool {
		for _, r := range records {
			if p := payment.ExtractPix(r); p != nil {
				pix = p
				return true
			}
		}
		return false
	})
	if err != nil {
		c.deps.Logger.Debug("pix payload not recovered",
			zap.String("provider", c.dialect.provider.String()),
			zap.String("checkout_id", id),
			zap.Error(err),
		)
	}
	return pix
}

func (c *Client) createBody(order *model.Order, req *model.CreatePaymentRequest) map[string]any {
	cents := payment.AmountCents(req.Amount)
	currency := req.Currency
	if currency == "" {
		currency = c.cfg.Currency
	}

	customer := map[string]any{"email": strings.TrimSpace(req.Customer.Email)}
	if req.Customer.Name != "" {
		customer["name"] = req.Customer.Name
	}

	body := map[string]any{
		"amount":             float64(cents) / 100,
		"amount_cents":       cents,
		"currency":           strings.ToUpper(currency),
		"external_reference": order.ID,
		"customer":           customer,
	}
	if len(req.ItemIDs) > 0 {
		body["items"] = req.ItemIDs
	}
	if req.Description != "" {
		body["description"] = req.Description
	}
	if c.cfg.NotificationURL != "" {
		body["notification_url"] = c.cfg.NotificationURL
	}
	if c.dialect.shape != nil {
		c.dialect.shape(body, c.cfg, order, req)
	}
	return body
}

// GetStatus resolves the order's record by remote reference, then by email.
func (c *Client) GetStatus(ctx context.Context, order *model.Order) *model.StatusLookup {
	var firstErr error
	remember := func(err error) {
		if firstErr == nil && !errors.Is(err, payment.ErrNotFound) {
			firstErr = err
		}
	}

	if ref := c.matcher.RemoteReference(order); ref != "" {
		rec, err := c.lookup(ctx, "get_status", c.dialect.byID(ref), order, ref)
		if rec != nil {
			return c.resolved(order, rec)
		}
		if errors.Is(err, payment.ErrInvalidCredentials) {
			return payment.LookupFromError(err)
		}
		remember(err)
	}

	if email := strings.TrimSpace(order.CustomerEmail); email != "" {
		rec, err := c.lookup(ctx, "list_payments", c.dialect.byEmail(email), order, "")
		if rec != nil {
			return c.resolved(order, rec)
		}
		if errors.Is(err, payment.ErrInvalidCredentials) {
			return payment.LookupFromError(err)
		}
		remember(err)
	}

	if firstErr != nil {
		return payment.LookupFromError(firstErr)
	}
	return payment.LookupFromError(payment.ErrNotFound)
}

// lookup walks candidates until one returns a record matching the order.
// When ref is set the candidates address that record directly, so a lone
// record that names no id of its own takes ref as its id.
func (c *Client) lookup(ctx context.Context, operation string, cands []Candidate, order *model.Order, ref string) (*model.GatewayPaymentRecord, error) {
	var match *model.GatewayPaymentRecord
	_, err := c.chain.resolve(ctx, operation, cands, func(records []map[string]any) bool {
		recs := payment.NewRecords(records)
		if ref != "" && len(recs) == 1 && len(recs[0].IDs) == 0 {
			recs[0].IDs = []string{ref}
		}
		match = c.matcher.Match(order, recs)
		return match != nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (c *Client) resolved(order *model.Order, rec *model.GatewayPaymentRecord) *model.StatusLookup {
	return &model.StatusLookup{
		Status:          rec.Status,
		Outcome:         model.LookupResolved,
		RemoteReference: c.matcher.ResolvedReference(order, rec),
	}
}

// Probe checks that the provider answers at all. It bypasses the breaker.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	resp, err := c.transport.direct(ctx, "probe", http.MethodGet, c.cfg.ProbePath)
	err = probeError(resp, err)
	c.deps.Metrics.SetGatewayHealth(c.dialect.provider.String(), err == nil)
	return err
}

func probeError(resp *response, err error) error {
	switch {
	case errors.Is(err, payment.ErrInvalidCredentials):
		return err
	case err != nil:
		return fmt.Errorf("%w: %v", payment.ErrProviderUnavailable, err)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", payment.ErrInvalidCredentials, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", payment.ErrProviderUnavailable, resp.StatusCode)
	}
	return nil
}

// decodeCreated decodes a creation response into a JSON object.
func decodeCreated(body []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
