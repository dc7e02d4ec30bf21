package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"

	"github.com/botmarket/server/internal/domain/payment"
	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/utils/metrics"
)

// maxBodySize caps how much of a provider response is read.
const maxBodySize = 4 << 20

var tracer = otel.Tracer("github.com/botmarket/server/internal/adapter/outbound/gateway")

// errServerStatus marks a 5xx response so the breaker counts it as a failure.
var errServerStatus = errors.New("provider server error")

// response is a fully read provider response.
type response struct {
	StatusCode int
	Body       []byte
}

// transport performs authenticated JSON requests against one provider.
type transport struct {
	provider   model.PaymentProvider
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	breaker    *gobreaker.CircuitBreaker[*response]
	metrics    *metrics.Metrics
}

// newBreaker builds the per-provider circuit breaker. A nil isSuccessful
// counts every error as a failure.
func newBreaker[T any](provider model.PaymentProvider, cfg BreakerConfig, isSuccessful func(error) bool) *gobreaker.CircuitBreaker[T] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = 60 * time.Second
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        provider.String(),
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
	})
}

// withTokens returns a copy of the transport using another token source.
func (t *transport) withTokens(tokens oauth2.TokenSource) *transport {
	cp := *t
	cp.tokens = tokens
	return &cp
}

// do sends one request through the circuit breaker.
// A non-nil error means no usable HTTP response was received.
func (t *transport) do(ctx context.Context, operation, method, path string, body any) (*response, error) {
	ctx, span := tracer.Start(ctx, "gateway."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.provider", t.provider.String()),
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)

	start := time.Now()
	resp, err := t.breaker.Execute(func() (*response, error) {
		resp, err := t.roundTrip(ctx, method, path, body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		t.metrics.RecordGatewayRejected(t.provider.String(), operation)
		span.SetStatus(codes.Error, "circuit open")
		return nil, fmt.Errorf("circuit breaker for %s: %w", t.provider, err)
	}
	if errors.Is(err, errServerStatus) {
		err = nil
	}

	status := 0
	if resp != nil {
		status = resp.StatusCode
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	t.metrics.RecordGatewayRequest(t.provider.String(), operation, status, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

// direct sends one request without the circuit breaker.
func (t *transport) direct(ctx context.Context, operation, method, path string) (*response, error) {
	start := time.Now()
	resp, err := t.roundTrip(ctx, method, path, nil)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.metrics.RecordGatewayRequest(t.provider.String(), operation, status, time.Since(start))
	return resp, err
}

func (t *transport) roundTrip(ctx context.Context, method, path string, body any) (*response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if t.tokens != nil {
		token, err := t.tokens.Token()
		if err != nil {
			return nil, tokenError(err)
		}
		token.SetAuthHeader(req)
	}

	res, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &response{StatusCode: res.StatusCode, Body: data}, nil
}

// tokenError wraps a token endpoint failure. A rejected client is reported
// as ErrInvalidCredentials; anything else stays a transport failure.
func tokenError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && clientRejected(rerr) {
		return fmt.Errorf("%w: obtain access token: %v", payment.ErrInvalidCredentials, err)
	}
	return fmt.Errorf("obtain access token: %w", err)
}

func clientRejected(rerr *oauth2.RetrieveError) bool {
	switch rerr.ErrorCode {
	case "invalid_client", "unauthorized_client", "invalid_grant":
		return true
	}
	if rerr.Response == nil {
		return false
	}
	switch rerr.Response.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

// countsAsSuccess keeps credential failures out of the breaker's failure count.
func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, payment.ErrInvalidCredentials)
}

func (t *transport) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(t.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// providerMessage pulls a human-readable error message out of a provider body.
func providerMessage(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, key := range []string{"message", "error_description", "error", "detail", "msg"} {
			switch v := obj[key].(type) {
			case string:
				if v != "" {
					return v
				}
			case map[string]any:
				if m, ok := v["message"].(string); ok && m != "" {
					return m
				}
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
