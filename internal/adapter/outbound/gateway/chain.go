package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/botmarket/server/internal/domain/payment"
)

// Candidate is one endpoint a lookup may be answered by.
type Candidate struct {
	Method string
	Path   string
	Body   any
}

// get returns a GET candidate for path.
func get(path string) Candidate {
	return Candidate{Method: http.MethodGet, Path: path}
}

// Resolution is the first candidate that produced records.
type Resolution struct {
	Candidate Candidate
	Records   []map[string]any
	Attempts  int
}

// chain tries endpoint candidates in order until one yields records.
type chain struct {
	transport *transport
	logger    *zap.Logger
}

// accepter decides whether the records of a candidate answer the lookup.
type accepter func(records []map[string]any) bool

// resolve walks candidates in order. A nil accept takes any records.
//
// A 404, an empty 2xx or records refused by accept move on to the next
// candidate. A 401 or 403 stops the walk with ErrInvalidCredentials. Any
// other failure is remembered and only reported if it came from the last
// candidate; otherwise the walk ends with ErrNotFound.
func (c *chain) resolve(ctx context.Context, operation string, candidates []Candidate, accept accepter) (*Resolution, error) {
	var lastErr error
	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrProviderUnavailable, err)
		}

		records, err := c.try(ctx, operation, cand)
		switch {
		case err == nil && (accept == nil || accept(records)):
			return &Resolution{Candidate: cand, Records: records, Attempts: i + 1}, nil
		case errors.Is(err, payment.ErrInvalidCredentials):
			return nil, err
		case err != nil && !errors.Is(err, payment.ErrNotFound):
			c.logger.Debug("gateway candidate failed",
				zap.String("provider", c.transport.provider.String()),
				zap.String("path", cand.Path),
				zap.Error(err),
			)
			lastErr = err
		default:
			lastErr = nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, payment.ErrNotFound
}

// try sends one candidate and classifies the response.
func (c *chain) try(ctx context.Context, operation string, cand Candidate) ([]map[string]any, error) {
	method := cand.Method
	if method == "" {
		method = http.MethodGet
	}

	resp, err := c.transport.do(ctx, operation, method, cand.Path, cand.Body)
	if errors.Is(err, payment.ErrInvalidCredentials) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrProviderUnavailable, err)
	}

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", payment.ErrInvalidCredentials, code)
	case code == http.StatusNotFound:
		return nil, payment.ErrNotFound
	case code < 200 || code >= 300:
		return nil, fmt.Errorf("%w: status %d: %s", payment.ErrProviderUnavailable, code, providerMessage(resp.Body))
	}

	records, err := sniffRecords(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrProviderUnavailable, err)
	}
	if len(records) == 0 {
		return nil, payment.ErrNotFound
	}
	return records, nil
}
