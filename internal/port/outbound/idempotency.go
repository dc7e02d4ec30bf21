package outbound

import (
	"context"
	"time"

	"github.com/botmarket/server/internal/model"
)

// IdempotencyStorePort stores responses by idempotency key.
type IdempotencyStorePort interface {
	// Get returns the stored response, or nil if none exists.
	Get(ctx context.Context, key string) (*model.CachedResponse, error)

	// Save stores the response for ttl.
	Save(ctx context.Context, key string, resp *model.CachedResponse, ttl time.Duration) error

	// Lock marks the key as in progress. It returns false if it already is.
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Unlock releases the in-progress mark.
	Unlock(ctx context.Context, key string) error
}
