package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/outbound"
)

const (
	idempotencyKeyPrefix = "idempotency:"
	lockSuffix           = ":lock"
)

// idempotencyStore implements outbound.IdempotencyStorePort.
type idempotencyStore struct {
	client redis.UniversalClient
}

// NewIdempotencyStore creates a new Redis idempotency store.
func NewIdempotencyStore(client redis.UniversalClient) outbound.IdempotencyStorePort {
	return &idempotencyStore{client: client}
}

func (s *idempotencyStore) Get(ctx context.Context, key string) (*model.CachedResponse, error) {
	data, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var resp model.CachedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal cached response: %w", err)
	}
	return &resp, nil
}

func (s *idempotencyStore) Save(ctx context.Context, key string, resp *model.CachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal cached response: %w", err)
	}
	return s.client.Set(ctx, idempotencyKeyPrefix+key, data, ttl).Err()
}

func (s *idempotencyStore) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, idempotencyKeyPrefix+key+lockSuffix, "1", ttl).Result()
}

func (s *idempotencyStore) Unlock(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyKeyPrefix+key+lockSuffix).Err()
}

// Compile-time check
var _ outbound.IdempotencyStorePort = (*idempotencyStore)(nil)
