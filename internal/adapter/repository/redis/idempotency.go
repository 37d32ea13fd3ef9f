package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/custbalance/internal/usecase"
)

const pendingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "idempotency:",
	}
}

// Reserve claims key with SET NX.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, *usecase.IdempotentResponse, error) {
	fullKey := s.prefix + key

	reserved, err := s.client.SetNX(ctx, fullKey, pendingMarker, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if reserved {
		return true, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET; the caller may retry.
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	if string(existing) == pendingMarker {
		return false, nil, nil
	}

	var stored usecase.IdempotentResponse
	if err := json.Unmarshal(existing, &stored); err != nil {
		return false, nil, err
	}

	return false, &stored, nil
}

// Complete stores the final response for key.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp usecase.IdempotentResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.prefix+key, data, ttl).Err()
}

// Release drops a reservation so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
