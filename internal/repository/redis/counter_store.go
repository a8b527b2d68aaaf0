package redis

import (
	"context"
	"fmt"
	"time"

	"imagegate-service/internal/client"
	"imagegate-service/internal/model"
)

// callTimeout bounds every remote counter operation. Past it the call fails
// with model.ErrStoreUnavailable.
const callTimeout = 10 * time.Second

// CounterStore implements the two atomic counter primitives over Redis.
// It holds no state of its own; the remote store owns every counter.
type CounterStore struct {
	client  *client.RedisClient
	timeout time.Duration
}

func NewCounterStore(client *client.RedisClient) *CounterStore {
	return &CounterStore{
		client:  client,
		timeout: callTimeout,
	}
}

// Increment atomically increments key, creating it at 1 with the given TTL.
// The TTL is attached only on the creation transition; later increments never
// touch it. Returns the post-increment value.
func (s *CounterStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	value, err := s.client.IncrWithExpireOnCreate(ctx, key, ttl)
	if err != nil {
		return 0, fmt.Errorf("%w: incr %s: %v", model.ErrStoreUnavailable, key, err)
	}
	return value, nil
}

// SetIfAbsent sets key to a sentinel value with TTL if and only if it does
// not already exist. Returns whether this caller won the window.
func (s *CounterStore) SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	acquired, err := s.client.SetNX(ctx, key, "1", ttl)
	if err != nil {
		return false, fmt.Errorf("%w: setnx %s: %v", model.ErrStoreUnavailable, key, err)
	}
	return acquired, nil
}
