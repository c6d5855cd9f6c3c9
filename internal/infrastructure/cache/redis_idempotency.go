// Package cache implements the idempotency fast path on Redis. The cache is
// an optimisation only: the unique constraint on transactions.idempotency_key
// remains the integrity guarantee, and the service runs correctly (slower)
// without Redis at all.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dkrylov/coinledger/internal/application/ports"
)

// Compile-time check
var _ ports.IdempotencyCache = (*RedisIdempotencyCache)(nil)

// keyPrefix namespaces idempotency keys in a shared Redis.
const keyPrefix = "idempotency:"

// reservationMarker is stored by Reserve before a result is known. Any other
// value is the winning transaction id.
const reservationMarker = "__reserved__"

// RedisIdempotencyCache implements ports.IdempotencyCache with SET NX.
type RedisIdempotencyCache struct {
	client *redis.Client
}

// NewRedisIdempotencyCache creates the cache.
func NewRedisIdempotencyCache(client *redis.Client) *RedisIdempotencyCache {
	return &RedisIdempotencyCache{client: client}
}

// Reserve claims the key with SET NX. Returns first=true when this caller
// made the reservation; otherwise transactionID is the stored result, or
// empty when the key is held by an attempt that has not finished.
func (c *RedisIdempotencyCache) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	ok, err := c.client.SetNX(ctx, keyPrefix+key, reservationMarker, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return true, "", nil
	}

	value, err := c.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			// Reservation expired between SetNX and Get. Treat as held; the
			// store lookup decides.
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if value == reservationMarker {
		return false, "", nil
	}
	return false, value, nil
}

// StoreResult replaces the reservation with the winning transaction id.
func (c *RedisIdempotencyCache) StoreResult(ctx context.Context, key, transactionID string, ttl time.Duration) error {
	if err := c.client.Set(ctx, keyPrefix+key, transactionID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency result: %w", err)
	}
	return nil
}

// Release drops the reservation after a rolled-back attempt so the key stays
// reusable, mirroring the store where no row survived.
func (c *RedisIdempotencyCache) Release(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
