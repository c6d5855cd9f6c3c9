package ports

import (
	"context"
	"time"
)

// IdempotencyCache is an optional fast path in front of the idempotency
// gate. It is an optimisation only: the integrity guarantee is the unique
// constraint on transactions.idempotency_key, so every cache answer is
// re-validated against the store before being trusted.
type IdempotencyCache interface {
	// Reserve atomically claims key for this attempt (SETNX semantics).
	// first=true means no concurrent or prior attempt holds the key.
	Reserve(ctx context.Context, key string, ttl time.Duration) (first bool, transactionID string, err error)

	// StoreResult records the winning transaction id under the key so later
	// retries can short-circuit to a replay.
	StoreResult(ctx context.Context, key, transactionID string, ttl time.Duration) error

	// Release drops a reservation whose attempt rolled back, freeing the key
	// for a corrected retry.
	Release(ctx context.Context, key string) error
}
