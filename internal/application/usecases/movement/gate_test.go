package movement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrylov/coinledger/internal/domain/entities"
	domainErrors "github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

func storedTransaction(t *testing.T, key string, status entities.TransactionStatus, errMsg string) *entities.Transaction {
	t.Helper()
	tx, err := entities.NewTransaction(key, entities.TransactionTypeTopUp, uuid.New(), uuid.New(),
		valueobjects.MustAmount("100"), "", nil)
	require.NoError(t, err)
	switch status {
	case entities.TransactionStatusCompleted:
		require.NoError(t, tx.MarkCompleted())
	case entities.TransactionStatusFailed:
		require.NoError(t, tx.MarkFailed(errMsg))
	}
	return tx
}

func TestIdempotencyGate_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("empty key rejected", func(t *testing.T) {
		gate := NewIdempotencyGate(&mockTransactionRepo{}, nil, nil)
		_, err := gate.Check(ctx, "")
		assert.ErrorIs(t, err, domainErrors.ErrIdempotencyKeyRequired)
	})

	t.Run("not found proceeds", func(t *testing.T) {
		gate := NewIdempotencyGate(&mockTransactionRepo{}, nil, nil)
		replay, err := gate.Check(ctx, "fresh-key")
		require.NoError(t, err)
		assert.Nil(t, replay)
	})

	t.Run("completed replays", func(t *testing.T) {
		stored := storedTransaction(t, "done-key", entities.TransactionStatusCompleted, "")
		repo := &mockTransactionRepo{
			findByIdempotencyKeyFunc: func(ctx context.Context, key string) (*entities.Transaction, error) {
				return stored, nil
			},
		}
		gate := NewIdempotencyGate(repo, nil, nil)

		replay, err := gate.Check(ctx, "done-key")
		require.NoError(t, err)
		require.NotNil(t, replay)
		assert.Equal(t, stored.ID(), replay.ID())
	})

	t.Run("pending conflicts", func(t *testing.T) {
		stored := storedTransaction(t, "inflight-key", entities.TransactionStatusPending, "")
		repo := &mockTransactionRepo{
			findByIdempotencyKeyFunc: func(ctx context.Context, key string) (*entities.Transaction, error) {
				return stored, nil
			},
		}
		gate := NewIdempotencyGate(repo, nil, nil)

		_, err := gate.Check(ctx, "inflight-key")
		assert.ErrorIs(t, err, domainErrors.ErrConflictInFlight)
	})

	t.Run("failed surfaces original reason", func(t *testing.T) {
		stored := storedTransaction(t, "dead-key", entities.TransactionStatusFailed, "insufficient balance")
		repo := &mockTransactionRepo{
			findByIdempotencyKeyFunc: func(ctx context.Context, key string) (*entities.Transaction, error) {
				return stored, nil
			},
		}
		gate := NewIdempotencyGate(repo, nil, nil)

		_, err := gate.Check(ctx, "dead-key")
		require.ErrorIs(t, err, domainErrors.ErrTerminallyFailed)

		var failed *domainErrors.TerminallyFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "insufficient balance", failed.Reason)
	})
}

func TestIdempotencyGate_CacheFastPath(t *testing.T) {
	ctx := context.Background()

	t.Run("reserved key without result conflicts", func(t *testing.T) {
		cache := newMockIdempotencyCache()
		gate := NewIdempotencyGate(&mockTransactionRepo{}, cache, nil)

		// First attempt reserves the key.
		replay, err := gate.Check(ctx, "race-key")
		require.NoError(t, err)
		assert.Nil(t, replay)

		// Second attempt sees the live reservation and backs off without
		// touching the unique constraint.
		_, err = gate.Check(ctx, "race-key")
		assert.ErrorIs(t, err, domainErrors.ErrConflictInFlight)
	})

	t.Run("rolled back reservation is released", func(t *testing.T) {
		cache := newMockIdempotencyCache()
		gate := NewIdempotencyGate(&mockTransactionRepo{}, cache, nil)

		_, err := gate.Check(ctx, "retry-key")
		require.NoError(t, err)

		gate.RolledBack(ctx, "retry-key")

		replay, err := gate.Check(ctx, "retry-key")
		require.NoError(t, err)
		assert.Nil(t, replay)
	})

	t.Run("cache failure falls back to store", func(t *testing.T) {
		cache := newMockIdempotencyCache()
		cache.reserveFunc = func(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
			return false, "", assert.AnError
		}
		gate := NewIdempotencyGate(&mockTransactionRepo{}, cache, nil)

		replay, err := gate.Check(ctx, "any-key")
		require.NoError(t, err)
		assert.Nil(t, replay)
	})
}
