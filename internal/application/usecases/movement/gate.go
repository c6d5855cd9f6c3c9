// Package movement implements the transactional value-movement engine:
// the idempotency gate, the executor that runs the atomic movement protocol,
// and the top-up / bonus / purchase use cases on top of them.
package movement

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
	"github.com/dkrylov/coinledger/internal/domain/errors"
)

// DefaultIdempotencyTTL bounds how long the cache remembers a key. The
// database row is the durable record; the cache only needs to cover the
// realistic retry window.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyGate classifies a movement request by its idempotency key
// before the executor opens a storage transaction. It is an optimisation and
// UX layer: the integrity guarantee is the unique constraint the executor
// relies on.
type IdempotencyGate struct {
	transactions ports.TransactionRepository
	cache        ports.IdempotencyCache // optional, may be nil
	logger       *slog.Logger
	ttl          time.Duration
}

// NewIdempotencyGate creates a gate. cache may be nil, in which case every
// check goes straight to the store.
func NewIdempotencyGate(
	transactions ports.TransactionRepository,
	cache ports.IdempotencyCache,
	logger *slog.Logger,
) *IdempotencyGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyGate{
		transactions: transactions,
		cache:        cache,
		logger:       logger,
		ttl:          DefaultIdempotencyTTL,
	}
}

// Check resolves an idempotency key to one of three outcomes:
//   - (nil, nil): no prior record, proceed to execute;
//   - (tx, nil): a COMPLETED transaction exists, replay it;
//   - (nil, err): ErrConflictInFlight for PENDING, ErrTerminallyFailed for
//     FAILED, or a storage error.
func (g *IdempotencyGate) Check(ctx context.Context, key string) (*entities.Transaction, error) {
	if key == "" {
		return nil, errors.ErrIdempotencyKeyRequired
	}

	cacheHeld := g.reserve(ctx, key)

	existing, err := g.transactions.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if stderrors.Is(err, errors.ErrTransactionNotFound) {
			if cacheHeld {
				// The cache saw this key before we did and holds no result
				// pointer: another attempt reserved it and has not inserted
				// its row yet. Telling the caller to back off is cheaper
				// than racing it to the unique constraint.
				return nil, errors.ErrConflictInFlight
			}
			return nil, nil
		}
		return nil, err
	}

	return classify(existing)
}

// classify maps a stored transaction to the gate outcome.
func classify(tx *entities.Transaction) (*entities.Transaction, error) {
	switch tx.Status() {
	case entities.TransactionStatusCompleted:
		return tx, nil
	case entities.TransactionStatusPending:
		return nil, errors.ErrConflictInFlight
	case entities.TransactionStatusFailed:
		return nil, &errors.TerminallyFailedError{
			IdempotencyKey: tx.IdempotencyKey(),
			Reason:         tx.ErrorMessage(),
		}
	default:
		return nil, errors.ErrConflictInFlight
	}
}

// reserve claims the key in the cache. Returns true when another attempt
// already holds the key without a recorded result. Cache failures are logged
// and ignored; the store remains authoritative.
func (g *IdempotencyGate) reserve(ctx context.Context, key string) bool {
	if g.cache == nil {
		return false
	}
	first, txID, err := g.cache.Reserve(ctx, key, g.ttl)
	if err != nil {
		g.logger.Warn("idempotency cache unavailable, falling back to store",
			slog.String("idempotency_key", key),
			slog.String("error", err.Error()))
		return false
	}
	return !first && txID == ""
}

// Completed records the winning transaction id so later retries with the
// same key short-circuit in the cache.
func (g *IdempotencyGate) Completed(ctx context.Context, key, transactionID string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.StoreResult(ctx, key, transactionID, g.ttl); err != nil {
		g.logger.Warn("failed to record idempotency result",
			slog.String("idempotency_key", key),
			slog.String("error", err.Error()))
	}
}

// RolledBack releases the cache reservation after a rolled-back attempt so
// the key stays reusable, mirroring the store (no row survived).
func (g *IdempotencyGate) RolledBack(ctx context.Context, key string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Release(ctx, key); err != nil {
		g.logger.Warn("failed to release idempotency reservation",
			slog.String("idempotency_key", key),
			slog.String("error", err.Error()))
	}
}
