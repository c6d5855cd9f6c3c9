package movement

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
	"github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

// ExecuteRequest describes one value movement. Inputs are validated by the
// callers; the executor trusts them.
type ExecuteRequest struct {
	IdempotencyKey      string
	Type                entities.TransactionType
	SourceWalletID      uuid.UUID
	DestinationWalletID uuid.UUID
	Amount              valueobjects.Amount
	ReferenceID         string
	Metadata            map[string]any

	// ValidateSourceBalance is true for movements out of user wallets
	// (PURCHASE) and false for treasury-sourced movements (TOP_UP, BONUS),
	// where the treasury may go negative.
	ValidateSourceBalance bool
}

// Executor orchestrates the atomic movement protocol inside one storage
// transaction:
//
//	insert PENDING row -> lock wallets in canonical order -> validate source
//	balance -> update both balances -> append debit/credit ledger pair ->
//	mark COMPLETED -> commit.
//
// Any failure between open and commit rolls the whole transaction back; no
// partial state is ever observable. The only error recovered locally is the
// idempotency-key unique violation, which collapses onto the winning insert.
type Executor struct {
	uow          ports.UnitOfWork
	transactions ports.TransactionRepository
	wallets      ports.WalletRepository
	ledger       ports.LedgerRepository
	logger       *slog.Logger
	tracer       trace.Tracer
}

// NewExecutor creates an Executor.
func NewExecutor(
	uow ports.UnitOfWork,
	transactions ports.TransactionRepository,
	wallets ports.WalletRepository,
	ledger ports.LedgerRepository,
	logger *slog.Logger,
) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		uow:          uow,
		transactions: transactions,
		wallets:      wallets,
		ledger:       ledger,
		logger:       logger,
		tracer:       otel.Tracer("coinledger/movement"),
	}
}

// Execute runs the protocol and returns the fully materialized COMPLETED
// transaction (wallet references and both ledger entries attached).
func (e *Executor) Execute(ctx context.Context, req ExecuteRequest) (*entities.Transaction, error) {
	ctx, span := e.tracer.Start(ctx, "executor.execute",
		trace.WithAttributes(
			attribute.String("movement.type", string(req.Type)),
			attribute.String("movement.idempotency_key", req.IdempotencyKey),
		))
	defer span.End()

	tx, err := entities.NewTransaction(
		req.IdempotencyKey,
		req.Type,
		req.SourceWalletID,
		req.DestinationWalletID,
		req.Amount,
		req.ReferenceID,
		req.Metadata,
	)
	if err != nil {
		return nil, err
	}

	execErr := e.uow.Execute(ctx, func(txCtx context.Context) error {
		return e.runProtocol(txCtx, tx, req)
	})

	if execErr != nil {
		if stderrors.Is(execErr, errors.ErrDuplicateIdempotencyKey) {
			// Race collapse: a concurrent first-time request with the same
			// key won the insert. Our transaction rolled back; read the
			// winner and answer as the gate would have.
			return e.resolveRace(ctx, req.IdempotencyKey)
		}
		e.logger.Warn("movement rolled back",
			slog.String("idempotency_key", req.IdempotencyKey),
			slog.String("type", string(req.Type)),
			slog.String("error", execErr.Error()))
		return nil, execErr
	}

	// Re-read after commit so the response carries the persisted ledger pair.
	materialized, err := e.transactions.FindByID(ctx, tx.ID())
	if err != nil {
		return nil, fmt.Errorf("movement committed but re-read failed: %w", err)
	}
	return materialized, nil
}

// runProtocol is steps 2-8 of the protocol, executed inside the storage
// transaction held by txCtx.
func (e *Executor) runProtocol(txCtx context.Context, tx *entities.Transaction, req ExecuteRequest) error {
	// Step 2: the PENDING insert claims the idempotency key. A unique
	// violation here is the authoritative duplicate signal.
	if err := e.transactions.Create(txCtx, tx); err != nil {
		return err
	}

	// Step 3: exclusive row locks, smaller wallet id first.
	source, destination, err := e.wallets.LockForMovement(txCtx, req.SourceWalletID, req.DestinationWalletID)
	if err != nil {
		return err
	}

	// Step 4: balance validation against the locked row, so no concurrent
	// spender can invalidate the check before commit.
	if req.ValidateSourceBalance && !source.CanCover(req.Amount) {
		return &errors.InsufficientBalanceError{
			WalletID:  source.ID().String(),
			Available: source.Balance(),
			Required:  req.Amount,
		}
	}

	// Step 5: fixed-point arithmetic on the locked snapshots.
	if err := source.Debit(req.Amount); err != nil {
		return err
	}
	if err := destination.Credit(req.Amount); err != nil {
		return err
	}

	// Step 6: persist both balances against the locked rows.
	if err := e.wallets.UpdateBalance(txCtx, source.ID(), source.Balance()); err != nil {
		return err
	}
	if err := e.wallets.UpdateBalance(txCtx, destination.ID(), destination.Balance()); err != nil {
		return err
	}

	// Step 7: the ledger pair records the balance-after snapshots computed
	// above, not values re-read from the wallet rows.
	debit, credit, err := entities.NewLedgerPair(
		tx.ID(),
		source.ID(), destination.ID(),
		req.Amount,
		source.Balance(), destination.Balance(),
	)
	if err != nil {
		return err
	}
	if err := e.ledger.AppendPair(txCtx, debit, credit); err != nil {
		return err
	}

	// Step 8: PENDING -> COMPLETED inside the same transaction.
	if err := tx.MarkCompleted(); err != nil {
		return err
	}
	return e.transactions.UpdateStatus(txCtx, tx)
}

// resolveRace reads the transaction that won the idempotency-key insert.
func (e *Executor) resolveRace(ctx context.Context, key string) (*entities.Transaction, error) {
	winner, err := e.transactions.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if stderrors.Is(err, errors.ErrTransactionNotFound) {
			// The winner rolled back after we lost the insert race (e.g. it
			// hit an insufficient balance). The key is free again; the
			// caller may retry.
			return nil, errors.ErrConflictInFlight
		}
		return nil, err
	}
	return classify(winner)
}
