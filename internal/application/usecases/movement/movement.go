package movement

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dkrylov/coinledger/internal/application/dtos"
	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
	"github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/events"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

// service bundles the collaborators shared by the three movement use cases
// and runs the common flow: validate -> gate -> resolve wallets -> execute ->
// record result -> publish events.
type service struct {
	gate      *IdempotencyGate
	executor  *Executor
	wallets   ports.WalletRepository
	publisher ports.EventPublisher
	logger    *slog.Logger
}

func newService(
	gate *IdempotencyGate,
	executor *Executor,
	wallets ports.WalletRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) service {
	if logger == nil {
		logger = slog.Default()
	}
	return service{
		gate:      gate,
		executor:  executor,
		wallets:   wallets,
		publisher: publisher,
		logger:    logger,
	}
}

// run executes one movement of the given type. The treasury wallet of the
// asset is the counterparty: source for TOP_UP and BONUS, destination for
// PURCHASE.
func (s service) run(ctx context.Context, cmd dtos.MovementCommand, txType entities.TransactionType) (*dtos.TransactionDTO, error) {
	userID, amount, err := validateCommand(cmd)
	if err != nil {
		return nil, err
	}

	// Gate first: the common retry case never opens a storage transaction.
	if replay, err := s.gate.Check(ctx, cmd.IdempotencyKey); err != nil {
		return nil, err
	} else if replay != nil {
		s.gate.Completed(ctx, cmd.IdempotencyKey, replay.ID().String())
		dto := dtos.MapTransactionToDTO(replay)
		dto.Replayed = true
		return dto, nil
	}

	treasury, err := s.wallets.FindTreasuryWallet(ctx, cmd.AssetTypeCode)
	if err != nil {
		return nil, err
	}
	userWallet, err := s.wallets.FindUserWallet(ctx, userID, cmd.AssetTypeCode)
	if err != nil {
		return nil, err
	}

	req := ExecuteRequest{
		IdempotencyKey: cmd.IdempotencyKey,
		Type:           txType,
		Amount:         amount,
		ReferenceID:    cmd.ReferenceID,
		Metadata:       cmd.Metadata,
	}
	if txType == entities.TransactionTypePurchase {
		req.SourceWalletID = userWallet.ID()
		req.DestinationWalletID = treasury.ID()
		req.ValidateSourceBalance = true
	} else {
		req.SourceWalletID = treasury.ID()
		req.DestinationWalletID = userWallet.ID()
	}

	tx, err := s.executor.Execute(ctx, req)
	if err != nil {
		// A rolled-back attempt left no row, so the key stays reusable;
		// keep the cache consistent with the store. In-flight and
		// terminally-failed outcomes belong to another attempt's record.
		if !stderrors.Is(err, errors.ErrConflictInFlight) && !stderrors.Is(err, errors.ErrTerminallyFailed) {
			s.gate.RolledBack(ctx, cmd.IdempotencyKey)
		}
		return nil, err
	}

	s.gate.Completed(ctx, cmd.IdempotencyKey, tx.ID().String())
	s.publishEvents(ctx, tx, cmd.AssetTypeCode)

	return dtos.MapTransactionToDTO(tx), nil
}

// validateCommand parses and validates the caller-facing fields.
func validateCommand(cmd dtos.MovementCommand) (uuid.UUID, valueobjects.Amount, error) {
	if cmd.IdempotencyKey == "" {
		return uuid.Nil, valueobjects.Amount{}, errors.ErrIdempotencyKeyRequired
	}
	if len(cmd.IdempotencyKey) > entities.MaxIdempotencyKeyLength {
		return uuid.Nil, valueobjects.Amount{}, errors.ValidationError{
			Field:   "idempotency_key",
			Message: "must be at most 255 characters",
		}
	}

	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return uuid.Nil, valueobjects.Amount{}, errors.ValidationError{
			Field:   "user_id",
			Message: "must be a valid UUID",
		}
	}

	if cmd.AssetTypeCode == "" {
		return uuid.Nil, valueobjects.Amount{}, errors.ValidationError{
			Field:   "asset_type_code",
			Message: "asset type code is required",
		}
	}

	amount, err := valueobjects.NewAmount(cmd.Amount)
	if err != nil {
		return uuid.Nil, valueobjects.Amount{}, errors.ValidationError{
			Field:   "amount",
			Message: err.Error(),
		}
	}
	if !amount.IsPositive() {
		return uuid.Nil, valueobjects.Amount{}, errors.ValidationError{
			Field:   "amount",
			Message: "must be strictly positive",
		}
	}

	return userID, amount, nil
}

// publishEvents emits the movement events. Best effort: the movement is
// already committed, so a publish failure is logged, never surfaced.
func (s service) publishEvents(ctx context.Context, tx *entities.Transaction, assetCode string) {
	if s.publisher == nil {
		return
	}

	batch := []events.DomainEvent{
		events.NewMovementCompleted(
			tx.ID(),
			tx.IdempotencyKey(),
			string(tx.Type()),
			assetCode,
			tx.SourceWalletID(),
			tx.DestinationWalletID(),
			tx.Amount(),
		),
	}
	for _, entry := range tx.Entries() {
		if entry.IsDebit() {
			batch = append(batch, events.NewWalletDebited(entry.WalletID(), tx.ID(), entry.Amount(), entry.BalanceAfter()))
		} else {
			batch = append(batch, events.NewWalletCredited(entry.WalletID(), tx.ID(), entry.Amount(), entry.BalanceAfter()))
		}
	}

	if err := s.publisher.PublishBatch(ctx, batch); err != nil {
		s.logger.Warn("failed to publish movement events",
			slog.String("transaction_id", tx.ID().String()),
			slog.String("error", err.Error()))
	}
}
