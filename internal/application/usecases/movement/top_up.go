package movement

import (
	"context"
	"log/slog"

	"github.com/dkrylov/coinledger/internal/application/dtos"
	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
)

// TopUpUseCase moves value from the asset's treasury wallet into a user
// wallet. The treasury balance is not validated; it may go negative.
type TopUpUseCase struct {
	service
}

// NewTopUpUseCase creates the use case.
func NewTopUpUseCase(
	gate *IdempotencyGate,
	executor *Executor,
	wallets ports.WalletRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *TopUpUseCase {
	return &TopUpUseCase{service: newService(gate, executor, wallets, publisher, logger)}
}

// Execute performs the top-up.
func (uc *TopUpUseCase) Execute(ctx context.Context, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error) {
	return uc.run(ctx, cmd, entities.TransactionTypeTopUp)
}
