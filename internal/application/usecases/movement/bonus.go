package movement

import (
	"context"
	"log/slog"

	"github.com/dkrylov/coinledger/internal/application/dtos"
	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
)

// BonusUseCase issues a promotional grant from the treasury. Structurally a
// top-up; distinguished by the BONUS type discriminator and conventionally a
// metadata {"reason": ...} entry.
type BonusUseCase struct {
	service
}

// NewBonusUseCase creates the use case.
func NewBonusUseCase(
	gate *IdempotencyGate,
	executor *Executor,
	wallets ports.WalletRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *BonusUseCase {
	return &BonusUseCase{service: newService(gate, executor, wallets, publisher, logger)}
}

// Execute performs the bonus grant.
func (uc *BonusUseCase) Execute(ctx context.Context, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error) {
	return uc.run(ctx, cmd, entities.TransactionTypeBonus)
}
