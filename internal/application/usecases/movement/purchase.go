package movement

import (
	"context"
	"log/slog"

	"github.com/dkrylov/coinledger/internal/application/dtos"
	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
)

// PurchaseUseCase spends from a user wallet back to the treasury. The source
// balance is validated under the row lock; overdrafts are impossible even
// under concurrent spenders on the same wallet.
type PurchaseUseCase struct {
	service
}

// NewPurchaseUseCase creates the use case.
func NewPurchaseUseCase(
	gate *IdempotencyGate,
	executor *Executor,
	wallets ports.WalletRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *PurchaseUseCase {
	return &PurchaseUseCase{service: newService(gate, executor, wallets, publisher, logger)}
}

// Execute performs the purchase.
func (uc *PurchaseUseCase) Execute(ctx context.Context, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error) {
	return uc.run(ctx, cmd, entities.TransactionTypePurchase)
}
