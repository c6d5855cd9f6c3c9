package transaction

import (
	"context"

	"github.com/dkrylov/coinledger/internal/application/dtos"
	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/errors"
)

// GetByIdempotencyKeyUseCase resolves an idempotency key to its transaction,
// letting clients recover the outcome of a movement whose response they lost.
type GetByIdempotencyKeyUseCase struct {
	transactions ports.TransactionRepository
}

// NewGetByIdempotencyKeyUseCase creates the use case.
func NewGetByIdempotencyKeyUseCase(transactions ports.TransactionRepository) *GetByIdempotencyKeyUseCase {
	return &GetByIdempotencyKeyUseCase{transactions: transactions}
}

// Execute resolves the query.
func (uc *GetByIdempotencyKeyUseCase) Execute(ctx context.Context, query dtos.GetTransactionByIdempotencyKeyQuery) (*dtos.TransactionDTO, error) {
	if query.IdempotencyKey == "" {
		return nil, errors.ErrIdempotencyKeyRequired
	}

	tx, err := uc.transactions.FindByIdempotencyKey(ctx, query.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	return dtos.MapTransactionToDTO(tx), nil
}
