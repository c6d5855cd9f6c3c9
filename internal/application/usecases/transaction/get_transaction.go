// Package transaction implements the read-side use cases over the
// transaction store: lookup by id, lookup by idempotency key and filtered
// listing. Reads never mutate ledger state.
package transaction

import (
	"context"

	"github.com/google/uuid"

	"github.com/dkrylov/coinledger/internal/application/dtos"
	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/errors"
)

// GetTransactionUseCase fetches one transaction with its ledger entries.
type GetTransactionUseCase struct {
	transactions ports.TransactionRepository
}

// NewGetTransactionUseCase creates the use case.
func NewGetTransactionUseCase(transactions ports.TransactionRepository) *GetTransactionUseCase {
	return &GetTransactionUseCase{transactions: transactions}
}

// Execute resolves the query.
func (uc *GetTransactionUseCase) Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error) {
	id, err := uuid.Parse(query.ID)
	if err != nil {
		return nil, errors.ValidationError{Field: "id", Message: "must be a valid UUID"}
	}

	tx, err := uc.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dtos.MapTransactionToDTO(tx), nil
}
