package transaction

import (
	"context"

	"github.com/google/uuid"

	"github.com/dkrylov/coinledger/internal/application/dtos"
	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
	"github.com/dkrylov/coinledger/internal/domain/errors"
)

const (
	// DefaultListLimit applies when the caller omits a limit.
	DefaultListLimit = 50
	// MaxListLimit caps a single page.
	MaxListLimit = 100
)

// ListTransactionsUseCase returns a filtered, paginated transaction history,
// newest first.
type ListTransactionsUseCase struct {
	transactions ports.TransactionRepository
}

// NewListTransactionsUseCase creates the use case.
func NewListTransactionsUseCase(transactions ports.TransactionRepository) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{transactions: transactions}
}

// Execute resolves the query.
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.TransactionListDTO, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}

	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	items, err := uc.transactions.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}
	return dtos.MapTransactionListToDTO(items, offset, limit), nil
}

func buildFilter(query dtos.ListTransactionsQuery) (ports.TransactionFilter, error) {
	var filter ports.TransactionFilter

	if query.UserID != "" {
		userID, err := uuid.Parse(query.UserID)
		if err != nil {
			return filter, errors.ValidationError{Field: "user_id", Message: "must be a valid UUID"}
		}
		filter.UserID = &userID
	}

	if query.Type != "" {
		txType := entities.TransactionType(query.Type)
		if !txType.IsValid() {
			return filter, errors.ValidationError{Field: "type", Message: "must be one of TOP_UP, BONUS, PURCHASE"}
		}
		filter.Type = &txType
	}

	return filter, nil
}
