package transaction

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrylov/coinledger/internal/application/dtos"
	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
	domainErrors "github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

type mockTransactionRepo struct {
	findByIDFunc             func(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)
	findByIdempotencyKeyFunc func(ctx context.Context, key string) (*entities.Transaction, error)
	listFunc                 func(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, error)

	lastFilter ports.TransactionFilter
	lastOffset int
	lastLimit  int
}

func (m *mockTransactionRepo) Create(ctx context.Context, tx *entities.Transaction) error {
	return nil
}

func (m *mockTransactionRepo) UpdateStatus(ctx context.Context, tx *entities.Transaction) error {
	return nil
}

func (m *mockTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrTransactionNotFound
}

func (m *mockTransactionRepo) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	if m.findByIdempotencyKeyFunc != nil {
		return m.findByIdempotencyKeyFunc(ctx, key)
	}
	return nil, domainErrors.ErrTransactionNotFound
}

func (m *mockTransactionRepo) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, error) {
	m.lastFilter, m.lastOffset, m.lastLimit = filter, offset, limit
	if m.listFunc != nil {
		return m.listFunc(ctx, filter, offset, limit)
	}
	return nil, nil
}

func completedTransaction(t *testing.T, key string) *entities.Transaction {
	t.Helper()
	tx, err := entities.NewTransaction(key, entities.TransactionTypeTopUp, uuid.New(), uuid.New(),
		valueobjects.MustAmount("100"), "", nil)
	require.NoError(t, err)
	require.NoError(t, tx.MarkCompleted())
	return tx
}

func TestGetTransactionUseCase(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		stored := completedTransaction(t, "key-1")
		repo := &mockTransactionRepo{
			findByIDFunc: func(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
				assert.Equal(t, stored.ID(), id)
				return stored, nil
			},
		}
		uc := NewGetTransactionUseCase(repo)

		result, err := uc.Execute(context.Background(), dtos.GetTransactionQuery{ID: stored.ID().String()})
		require.NoError(t, err)
		assert.Equal(t, stored.ID().String(), result.ID)
		assert.Equal(t, "COMPLETED", result.Status)
	})

	t.Run("malformed id", func(t *testing.T) {
		uc := NewGetTransactionUseCase(&mockTransactionRepo{})
		_, err := uc.Execute(context.Background(), dtos.GetTransactionQuery{ID: "garbage"})
		var ve domainErrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "id", ve.Field)
	})

	t.Run("not found", func(t *testing.T) {
		uc := NewGetTransactionUseCase(&mockTransactionRepo{})
		_, err := uc.Execute(context.Background(), dtos.GetTransactionQuery{ID: uuid.NewString()})
		assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
	})
}

func TestGetByIdempotencyKeyUseCase(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		stored := completedTransaction(t, "key-1")
		repo := &mockTransactionRepo{
			findByIdempotencyKeyFunc: func(ctx context.Context, key string) (*entities.Transaction, error) {
				assert.Equal(t, "key-1", key)
				return stored, nil
			},
		}
		uc := NewGetByIdempotencyKeyUseCase(repo)

		result, err := uc.Execute(context.Background(), dtos.GetTransactionByIdempotencyKeyQuery{IdempotencyKey: "key-1"})
		require.NoError(t, err)
		assert.Equal(t, "key-1", result.IdempotencyKey)
	})

	t.Run("empty key", func(t *testing.T) {
		uc := NewGetByIdempotencyKeyUseCase(&mockTransactionRepo{})
		_, err := uc.Execute(context.Background(), dtos.GetTransactionByIdempotencyKeyQuery{})
		assert.ErrorIs(t, err, domainErrors.ErrIdempotencyKeyRequired)
	})
}

func TestListTransactionsUseCase(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		repo := &mockTransactionRepo{}
		uc := NewListTransactionsUseCase(repo)

		result, err := uc.Execute(context.Background(), dtos.ListTransactionsQuery{Offset: -5})
		require.NoError(t, err)
		assert.Equal(t, 0, repo.lastOffset)
		assert.Equal(t, DefaultListLimit, repo.lastLimit)
		assert.Empty(t, result.Items)
	})

	t.Run("limit capped", func(t *testing.T) {
		repo := &mockTransactionRepo{}
		uc := NewListTransactionsUseCase(repo)

		_, err := uc.Execute(context.Background(), dtos.ListTransactionsQuery{Limit: 10000})
		require.NoError(t, err)
		assert.Equal(t, MaxListLimit, repo.lastLimit)
	})

	t.Run("filters forwarded", func(t *testing.T) {
		repo := &mockTransactionRepo{}
		uc := NewListTransactionsUseCase(repo)
		userID := uuid.New()

		_, err := uc.Execute(context.Background(), dtos.ListTransactionsQuery{
			UserID: userID.String(),
			Type:   "PURCHASE",
		})
		require.NoError(t, err)
		require.NotNil(t, repo.lastFilter.UserID)
		assert.Equal(t, userID, *repo.lastFilter.UserID)
		require.NotNil(t, repo.lastFilter.Type)
		assert.Equal(t, entities.TransactionTypePurchase, *repo.lastFilter.Type)
	})

	t.Run("bad user id", func(t *testing.T) {
		uc := NewListTransactionsUseCase(&mockTransactionRepo{})
		_, err := uc.Execute(context.Background(), dtos.ListTransactionsQuery{UserID: "nope"})
		var ve domainErrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "user_id", ve.Field)
	})

	t.Run("bad type", func(t *testing.T) {
		uc := NewListTransactionsUseCase(&mockTransactionRepo{})
		_, err := uc.Execute(context.Background(), dtos.ListTransactionsQuery{Type: "REFUND"})
		var ve domainErrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "type", ve.Field)
	})
}
