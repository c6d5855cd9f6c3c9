package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	httpapi "github.com/dkrylov/coinledger/internal/adapters/http"
	"github.com/dkrylov/coinledger/internal/application/dtos"
)

// GetTransactionUseCase fetches one transaction by id.
type GetTransactionUseCase interface {
	Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error)
}

// GetByIdempotencyKeyUseCase resolves an idempotency key to its transaction.
type GetByIdempotencyKeyUseCase interface {
	Execute(ctx context.Context, query dtos.GetTransactionByIdempotencyKeyQuery) (*dtos.TransactionDTO, error)
}

// ListTransactionsUseCase lists transactions with filters.
type ListTransactionsUseCase interface {
	Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.TransactionListDTO, error)
}

// TransactionHandler serves the read-side endpoints.
type TransactionHandler struct {
	getTransaction GetTransactionUseCase
	getByKey       GetByIdempotencyKeyUseCase
	list           ListTransactionsUseCase
}

// NewTransactionHandler creates the handler.
func NewTransactionHandler(
	getTransaction GetTransactionUseCase,
	getByKey GetByIdempotencyKeyUseCase,
	list ListTransactionsUseCase,
) *TransactionHandler {
	return &TransactionHandler{
		getTransaction: getTransaction,
		getByKey:       getByKey,
		list:           list,
	}
}

// GetTransaction handles GET /api/v1/transactions/:id.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	result, err := h.getTransaction.Execute(c.Request.Context(), dtos.GetTransactionQuery{
		ID: c.Param("id"),
	})
	if err != nil {
		httpapi.HandleDomainError(c, err)
		return
	}
	httpapi.Success(c, http.StatusOK, result)
}

// GetByIdempotencyKey handles GET /api/v1/transactions/by-key/:key.
func (h *TransactionHandler) GetByIdempotencyKey(c *gin.Context) {
	result, err := h.getByKey.Execute(c.Request.Context(), dtos.GetTransactionByIdempotencyKeyQuery{
		IdempotencyKey: c.Param("key"),
	})
	if err != nil {
		httpapi.HandleDomainError(c, err)
		return
	}
	httpapi.Success(c, http.StatusOK, result)
}

// ListTransactions handles GET /api/v1/transactions.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	result, err := h.list.Execute(c.Request.Context(), dtos.ListTransactionsQuery{
		UserID: c.Query("user_id"),
		Type:   c.Query("type"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		httpapi.HandleDomainError(c, err)
		return
	}
	httpapi.Success(c, http.StatusOK, result)
}
