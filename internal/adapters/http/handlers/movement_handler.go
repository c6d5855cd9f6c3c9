// Package handlers contains the gin handlers. Each handler depends on narrow
// use-case interfaces so tests can swap in fakes without the full container.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	httpapi "github.com/dkrylov/coinledger/internal/adapters/http"
	"github.com/dkrylov/coinledger/internal/adapters/http/middleware"
	"github.com/dkrylov/coinledger/internal/application/dtos"
)

// IdempotencyKeyHeader carries the caller-supplied idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

// MovementUseCase is the shape shared by top-up, bonus and purchase.
type MovementUseCase interface {
	Execute(ctx context.Context, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error)
}

// MovementHandler serves the three movement endpoints.
type MovementHandler struct {
	topUp    MovementUseCase
	bonus    MovementUseCase
	purchase MovementUseCase
	logger   *slog.Logger
}

// NewMovementHandler creates the handler.
func NewMovementHandler(topUp, bonus, purchase MovementUseCase, logger *slog.Logger) *MovementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MovementHandler{topUp: topUp, bonus: bonus, purchase: purchase, logger: logger}
}

// movementRequest is the JSON body of all movement endpoints. The
// idempotency key travels in the Idempotency-Key header, not the body.
type movementRequest struct {
	UserID        string         `json:"user_id" binding:"required,uuid"`
	AssetTypeCode string         `json:"asset_type_code" binding:"required"`
	Amount        string         `json:"amount" binding:"required"`
	ReferenceID   string         `json:"reference_id"`
	Metadata      map[string]any `json:"metadata"`
}

// TopUp handles POST /api/v1/movements/topup.
func (h *MovementHandler) TopUp(c *gin.Context) {
	h.execute(c, h.topUp, "TOP_UP")
}

// Bonus handles POST /api/v1/movements/bonus.
func (h *MovementHandler) Bonus(c *gin.Context) {
	h.execute(c, h.bonus, "BONUS")
}

// Purchase handles POST /api/v1/movements/purchase.
func (h *MovementHandler) Purchase(c *gin.Context) {
	h.execute(c, h.purchase, "PURCHASE")
}

func (h *MovementHandler) execute(c *gin.Context, uc MovementUseCase, movementType string) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, &httpapi.APIError{
			Code:    httpapi.ErrCodeValidation,
			Message: err.Error(),
		})
		return
	}

	cmd := dtos.MovementCommand{
		UserID:         req.UserID,
		AssetTypeCode:  req.AssetTypeCode,
		Amount:         req.Amount,
		ReferenceID:    req.ReferenceID,
		Metadata:       req.Metadata,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	}

	result, err := uc.Execute(c.Request.Context(), cmd)
	if err != nil {
		middleware.RecordMovement(movementType, "rejected", req.AssetTypeCode)
		httpapi.HandleDomainError(c, err)
		return
	}

	if result.Replayed {
		middleware.RecordReplay(movementType)
		c.Header("Idempotency-Replayed", "true")
	}
	middleware.RecordMovement(movementType, "completed", req.AssetTypeCode)
	httpapi.Success(c, http.StatusOK, result)
}
