package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrylov/coinledger/internal/application/dtos"
	domainErrors "github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

type fakeMovementUseCase struct {
	executeFunc func(ctx context.Context, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error)
	lastCommand dtos.MovementCommand
}

func (f *fakeMovementUseCase) Execute(ctx context.Context, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error) {
	f.lastCommand = cmd
	if f.executeFunc != nil {
		return f.executeFunc(ctx, cmd)
	}
	return &dtos.TransactionDTO{ID: "11111111-1111-1111-1111-111111111111", Status: "COMPLETED"}, nil
}

func setupMovementRouter(uc *fakeMovementUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewMovementHandler(uc, uc, uc, nil)
	router := gin.New()
	router.POST("/api/v1/movements/topup", handler.TopUp)
	router.POST("/api/v1/movements/purchase", handler.Purchase)
	return router
}

func performMovement(router *gin.Engine, path, body, idempotencyKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(IdempotencyKeyHeader, idempotencyKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const validMovementBody = `{
	"user_id": "22222222-2222-2222-2222-222222222222",
	"asset_type_code": "GOLD",
	"amount": "100.50",
	"reference_id": "order-1"
}`

func TestMovementHandler_TopUp(t *testing.T) {
	uc := &fakeMovementUseCase{}
	router := setupMovementRouter(uc)

	rec := performMovement(router, "/api/v1/movements/topup", validMovementBody, "key-1")

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool                `json:"success"`
		Data    dtos.TransactionDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "COMPLETED", envelope.Data.Status)

	assert.Equal(t, "key-1", uc.lastCommand.IdempotencyKey)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", uc.lastCommand.UserID)
	assert.Equal(t, "GOLD", uc.lastCommand.AssetTypeCode)
	assert.Equal(t, "100.50", uc.lastCommand.Amount)
}

func TestMovementHandler_ReplayHeader(t *testing.T) {
	uc := &fakeMovementUseCase{
		executeFunc: func(ctx context.Context, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error) {
			return &dtos.TransactionDTO{ID: "11111111-1111-1111-1111-111111111111", Status: "COMPLETED", Replayed: true}, nil
		},
	}
	router := setupMovementRouter(uc)

	rec := performMovement(router, "/api/v1/movements/topup", validMovementBody, "key-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotency-Replayed"))
}

func TestMovementHandler_InvalidBody(t *testing.T) {
	uc := &fakeMovementUseCase{}
	router := setupMovementRouter(uc)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"user_id":`},
		{"missing user id", `{"asset_type_code":"GOLD","amount":"10"}`},
		{"user id not a uuid", `{"user_id":"abc","asset_type_code":"GOLD","amount":"10"}`},
		{"missing amount", `{"user_id":"22222222-2222-2222-2222-222222222222","asset_type_code":"GOLD"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := performMovement(router, "/api/v1/movements/topup", tt.body, "key-1")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
		})
	}
}

func TestMovementHandler_MissingIdempotencyKey(t *testing.T) {
	uc := &fakeMovementUseCase{
		executeFunc: func(ctx context.Context, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error) {
			return nil, domainErrors.ErrIdempotencyKeyRequired
		},
	}
	router := setupMovementRouter(uc)

	rec := performMovement(router, "/api/v1/movements/topup", validMovementBody, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Idempotency-Key header is required")
	assert.Empty(t, uc.lastCommand.IdempotencyKey)
}

func TestMovementHandler_InsufficientBalance(t *testing.T) {
	uc := &fakeMovementUseCase{
		executeFunc: func(ctx context.Context, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error) {
			available, _ := valueobjects.NewAmount("20")
			required, _ := valueobjects.NewAmount("100.50")
			return nil, &domainErrors.InsufficientBalanceError{
				WalletID:  "33333333-3333-3333-3333-333333333333",
				Available: available,
				Required:  required,
			}
		},
	}
	router := setupMovementRouter(uc)

	rec := performMovement(router, "/api/v1/movements/purchase", validMovementBody, "key-2")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "INSUFFICIENT_BALANCE")
	assert.Contains(t, rec.Body.String(), "33333333-3333-3333-3333-333333333333")
}

func TestMovementHandler_ConflictInFlight(t *testing.T) {
	uc := &fakeMovementUseCase{
		executeFunc: func(ctx context.Context, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error) {
			return nil, domainErrors.ErrConflictInFlight
		},
	}
	router := setupMovementRouter(uc)

	rec := performMovement(router, "/api/v1/movements/topup", validMovementBody, "key-3")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "REQUEST_IN_FLIGHT")
}

func TestMovementHandler_TerminallyFailedKey(t *testing.T) {
	uc := &fakeMovementUseCase{
		executeFunc: func(ctx context.Context, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error) {
			return nil, &domainErrors.TerminallyFailedError{
				IdempotencyKey: cmd.IdempotencyKey,
				Reason:         "destination wallet closed",
			}
		},
	}
	router := setupMovementRouter(uc)

	rec := performMovement(router, "/api/v1/movements/topup", validMovementBody, "key-4")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "IDEMPOTENCY_KEY_FAILED")
	assert.Contains(t, rec.Body.String(), "destination wallet closed")
}
