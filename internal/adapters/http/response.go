// Package http adapts the ledger use cases to a REST API with gin. The
// adapter holds no business logic: it binds requests, calls use cases and
// maps the domain error taxonomy onto HTTP status codes.
package http

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/dkrylov/coinledger/internal/domain/errors"
)

// API error codes.
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeConflictInFlight    = "REQUEST_IN_FLIGHT"
	ErrCodeTerminallyFailed    = "IDEMPOTENCY_KEY_FAILED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// APIResponse is the uniform response envelope.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError carries a machine-readable code plus a human message.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Success writes a 2xx envelope.
func Success(c *gin.Context, status int, data any) {
	c.JSON(status, APIResponse{Success: true, Data: data})
}

// Error writes an error envelope.
func Error(c *gin.Context, status int, apiErr *APIError) {
	c.JSON(status, APIResponse{Success: false, Error: apiErr})
}

// HandleDomainError maps the domain error taxonomy to HTTP.
//
//	validation            -> 400
//	not found             -> 404
//	in-flight conflict    -> 409 (retry later, same key)
//	insufficient balance  -> 422 (retry after funding, same key)
//	terminally failed key -> 422 (new key required)
//	anything else         -> 500
func HandleDomainError(c *gin.Context, err error) {
	var validationErr domainErrors.ValidationError
	if stderrors.As(err, &validationErr) {
		Error(c, http.StatusBadRequest, &APIError{
			Code:    ErrCodeValidation,
			Message: validationErr.Message,
			Details: map[string]any{"field": validationErr.Field},
		})
		return
	}

	if stderrors.Is(err, domainErrors.ErrIdempotencyKeyRequired) {
		Error(c, http.StatusBadRequest, &APIError{
			Code:    ErrCodeValidation,
			Message: "Idempotency-Key header is required",
		})
		return
	}

	if domainErrors.IsNotFound(err) {
		Error(c, http.StatusNotFound, &APIError{
			Code:    ErrCodeNotFound,
			Message: err.Error(),
		})
		return
	}

	if stderrors.Is(err, domainErrors.ErrConflictInFlight) {
		Error(c, http.StatusConflict, &APIError{
			Code:    ErrCodeConflictInFlight,
			Message: "a request with this idempotency key is still being processed; retry shortly",
		})
		return
	}

	var insufficientErr *domainErrors.InsufficientBalanceError
	if stderrors.As(err, &insufficientErr) {
		Error(c, http.StatusUnprocessableEntity, &APIError{
			Code:    ErrCodeInsufficientBalance,
			Message: "insufficient balance",
			Details: map[string]any{
				"wallet_id": insufficientErr.WalletID,
				"available": insufficientErr.Available.String(),
				"required":  insufficientErr.Required.String(),
			},
		})
		return
	}

	var failedErr *domainErrors.TerminallyFailedError
	if stderrors.As(err, &failedErr) {
		Error(c, http.StatusUnprocessableEntity, &APIError{
			Code:    ErrCodeTerminallyFailed,
			Message: "a previous request with this idempotency key failed permanently; use a new key",
			Details: map[string]any{"reason": failedErr.Reason},
		})
		return
	}

	Error(c, http.StatusInternalServerError, &APIError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
	})
}
