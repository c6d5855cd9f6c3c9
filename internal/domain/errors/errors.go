// Package errors defines the domain error taxonomy. Typed errors (instead of
// strings) let the HTTP adapter and callers branch on specific outcomes with
// errors.Is / errors.As while keeping the error chain intact.
package errors

import (
	"errors"
	"fmt"

	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

// Sentinel errors.
var (
	ErrEntityNotFound      = errors.New("entity not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrAssetTypeNotFound   = errors.New("asset type not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInsufficientBalance - source wallet below the required amount after
	// lock acquisition. The executor rolls back without consuming the
	// idempotency key, so a corrected retry with the same key succeeds.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDuplicateIdempotencyKey - the storage backend reported a unique
	// violation on transactions.idempotency_key. Recovered by the executor:
	// the losing inserter rolls back and returns the winner's transaction.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrConflictInFlight - a prior attempt with this idempotency key is
	// still PENDING; the caller must not retry yet.
	ErrConflictInFlight = errors.New("request with this idempotency key is still in flight")

	// ErrTerminallyFailed - a prior attempt with this idempotency key was
	// persisted as FAILED; the caller must change something before reuse.
	ErrTerminallyFailed = errors.New("request with this idempotency key terminally failed")

	// ErrLedgerImmutable - attempted mutation of a ledger entry. Programmer
	// error; the audit trail is append-only.
	ErrLedgerImmutable = errors.New("ledger entries are immutable")

	ErrInvalidTransactionType   = errors.New("invalid transaction type")
	ErrTransactionNotPending    = errors.New("transaction is not in pending state")
	ErrTransactionAlreadyFinal  = errors.New("transaction already reached a terminal state")
	ErrIdempotencyKeyRequired   = errors.New("idempotency key is required")
	ErrNonPositiveAmount        = errors.New("transaction amount must be strictly positive")
	ErrLedgerEntryAmountInvalid = errors.New("ledger entry amount must be strictly positive")
)

// InsufficientBalanceError carries the available and required values so
// callers can report the exact shortfall.
type InsufficientBalanceError struct {
	WalletID  string
	Available valueobjects.Amount
	Required  valueobjects.Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on wallet %s: available %s, required %s",
		e.WalletID, e.Available, e.Required)
}

// Is makes errors.Is(err, ErrInsufficientBalance) succeed.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// TerminallyFailedError echoes the error message recorded on the FAILED
// transaction the idempotency gate found.
type TerminallyFailedError struct {
	IdempotencyKey string
	Reason         string
}

func (e *TerminallyFailedError) Error() string {
	return fmt.Sprintf("idempotency key %q terminally failed: %s", e.IdempotencyKey, e.Reason)
}

func (e *TerminallyFailedError) Is(target error) bool {
	return target == ErrTerminallyFailed
}

// ValidationError reports a malformed input field. Raised before the core;
// the executor treats its inputs as validated.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
}

// StorageError wraps any backend failure that is not part of the business
// taxonomy: connectivity, timeouts, unexpected constraints, deadlocks the
// canonical lock order should have prevented.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err; nil-safe.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrAssetTypeNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}
