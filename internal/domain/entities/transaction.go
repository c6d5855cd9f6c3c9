// Package entities - Transaction is a single atomic value movement between
// two wallets, recorded as a debit/credit ledger pair.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

// TransactionType represents the movement kind.
type TransactionType string

const (
	TransactionTypeTopUp    TransactionType = "TOP_UP"   // treasury -> user wallet
	TransactionTypeBonus    TransactionType = "BONUS"    // treasury -> user wallet, promotional
	TransactionTypePurchase TransactionType = "PURCHASE" // user wallet -> treasury
)

// IsValid checks if the transaction type is valid.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTopUp, TransactionTypeBonus, TransactionTypePurchase:
		return true
	default:
		return false
	}
}

// TransactionStatus represents the lifecycle state.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// IsFinal returns true for terminal states. A transaction is never mutated
// after reaching one.
func (s TransactionStatus) IsFinal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// MaxIdempotencyKeyLength caps the caller-supplied key.
const MaxIdempotencyKeyLength = 255

// Transaction state machine: created PENDING inside the storage transaction,
// PENDING -> COMPLETED on commit, PENDING -> FAILED only by an outer policy.
type Transaction struct {
	id                  uuid.UUID
	idempotencyKey      string
	txType              TransactionType
	status              TransactionStatus
	sourceWalletID      uuid.UUID
	destinationWalletID uuid.UUID
	amount              valueobjects.Amount
	referenceID         string
	metadata            map[string]any
	errorMessage        string
	createdAt           time.Time
	updatedAt           time.Time
	completedAt         *time.Time

	// entries are loaded by the read path after commit; the write path
	// never needs the back-edge.
	entries []*LedgerEntry
}

// NewTransaction creates a PENDING transaction.
func NewTransaction(
	idempotencyKey string,
	txType TransactionType,
	sourceWalletID, destinationWalletID uuid.UUID,
	amount valueobjects.Amount,
	referenceID string,
	metadata map[string]any,
) (*Transaction, error) {
	if idempotencyKey == "" {
		return nil, errors.ErrIdempotencyKeyRequired
	}
	if len(idempotencyKey) > MaxIdempotencyKeyLength {
		return nil, errors.ValidationError{
			Field:   "idempotency_key",
			Message: "must be at most 255 characters",
		}
	}
	if !txType.IsValid() {
		return nil, errors.ErrInvalidTransactionType
	}
	if !amount.IsPositive() {
		return nil, errors.ErrNonPositiveAmount
	}
	if metadata == nil {
		metadata = make(map[string]any)
	}

	now := time.Now().UTC()
	return &Transaction{
		id:                  uuid.New(),
		idempotencyKey:      idempotencyKey,
		txType:              txType,
		status:              TransactionStatusPending,
		sourceWalletID:      sourceWalletID,
		destinationWalletID: destinationWalletID,
		amount:              amount,
		referenceID:         referenceID,
		metadata:            metadata,
		createdAt:           now,
		updatedAt:           now,
	}, nil
}

// ReconstructTransaction hydrates a Transaction from stored data.
func ReconstructTransaction(
	id uuid.UUID,
	idempotencyKey string,
	txType TransactionType,
	status TransactionStatus,
	sourceWalletID, destinationWalletID uuid.UUID,
	amount valueobjects.Amount,
	referenceID string,
	metadata map[string]any,
	errorMessage string,
	createdAt, updatedAt time.Time,
	completedAt *time.Time,
) *Transaction {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &Transaction{
		id:                  id,
		idempotencyKey:      idempotencyKey,
		txType:              txType,
		status:              status,
		sourceWalletID:      sourceWalletID,
		destinationWalletID: destinationWalletID,
		amount:              amount,
		referenceID:         referenceID,
		metadata:            metadata,
		errorMessage:        errorMessage,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
		completedAt:         completedAt,
	}
}

func (t *Transaction) ID() uuid.UUID { return t.id }
func (t *Transaction) IdempotencyKey() string { return t.idempotencyKey }
func (t *Transaction) Type() TransactionType { return t.txType }
func (t *Transaction) Status() TransactionStatus { return t.status }
func (t *Transaction) SourceWalletID() uuid.UUID { return t.sourceWalletID }
func (t *Transaction) DestinationWalletID() uuid.UUID { return t.destinationWalletID }
func (t *Transaction) Amount() valueobjects.Amount { return t.amount }
func (t *Transaction) ReferenceID() string { return t.referenceID }
func (t *Transaction) Metadata() map[string]any { return t.metadata }
func (t *Transaction) ErrorMessage() string { return t.errorMessage }
func (t *Transaction) CreatedAt() time.Time { return t.createdAt }
func (t *Transaction) UpdatedAt() time.Time { return t.updatedAt }
func (t *Transaction) CompletedAt() *time.Time { return t.completedAt }
func (t *Transaction) Entries() []*LedgerEntry { return t.entries }

func (t *Transaction) IsPending() bool { return t.status == TransactionStatusPending }
func (t *Transaction) IsCompleted() bool { return t.status == TransactionStatusCompleted }
func (t *Transaction) IsFailed() bool { return t.status == TransactionStatusFailed }

// IsGenesisMint reports whether this is the bootstrap-only self-transfer
// that funds a treasury wallet. Genesis transactions are the sole permitted
// exception to the two-entries-per-transaction rule.
func (t *Transaction) IsGenesisMint() bool {
	reason, ok := t.metadata["reason"].(string)
	return ok && reason == "genesis_mint"
}

// MarkCompleted transitions PENDING -> COMPLETED.
func (t *Transaction) MarkCompleted() error {
	if !t.IsPending() {
		return errors.ErrTransactionNotPending
	}
	now := time.Now().UTC()
	t.status = TransactionStatusCompleted
	t.completedAt = &now
	t.updatedAt = now
	return nil
}

// MarkFailed transitions PENDING -> FAILED with a recorded reason. The
// executor itself never persists FAILED rows (it rolls back instead); this
// exists for outer policies that choose to consume the key.
func (t *Transaction) MarkFailed(reason string) error {
	if t.status.IsFinal() {
		return errors.ErrTransactionAlreadyFinal
	}
	now := time.Now().UTC()
	t.status = TransactionStatusFailed
	t.errorMessage = reason
	t.completedAt = &now
	t.updatedAt = now
	return nil
}

// AttachEntries sets the materialized ledger pair on a read-path result.
func (t *Transaction) AttachEntries(entries []*LedgerEntry) {
	t.entries = entries
}
