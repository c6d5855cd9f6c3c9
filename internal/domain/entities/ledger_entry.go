// Package entities - LedgerEntry is one immutable debit or credit line of a
// monetary transaction. For every COMPLETED transaction exactly two entries
// exist (one DEBIT on the source wallet, one CREDIT on the destination) with
// identical amounts; the genesis mint is the single bootstrap exception.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

// EntryType marks the side of the double entry.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// LedgerEntry has no mutators: entries are append-only. The repository
// additionally rejects UPDATE attempts with ErrLedgerImmutable.
type LedgerEntry struct {
	id            uuid.UUID
	transactionID uuid.UUID
	walletID      uuid.UUID
	entryType     EntryType
	amount        valueobjects.Amount
	balanceAfter  valueobjects.Amount
	createdAt     time.Time
}

// NewLedgerPair builds the debit/credit pair for one movement. balanceAfter
// values are the snapshots the executor computed under the row locks, not
// re-read from the wallet rows.
func NewLedgerPair(
	transactionID uuid.UUID,
	sourceWalletID, destinationWalletID uuid.UUID,
	amount valueobjects.Amount,
	sourceBalanceAfter, destinationBalanceAfter valueobjects.Amount,
) (debit, credit *LedgerEntry, err error) {
	if !amount.IsPositive() {
		return nil, nil, errors.ErrLedgerEntryAmountInvalid
	}

	now := time.Now().UTC()
	debit = &LedgerEntry{
		id:            uuid.New(),
		transactionID: transactionID,
		walletID:      sourceWalletID,
		entryType:     EntryTypeDebit,
		amount:        amount,
		balanceAfter:  sourceBalanceAfter,
		createdAt:     now,
	}
	credit = &LedgerEntry{
		id:            uuid.New(),
		transactionID: transactionID,
		walletID:      destinationWalletID,
		entryType:     EntryTypeCredit,
		amount:        amount,
		balanceAfter:  destinationBalanceAfter,
		createdAt:     now,
	}
	return debit, credit, nil
}

// NewGenesisCredit builds the single CREDIT entry of a bootstrap genesis
// mint. Callers must only use this for transactions whose metadata reason is
// "genesis_mint"; everywhere else the two-entry rule holds.
func NewGenesisCredit(
	transactionID, walletID uuid.UUID,
	amount, balanceAfter valueobjects.Amount,
) (*LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, errors.ErrLedgerEntryAmountInvalid
	}
	return &LedgerEntry{
		id:            uuid.New(),
		transactionID: transactionID,
		walletID:      walletID,
		entryType:     EntryTypeCredit,
		amount:        amount,
		balanceAfter:  balanceAfter,
		createdAt:     time.Now().UTC(),
	}, nil
}

// ReconstructLedgerEntry hydrates an entry from stored data.
func ReconstructLedgerEntry(
	id, transactionID, walletID uuid.UUID,
	entryType EntryType,
	amount, balanceAfter valueobjects.Amount,
	createdAt time.Time,
) *LedgerEntry {
	return &LedgerEntry{
		id:            id,
		transactionID: transactionID,
		walletID:      walletID,
		entryType:     entryType,
		amount:        amount,
		balanceAfter:  balanceAfter,
		createdAt:     createdAt,
	}
}

func (e *LedgerEntry) ID() uuid.UUID { return e.id }
func (e *LedgerEntry) TransactionID() uuid.UUID { return e.transactionID }
func (e *LedgerEntry) WalletID() uuid.UUID { return e.walletID }
func (e *LedgerEntry) Type() EntryType { return e.entryType }
func (e *LedgerEntry) Amount() valueobjects.Amount { return e.amount }
func (e *LedgerEntry) BalanceAfter() valueobjects.Amount { return e.balanceAfter }
func (e *LedgerEntry) CreatedAt() time.Time { return e.createdAt }

func (e *LedgerEntry) IsDebit() bool { return e.entryType == EntryTypeDebit }
func (e *LedgerEntry) IsCredit() bool { return e.entryType == EntryTypeCredit }
