// Package entities - Wallet holds the balance of one (user, asset type) pair.
// Balance is mutated only by the movement executor while it holds an
// exclusive row lock on the wallet.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

// Wallet invariants:
//   - a USER-owned wallet never has a negative balance after a committed
//     transaction;
//   - a SYSTEM-owned (treasury) wallet may go negative, since it is the
//     counterparty for all minting.
type Wallet struct {
	id          uuid.UUID
	userID      uuid.UUID
	assetTypeID uuid.UUID
	assetCode   string
	systemOwned bool
	balance     valueobjects.Amount
	createdAt   time.Time
	updatedAt   time.Time
}

// NewWallet creates a wallet with a zero balance.
func NewWallet(userID, assetTypeID uuid.UUID, assetCode string, systemOwned bool) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		id:          uuid.New(),
		userID:      userID,
		assetTypeID: assetTypeID,
		assetCode:   assetCode,
		systemOwned: systemOwned,
		balance:     valueobjects.ZeroAmount(),
		createdAt:   now,
		updatedAt:   now,
	}
}

// ReconstructWallet hydrates a Wallet from stored data.
func ReconstructWallet(
	id, userID, assetTypeID uuid.UUID,
	assetCode string,
	systemOwned bool,
	balance valueobjects.Amount,
	createdAt, updatedAt time.Time,
) *Wallet {
	return &Wallet{
		id:          id,
		userID:      userID,
		assetTypeID: assetTypeID,
		assetCode:   assetCode,
		systemOwned: systemOwned,
		balance:     balance,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (w *Wallet) ID() uuid.UUID { return w.id }
func (w *Wallet) UserID() uuid.UUID { return w.userID }
func (w *Wallet) AssetTypeID() uuid.UUID { return w.assetTypeID }
func (w *Wallet) AssetCode() string { return w.assetCode }
func (w *Wallet) IsSystemOwned() bool { return w.systemOwned }
func (w *Wallet) Balance() valueobjects.Amount { return w.balance }
func (w *Wallet) CreatedAt() time.Time { return w.createdAt }
func (w *Wallet) UpdatedAt() time.Time { return w.updatedAt }

// CanCover reports whether the balance is sufficient for amount.
func (w *Wallet) CanCover(amount valueobjects.Amount) bool {
	return w.balance.GreaterThanOrEqual(amount)
}

// Credit adds amount to the balance.
func (w *Wallet) Credit(amount valueobjects.Amount) error {
	if !amount.IsPositive() {
		return errors.ErrNonPositiveAmount
	}
	newBalance, err := w.balance.Add(amount)
	if err != nil {
		return err
	}
	w.balance = newBalance
	w.updatedAt = time.Now().UTC()
	return nil
}

// Debit subtracts amount from the balance. For USER-owned wallets the
// balance must cover the amount; treasury wallets may go negative.
func (w *Wallet) Debit(amount valueobjects.Amount) error {
	if !amount.IsPositive() {
		return errors.ErrNonPositiveAmount
	}
	if !w.systemOwned && !w.CanCover(amount) {
		return &errors.InsufficientBalanceError{
			WalletID:  w.id.String(),
			Available: w.balance,
			Required:  amount,
		}
	}
	newBalance, err := w.balance.Sub(amount)
	if err != nil {
		return err
	}
	w.balance = newBalance
	w.updatedAt = time.Now().UTC()
	return nil
}
