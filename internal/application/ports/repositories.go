// Package ports defines the interfaces the application layer depends on.
// Infrastructure provides the implementations (PostgreSQL, NATS, Redis);
// tests provide in-memory fakes.
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/dkrylov/coinledger/internal/domain/entities"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

// UserRepository stores reference users. The ledger core only reads; Save
// exists for the bootstrap seeder.
type UserRepository interface {
	Save(ctx context.Context, user *entities.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	// FindSystemUser returns the unique SYSTEM/treasury user.
	FindSystemUser(ctx context.Context) (*entities.User, error)
}

// AssetTypeRepository stores virtual currency definitions.
type AssetTypeRepository interface {
	Save(ctx context.Context, assetType *entities.AssetType) error
	FindByCode(ctx context.Context, code string) (*entities.AssetType, error)
	List(ctx context.Context) ([]*entities.AssetType, error)
}

// WalletRepository is the wallet lookup collaborator plus the wallet locker.
type WalletRepository interface {
	// Save inserts a new wallet. Duplicate (user, asset type) pairs fail.
	Save(ctx context.Context, wallet *entities.Wallet) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)

	// FindUserWallet resolves the wallet of (userID, assetTypeCode).
	FindUserWallet(ctx context.Context, userID uuid.UUID, assetTypeCode string) (*entities.Wallet, error)

	// FindTreasuryWallet resolves the unique SYSTEM-owned wallet of an asset.
	FindTreasuryWallet(ctx context.Context, assetTypeCode string) (*entities.Wallet, error)

	// LockForMovement acquires exclusive row locks on one or two wallets,
	// always locking the smaller wallet id (UUID byte order) first so that
	// concurrent movements can never deadlock. The wallets come back in the
	// caller's (source, destination) order; when sourceID == destinationID a
	// single lock is taken and the same wallet is returned twice. Must run
	// inside a unit-of-work transaction; locks are held until it ends.
	LockForMovement(ctx context.Context, sourceID, destinationID uuid.UUID) (source, destination *entities.Wallet, err error)

	// UpdateBalance persists a new balance for a row the caller has locked.
	UpdateBalance(ctx context.Context, walletID uuid.UUID, balance valueobjects.Amount) error
}

// TransactionFilter narrows List results.
type TransactionFilter struct {
	UserID *uuid.UUID
	Type   *entities.TransactionType
}

// TransactionRepository stores monetary transactions.
type TransactionRepository interface {
	// Create inserts a PENDING row. A unique violation on idempotency_key
	// surfaces as ErrDuplicateIdempotencyKey so the executor can collapse
	// the race onto the winning insert.
	Create(ctx context.Context, tx *entities.Transaction) error

	// UpdateStatus persists a status transition (PENDING -> terminal).
	UpdateStatus(ctx context.Context, tx *entities.Transaction) error

	// FindByID loads a transaction with its ledger entries attached.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)

	// FindByIdempotencyKey loads a transaction with its ledger entries
	// attached; ErrTransactionNotFound when absent.
	FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error)

	List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*entities.Transaction, error)
}

// LedgerRepository is append-only storage for ledger entries.
type LedgerRepository interface {
	// AppendPair batch-inserts the debit and credit of one movement.
	AppendPair(ctx context.Context, debit, credit *entities.LedgerEntry) error

	// AppendGenesisCredit inserts the single CREDIT of a bootstrap genesis
	// mint; rejected unless the owning transaction carries the genesis_mint
	// metadata reason.
	AppendGenesisCredit(ctx context.Context, tx *entities.Transaction, entry *entities.LedgerEntry) error

	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error)

	// FindLatestByWalletID returns the most recent entry for a wallet; its
	// balanceAfter must equal the wallet's current balance.
	FindLatestByWalletID(ctx context.Context, walletID uuid.UUID) (*entities.LedgerEntry, error)

	// Update always fails with ErrLedgerImmutable. It exists so the audit
	// contract is stated in the type system rather than by convention.
	Update(ctx context.Context, entry *entities.LedgerEntry) error

	// Totals returns the global DEBIT and CREDIT sums for zero-sum audits.
	Totals(ctx context.Context) (debits, credits valueobjects.Amount, err error)
}
