package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
	domainErrors "github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.WalletRepository = (*WalletRepository)(nil)

// WalletRepository implements ports.WalletRepository. Balances are stored as
// NUMERIC(18,4) and travel as decimal strings, never floats.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

func (r *WalletRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const walletColumns = `id, user_id, asset_type_id, asset_code, system_owned, balance::text, created_at, updated_at`

// Save inserts a new wallet. The UNIQUE (user_id, asset_type_id) constraint
// keeps one wallet per user per asset.
func (r *WalletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO wallets (id, user_id, asset_type_id, asset_code, system_owned, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, asset_type_id) DO NOTHING
	`

	_, err := q.Exec(ctx, query,
		wallet.ID(),
		wallet.UserID(),
		wallet.AssetTypeID(),
		wallet.AssetCode(),
		wallet.IsSystemOwned(),
		wallet.Balance().String(),
		wallet.CreatedAt(),
		wallet.UpdatedAt(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrUserNotFound
		}
		return domainErrors.NewStorageError("wallet.save", err)
	}
	return nil
}

// FindByID loads a wallet by id.
func (r *WalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return scanWallet(r.getQuerier(ctx).QueryRow(ctx, query, id))
}

// FindUserWallet resolves the non-system wallet of (userID, assetTypeCode).
func (r *WalletRepository) FindUserWallet(ctx context.Context, userID uuid.UUID, assetTypeCode string) (*entities.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE user_id = $1 AND asset_code = $2 AND system_owned = FALSE
	`
	return scanWallet(r.getQuerier(ctx).QueryRow(ctx, query, userID, assetTypeCode))
}

// FindTreasuryWallet resolves the unique SYSTEM-owned wallet of an asset.
func (r *WalletRepository) FindTreasuryWallet(ctx context.Context, assetTypeCode string) (*entities.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE asset_code = $1 AND system_owned = TRUE
	`
	return scanWallet(r.getQuerier(ctx).QueryRow(ctx, query, assetTypeCode))
}

// LockForMovement acquires FOR UPDATE locks on both wallets, always locking
// the smaller id (UUID byte order) first. Every concurrent movement touching
// the same wallet pair acquires locks in the same order, so lock cycles are
// impossible regardless of transfer direction.
func (r *WalletRepository) LockForMovement(ctx context.Context, sourceID, destinationID uuid.UUID) (*entities.Wallet, *entities.Wallet, error) {
	q := r.getQuerier(ctx)

	if sourceID == destinationID {
		w, err := r.lockOne(ctx, q, sourceID)
		if err != nil {
			return nil, nil, err
		}
		return w, w, nil
	}

	first, second := sourceID, destinationID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	firstWallet, err := r.lockOne(ctx, q, first)
	if err != nil {
		return nil, nil, err
	}
	secondWallet, err := r.lockOne(ctx, q, second)
	if err != nil {
		return nil, nil, err
	}

	if firstWallet.ID() == sourceID {
		return firstWallet, secondWallet, nil
	}
	return secondWallet, firstWallet, nil
}

func (r *WalletRepository) lockOne(ctx context.Context, q querier, id uuid.UUID) (*entities.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`
	return scanWallet(q.QueryRow(ctx, query, id))
}

// UpdateBalance persists a balance for a row the caller has locked.
func (r *WalletRepository) UpdateBalance(ctx context.Context, walletID uuid.UUID, balance valueobjects.Amount) error {
	q := r.getQuerier(ctx)

	query := `UPDATE wallets SET balance = $2, updated_at = $3 WHERE id = $1`

	result, err := q.Exec(ctx, query, walletID, balance.String(), time.Now().UTC())
	if err != nil {
		return domainErrors.NewStorageError("wallet.update_balance", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrWalletNotFound
	}
	return nil
}

func scanWallet(row pgx.Row) (*entities.Wallet, error) {
	var (
		id, userID, assetTypeID uuid.UUID
		assetCode               string
		systemOwned             bool
		balanceStr              string
		createdAt, updatedAt    time.Time
	)

	err := row.Scan(&id, &userID, &assetTypeID, &assetCode, &systemOwned, &balanceStr, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	balance, err := valueobjects.NewAmount(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid balance in database: %w", err)
	}

	return entities.ReconstructWallet(id, userID, assetTypeID, assetCode, systemOwned, balance, createdAt, updatedAt), nil
}
