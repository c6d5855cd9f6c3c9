package postgres

import (
	"context"
	"encoding/json"
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
var _ ports.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository implements ports.TransactionRepository. The UNIQUE
// constraint on idempotency_key is the integrity backstop of the whole
// idempotency design; Create translates its violation into
// ErrDuplicateIdempotencyKey for the executor's race collapse.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const transactionColumns = `id, idempotency_key, type, status, source_wallet_id, destination_wallet_id,
	amount::text, reference_id, metadata, error_message, created_at, updated_at, completed_at`

// Create inserts a PENDING transaction row.
func (r *TransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	metadata, err := json.Marshal(tx.Metadata())
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO transactions (
			id, idempotency_key, type, status, source_wallet_id, destination_wallet_id,
			amount, reference_id, metadata, error_message, created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = q.Exec(ctx, query,
		tx.ID(),
		tx.IdempotencyKey(),
		string(tx.Type()),
		string(tx.Status()),
		tx.SourceWalletID(),
		tx.DestinationWalletID(),
		tx.Amount().String(),
		tx.ReferenceID(),
		metadata,
		tx.ErrorMessage(),
		tx.CreatedAt(),
		tx.UpdatedAt(),
		tx.CompletedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "transactions_idempotency_key") {
			return domainErrors.ErrDuplicateIdempotencyKey
		}
		if isForeignKeyViolation(err) {
			return domainErrors.ErrWalletNotFound
		}
		return domainErrors.NewStorageError("transaction.create", err)
	}
	return nil
}

// UpdateStatus persists a status transition out of PENDING. The WHERE clause
// enforces terminal-state immutability at the storage level too.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE transactions
		SET status = $2, error_message = $3, updated_at = $4, completed_at = $5
		WHERE id = $1 AND status = 'PENDING'
	`

	result, err := q.Exec(ctx, query,
		tx.ID(),
		string(tx.Status()),
		tx.ErrorMessage(),
		tx.UpdatedAt(),
		tx.CompletedAt(),
	)
	if err != nil {
		return domainErrors.NewStorageError("transaction.update_status", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrTransactionNotPending
	}
	return nil
}

// FindByID loads a transaction with its ledger entries attached.
func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return r.attachEntries(ctx, q, tx)
}

// FindByIdempotencyKey loads a transaction by key with entries attached.
func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1`

	tx, err := scanTransaction(q.QueryRow(ctx, query, key))
	if err != nil {
		return nil, err
	}
	return r.attachEntries(ctx, q, tx)
}

// List returns transactions matching the filter, newest first. The user
// filter matches movements on any wallet owned by the user.
func (r *TransactionRepository) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.UserID != nil {
		query += fmt.Sprintf(` AND (source_wallet_id IN (SELECT id FROM wallets WHERE user_id = $%d)
			OR destination_wallet_id IN (SELECT id FROM wallets WHERE user_id = $%d))`, argNum, argNum)
		args = append(args, *filter.UserID)
		argNum++
	}

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argNum)
		args = append(args, string(*filter.Type))
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", argNum, argNum+1)
	args = append(args, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var result []*entities.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return result, nil
}

// attachEntries loads the ledger pair for a materialized transaction.
func (r *TransactionRepository) attachEntries(ctx context.Context, q querier, tx *entities.Transaction) (*entities.Transaction, error) {
	query := `
		SELECT id, transaction_id, wallet_id, entry_type, amount::text, balance_after::text, created_at
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY entry_type ASC
	`

	rows, err := q.Query(ctx, query, tx.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entry rows: %w", err)
	}

	tx.AttachEntries(entries)
	return tx, nil
}

func scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	var (
		id, sourceWalletID, destinationWalletID uuid.UUID
		idempotencyKey, txType, status          string
		amountStr, referenceID, errorMessage    string
		metadataRaw                             []byte
		createdAt, updatedAt                    time.Time
		completedAt                             *time.Time
	)

	err := row.Scan(
		&id, &idempotencyKey, &txType, &status,
		&sourceWalletID, &destinationWalletID,
		&amountStr, &referenceID, &metadataRaw, &errorMessage,
		&createdAt, &updatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	amount, err := valueobjects.NewAmount(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in database: %w", err)
	}

	var metadata map[string]any
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
			return nil, fmt.Errorf("invalid metadata in database: %w", err)
		}
	}

	return entities.ReconstructTransaction(
		id,
		idempotencyKey,
		entities.TransactionType(txType),
		entities.TransactionStatus(status),
		sourceWalletID, destinationWalletID,
		amount,
		referenceID,
		metadata,
		errorMessage,
		createdAt, updatedAt, completedAt,
	), nil
}
