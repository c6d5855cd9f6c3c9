package postgres

import (
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
var _ ports.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository implements ports.LedgerRepository. The table is
// append-only: there is no UPDATE or DELETE statement anywhere in this file,
// and Update exists only to refuse.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const ledgerInsert = `
	INSERT INTO ledger_entries (id, transaction_id, wallet_id, entry_type, amount, balance_after, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// AppendPair inserts the debit and credit of one movement.
func (r *LedgerRepository) AppendPair(ctx context.Context, debit, credit *entities.LedgerEntry) error {
	if !debit.IsDebit() || !credit.IsCredit() {
		return domainErrors.ErrLedgerEntryAmountInvalid
	}
	if !debit.Amount().Equal(credit.Amount()) {
		return domainErrors.ErrLedgerEntryAmountInvalid
	}

	q := r.getQuerier(ctx)
	for _, entry := range []*entities.LedgerEntry{debit, credit} {
		if err := r.insert(ctx, q, entry); err != nil {
			return err
		}
	}
	return nil
}

// AppendGenesisCredit inserts the single CREDIT of a bootstrap genesis mint.
// Only transactions carrying the genesis_mint metadata reason may bypass the
// two-entry rule.
func (r *LedgerRepository) AppendGenesisCredit(ctx context.Context, tx *entities.Transaction, entry *entities.LedgerEntry) error {
	if !tx.IsGenesisMint() {
		return domainErrors.ErrLedgerEntryAmountInvalid
	}
	if !entry.IsCredit() || entry.TransactionID() != tx.ID() {
		return domainErrors.ErrLedgerEntryAmountInvalid
	}
	return r.insert(ctx, r.getQuerier(ctx), entry)
}

func (r *LedgerRepository) insert(ctx context.Context, q querier, entry *entities.LedgerEntry) error {
	_, err := q.Exec(ctx, ledgerInsert,
		entry.ID(),
		entry.TransactionID(),
		entry.WalletID(),
		string(entry.Type()),
		entry.Amount().String(),
		entry.BalanceAfter().String(),
		entry.CreatedAt(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrTransactionNotFound
		}
		return domainErrors.NewStorageError("ledger.append", err)
	}
	return nil
}

const ledgerColumns = `id, transaction_id, wallet_id, entry_type, amount::text, balance_after::text, created_at`

// FindByTransactionID returns the entries of one transaction, DEBIT before
// CREDIT.
func (r *LedgerRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE transaction_id = $1 ORDER BY entry_type ASC`

	rows, err := r.getQuerier(ctx).Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find ledger entries: %w", err)
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
	return entries, nil
}

// FindLatestByWalletID returns the most recent entry for a wallet. Its
// balance_after must equal the wallet's current balance; audits rely on this.
func (r *LedgerRepository) FindLatestByWalletID(ctx context.Context, walletID uuid.UUID) (*entities.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	return scanLedgerEntry(r.getQuerier(ctx).QueryRow(ctx, query, walletID))
}

// Update always refuses: ledger entries are immutable.
func (r *LedgerRepository) Update(ctx context.Context, entry *entities.LedgerEntry) error {
	return domainErrors.ErrLedgerImmutable
}

// Totals returns the global DEBIT and CREDIT sums. Outside genesis credits
// the two must match exactly.
func (r *LedgerRepository) Totals(ctx context.Context) (valueobjects.Amount, valueobjects.Amount, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'DEBIT'), 0)::text,
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'CREDIT'), 0)::text
		FROM ledger_entries
	`

	var debitsStr, creditsStr string
	err := r.getQuerier(ctx).QueryRow(ctx, query).Scan(&debitsStr, &creditsStr)
	if err != nil {
		return valueobjects.Amount{}, valueobjects.Amount{}, domainErrors.NewStorageError("ledger.totals", err)
	}

	debits, err := valueobjects.NewAmount(debitsStr)
	if err != nil {
		return valueobjects.Amount{}, valueobjects.Amount{}, fmt.Errorf("invalid debit total: %w", err)
	}
	credits, err := valueobjects.NewAmount(creditsStr)
	if err != nil {
		return valueobjects.Amount{}, valueobjects.Amount{}, fmt.Errorf("invalid credit total: %w", err)
	}
	return debits, credits, nil
}

func scanLedgerEntry(row pgx.Row) (*entities.LedgerEntry, error) {
	var (
		id, transactionID, walletID uuid.UUID
		entryType                   string
		amountStr, balanceAfterStr  string
		createdAt                   time.Time
	)

	err := row.Scan(&id, &transactionID, &walletID, &entryType, &amountStr, &balanceAfterStr, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	amount, err := valueobjects.NewAmount(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger amount in database: %w", err)
	}
	balanceAfter, err := valueobjects.NewAmount(balanceAfterStr)
	if err != nil {
		return nil, fmt.Errorf("invalid balance_after in database: %w", err)
	}

	return entities.ReconstructLedgerEntry(
		id, transactionID, walletID,
		entities.EntryType(entryType),
		amount, balanceAfter,
		createdAt,
	), nil
}
