package movement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
	domainErrors "github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/events"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

// Function-field mocks: each test overrides only the behaviour it cares
// about; everything else falls back to a benign default.

type mockUnitOfWork struct {
	executeFunc func(ctx context.Context, fn func(context.Context) error) error
	executed    int

	// Optional: when set, repository state is restored on error so the mock
	// behaves like a rolled-back storage transaction.
	txRepo  *mockTransactionRepo
	wallets *mockWalletRepo
	ledger  *mockLedgerRepo
}

func (m *mockUnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	m.executed++
	if m.executeFunc != nil {
		return m.executeFunc(ctx, fn)
	}

	var createdLen, updatedLen, pairsLen int
	var balances map[uuid.UUID]valueobjects.Amount
	if m.txRepo != nil {
		createdLen, updatedLen = len(m.txRepo.created), len(m.txRepo.updated)
	}
	if m.ledger != nil {
		pairsLen = len(m.ledger.pairs)
	}
	if m.wallets != nil {
		balances = make(map[uuid.UUID]valueobjects.Amount, len(m.wallets.balanceUpdates))
		for id, b := range m.wallets.balanceUpdates {
			balances[id] = b
		}
	}

	err := fn(ctx)
	if err != nil {
		if m.txRepo != nil {
			m.txRepo.created = m.txRepo.created[:createdLen]
			m.txRepo.updated = m.txRepo.updated[:updatedLen]
		}
		if m.ledger != nil {
			m.ledger.pairs = m.ledger.pairs[:pairsLen]
		}
		if m.wallets != nil {
			m.wallets.balanceUpdates = balances
		}
	}
	return err
}

type mockTransactionRepo struct {
	createFunc               func(ctx context.Context, tx *entities.Transaction) error
	updateStatusFunc         func(ctx context.Context, tx *entities.Transaction) error
	findByIDFunc             func(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)
	findByIdempotencyKeyFunc func(ctx context.Context, key string) (*entities.Transaction, error)

	created []*entities.Transaction
	updated []*entities.Transaction
}

func (m *mockTransactionRepo) Create(ctx context.Context, tx *entities.Transaction) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, tx); err != nil {
			return err
		}
	}
	m.created = append(m.created, tx)
	return nil
}

func (m *mockTransactionRepo) UpdateStatus(ctx context.Context, tx *entities.Transaction) error {
	if m.updateStatusFunc != nil {
		if err := m.updateStatusFunc(ctx, tx); err != nil {
			return err
		}
	}
	m.updated = append(m.updated, tx)
	return nil
}

func (m *mockTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	for _, tx := range m.created {
		if tx.ID() == id {
			return tx, nil
		}
	}
	return nil, domainErrors.ErrTransactionNotFound
}

func (m *mockTransactionRepo) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	if m.findByIdempotencyKeyFunc != nil {
		return m.findByIdempotencyKeyFunc(ctx, key)
	}
	for _, tx := range m.created {
		if tx.IdempotencyKey() == key {
			return tx, nil
		}
	}
	return nil, domainErrors.ErrTransactionNotFound
}

func (m *mockTransactionRepo) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, error) {
	return nil, nil
}

type mockWalletRepo struct {
	wallets map[uuid.UUID]*entities.Wallet

	lockFunc            func(ctx context.Context, sourceID, destinationID uuid.UUID) (*entities.Wallet, *entities.Wallet, error)
	updateBalanceFunc   func(ctx context.Context, walletID uuid.UUID, balance valueobjects.Amount) error
	treasuryFunc        func(ctx context.Context, assetTypeCode string) (*entities.Wallet, error)
	userWalletFunc      func(ctx context.Context, userID uuid.UUID, assetTypeCode string) (*entities.Wallet, error)
	lockedOrder         [][2]uuid.UUID
	balanceUpdates      map[uuid.UUID]valueobjects.Amount
}

func newMockWalletRepo(wallets ...*entities.Wallet) *mockWalletRepo {
	m := &mockWalletRepo{
		wallets:        make(map[uuid.UUID]*entities.Wallet),
		balanceUpdates: make(map[uuid.UUID]valueobjects.Amount),
	}
	for _, w := range wallets {
		m.wallets[w.ID()] = w
	}
	return m
}

func (m *mockWalletRepo) Save(ctx context.Context, wallet *entities.Wallet) error {
	m.wallets[wallet.ID()] = wallet
	return nil
}

func (m *mockWalletRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	if w, ok := m.wallets[id]; ok {
		return w, nil
	}
	return nil, domainErrors.ErrWalletNotFound
}

func (m *mockWalletRepo) FindUserWallet(ctx context.Context, userID uuid.UUID, assetTypeCode string) (*entities.Wallet, error) {
	if m.userWalletFunc != nil {
		return m.userWalletFunc(ctx, userID, assetTypeCode)
	}
	for _, w := range m.wallets {
		if w.UserID() == userID && w.AssetCode() == assetTypeCode && !w.IsSystemOwned() {
			return w, nil
		}
	}
	return nil, domainErrors.ErrWalletNotFound
}

func (m *mockWalletRepo) FindTreasuryWallet(ctx context.Context, assetTypeCode string) (*entities.Wallet, error) {
	if m.treasuryFunc != nil {
		return m.treasuryFunc(ctx, assetTypeCode)
	}
	for _, w := range m.wallets {
		if w.AssetCode() == assetTypeCode && w.IsSystemOwned() {
			return w, nil
		}
	}
	return nil, domainErrors.ErrWalletNotFound
}

func (m *mockWalletRepo) LockForMovement(ctx context.Context, sourceID, destinationID uuid.UUID) (*entities.Wallet, *entities.Wallet, error) {
	m.lockedOrder = append(m.lockedOrder, [2]uuid.UUID{sourceID, destinationID})
	if m.lockFunc != nil {
		return m.lockFunc(ctx, sourceID, destinationID)
	}
	source, ok := m.wallets[sourceID]
	if !ok {
		return nil, nil, domainErrors.ErrWalletNotFound
	}
	destination, ok := m.wallets[destinationID]
	if !ok {
		return nil, nil, domainErrors.ErrWalletNotFound
	}
	return source, destination, nil
}

func (m *mockWalletRepo) UpdateBalance(ctx context.Context, walletID uuid.UUID, balance valueobjects.Amount) error {
	if m.updateBalanceFunc != nil {
		return m.updateBalanceFunc(ctx, walletID, balance)
	}
	m.balanceUpdates[walletID] = balance
	return nil
}

type mockLedgerRepo struct {
	appendPairFunc func(ctx context.Context, debit, credit *entities.LedgerEntry) error
	pairs          [][2]*entities.LedgerEntry
}

func (m *mockLedgerRepo) AppendPair(ctx context.Context, debit, credit *entities.LedgerEntry) error {
	if m.appendPairFunc != nil {
		if err := m.appendPairFunc(ctx, debit, credit); err != nil {
			return err
		}
	}
	m.pairs = append(m.pairs, [2]*entities.LedgerEntry{debit, credit})
	return nil
}

func (m *mockLedgerRepo) AppendGenesisCredit(ctx context.Context, tx *entities.Transaction, entry *entities.LedgerEntry) error {
	return nil
}

func (m *mockLedgerRepo) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error) {
	for _, pair := range m.pairs {
		if pair[0].TransactionID() == transactionID {
			return []*entities.LedgerEntry{pair[0], pair[1]}, nil
		}
	}
	return nil, nil
}

func (m *mockLedgerRepo) FindLatestByWalletID(ctx context.Context, walletID uuid.UUID) (*entities.LedgerEntry, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockLedgerRepo) Update(ctx context.Context, entry *entities.LedgerEntry) error {
	return domainErrors.ErrLedgerImmutable
}

func (m *mockLedgerRepo) Totals(ctx context.Context) (valueobjects.Amount, valueobjects.Amount, error) {
	return valueobjects.ZeroAmount(), valueobjects.ZeroAmount(), nil
}

type mockEventPublisher struct {
	published []events.DomainEvent
	err       error
}

func (m *mockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, event)
	return nil
}

func (m *mockEventPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, batch...)
	return nil
}

type mockIdempotencyCache struct {
	reserveFunc func(ctx context.Context, key string, ttl time.Duration) (bool, string, error)
	reserved    map[string]bool
	stored      map[string]string
	released    []string
}

func newMockIdempotencyCache() *mockIdempotencyCache {
	return &mockIdempotencyCache{
		reserved: make(map[string]bool),
		stored:   make(map[string]string),
	}
}

func (m *mockIdempotencyCache) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	if m.reserveFunc != nil {
		return m.reserveFunc(ctx, key, ttl)
	}
	if m.reserved[key] {
		return false, m.stored[key], nil
	}
	m.reserved[key] = true
	return true, "", nil
}

func (m *mockIdempotencyCache) StoreResult(ctx context.Context, key, transactionID string, ttl time.Duration) error {
	m.reserved[key] = true
	m.stored[key] = transactionID
	return nil
}

func (m *mockIdempotencyCache) Release(ctx context.Context, key string) error {
	m.released = append(m.released, key)
	delete(m.reserved, key)
	delete(m.stored, key)
	return nil
}
