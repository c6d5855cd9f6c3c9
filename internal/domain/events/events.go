// Package events defines domain events raised after committed value
// movements. Events are immutable facts; publishing is fire-and-forget and
// never affects the outcome of the movement itself.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
}

// BaseEvent provides the common fields, embedded in specific event types.
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now().UTC(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID { return e.eventID }
func (e BaseEvent) EventType() string { return e.eventType }
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }
func (e BaseEvent) AggregateID() uuid.UUID { return e.aggregateID }

const (
	EventTypeMovementCompleted = "ledger.movement.completed"
	EventTypeWalletDebited     = "ledger.wallet.debited"
	EventTypeWalletCredited    = "ledger.wallet.credited"
)

// MovementCompleted is raised once per committed monetary transaction.
type MovementCompleted struct {
	BaseEvent
	TransactionID       uuid.UUID
	IdempotencyKey      string
	MovementType        string
	SourceWalletID      uuid.UUID
	DestinationWalletID uuid.UUID
	AssetCode           string
	Amount              valueobjects.Amount
}

// NewMovementCompleted creates a MovementCompleted event.
func NewMovementCompleted(
	transactionID uuid.UUID,
	idempotencyKey, movementType, assetCode string,
	sourceWalletID, destinationWalletID uuid.UUID,
	amount valueobjects.Amount,
) *MovementCompleted {
	return &MovementCompleted{
		BaseEvent:           newBaseEvent(EventTypeMovementCompleted, transactionID),
		TransactionID:       transactionID,
		IdempotencyKey:      idempotencyKey,
		MovementType:        movementType,
		SourceWalletID:      sourceWalletID,
		DestinationWalletID: destinationWalletID,
		AssetCode:           assetCode,
		Amount:              amount,
	}
}

// WalletDebited is raised for the source wallet of a committed movement.
type WalletDebited struct {
	BaseEvent
	WalletID      uuid.UUID
	TransactionID uuid.UUID
	Amount        valueobjects.Amount
	BalanceAfter  valueobjects.Amount
}

// NewWalletDebited creates a WalletDebited event.
func NewWalletDebited(walletID, transactionID uuid.UUID, amount, balanceAfter valueobjects.Amount) *WalletDebited {
	return &WalletDebited{
		BaseEvent:     newBaseEvent(EventTypeWalletDebited, walletID),
		WalletID:      walletID,
		TransactionID: transactionID,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
	}
}

// WalletCredited is raised for the destination wallet of a committed movement.
type WalletCredited struct {
	BaseEvent
	WalletID      uuid.UUID
	TransactionID uuid.UUID
	Amount        valueobjects.Amount
	BalanceAfter  valueobjects.Amount
}

// NewWalletCredited creates a WalletCredited event.
func NewWalletCredited(walletID, transactionID uuid.UUID, amount, balanceAfter valueobjects.Amount) *WalletCredited {
	return &WalletCredited{
		BaseEvent:     newBaseEvent(EventTypeWalletCredited, walletID),
		WalletID:      walletID,
		TransactionID: transactionID,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
	}
}
