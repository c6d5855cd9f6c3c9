package ports

import (
	"context"

	"github.com/dkrylov/coinledger/internal/domain/events"
)

// EventPublisher delivers domain events to interested consumers after a
// movement commits. Delivery is best-effort; a publish failure never undoes
// a committed movement.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, batch []events.DomainEvent) error
}
