// Package events implements the event publisher port on NATS. Publishing is
// fire-and-forget: movements are already committed when events go out, so a
// broker outage degrades observability, never correctness.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dkrylov/coinledger/internal/application/ports"
	domainEvents "github.com/dkrylov/coinledger/internal/domain/events"
)

// Compile-time check
var _ ports.EventPublisher = (*NATSPublisher)(nil)

// NATSPublisher publishes domain events as JSON, one subject per event type
// (the event type string doubles as the subject).
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSPublisher creates a publisher over an established connection.
func NewNATSPublisher(conn *nats.Conn, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, logger: logger}
}

// Connect dials NATS with sane reconnect settings.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// envelope is the wire shape of every published event.
type envelope struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	AggregateID string    `json:"aggregate_id"`
	Payload     any       `json:"payload"`
}

// Publish sends one event.
func (p *NATSPublisher) Publish(ctx context.Context, event domainEvents.DomainEvent) error {
	data, err := json.Marshal(envelope{
		EventID:     event.EventID().String(),
		EventType:   event.EventType(),
		OccurredAt:  event.OccurredAt(),
		AggregateID: event.AggregateID().String(),
		Payload:     event,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}

	if err := p.conn.Publish(event.EventType(), data); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}
	return nil
}

// PublishBatch sends the batch, stopping at the first failure.
func (p *NATSPublisher) PublishBatch(ctx context.Context, batch []domainEvents.DomainEvent) error {
	for _, event := range batch {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
