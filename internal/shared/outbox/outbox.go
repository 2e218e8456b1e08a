package outbox

import (
	"context"
	"time"

	"inkwell/internal/shared/events"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusDead    Status = "dead"
)

// Message is an outbox row persisted inside the same DB transaction as the
// state change it describes. ID is the envelope's eventId, so every
// forwarding attempt republishes the same identity.
type Message struct {
	ID           string
	Topic        string
	PartitionKey string
	EventType    string
	Payload      []byte
	Status       Status
	Attempts     int
	LastError    string
	CreatedAt    time.Time
	SentAt       *time.Time
}

func NewMessage(topic string, partitionKey string, envelope events.Envelope) (Message, error) {
	payload, err := events.Encode(envelope)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:           envelope.EventID,
		Topic:        topic,
		PartitionKey: partitionKey,
		EventType:    envelope.EventType,
		Payload:      payload,
		Status:       StatusPending,
		CreatedAt:    envelope.Timestamp.UTC(),
	}, nil
}

// Store is the forwarder's view of an outbox table.
type Store interface {
	ListPending(ctx context.Context, limit int) ([]Message, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
	MarkDead(ctx context.Context, id string, reason string) error
	PurgeSent(ctx context.Context, sentBefore time.Time) (int64, error)
}
