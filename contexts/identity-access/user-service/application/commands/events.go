package commands

import (
	"context"
	"time"

	"inkwell/contexts/identity-access/user-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/events"
	"inkwell/internal/shared/outbox"
)

// newUserEvent mints the eventId once; the outbox row keeps it for every
// publish attempt.
func newUserEvent(
	ctx context.Context,
	ids ports.IDGenerator,
	eventType string,
	userID string,
	at time.Time,
	payload any,
) (outbox.Message, error) {
	eventID, err := ids.NewID(ctx)
	if err != nil {
		return outbox.Message{}, err
	}
	envelope, err := events.NewEnvelope(eventID, eventType, at, payload)
	if err != nil {
		return outbox.Message{}, err
	}
	return outbox.NewMessage(eventsv1.TopicUserEvents, userID, envelope)
}

func notify(notifier ports.OutboxNotifier) {
	if notifier != nil {
		notifier.Notify()
	}
}
