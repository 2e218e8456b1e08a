package application

import (
	"context"
	"fmt"
	"time"

	"inkwell/contexts/content-publishing/post-service/domain/entities"
	"inkwell/contexts/content-publishing/post-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/events"
	"inkwell/internal/shared/outbox"
)

// NewPostMessage renders a post-events outbox row for post. The eventId is
// minted here, once per occurrence.
func NewPostMessage(
	ctx context.Context,
	ids ports.IDGenerator,
	eventType string,
	post entities.Post,
	at time.Time,
) (outbox.Message, error) {
	var payload any
	switch eventType {
	case eventsv1.EventPostCreated:
		payload = eventsv1.PostCreated{PostID: post.PostID, UserID: post.UserID, Title: post.Title, Tags: post.Tags}
	case eventsv1.EventPostUpdated:
		payload = eventsv1.PostUpdated{
			PostID:   post.PostID,
			UserID:   post.UserID,
			Title:    post.Title,
			Tags:     post.Tags,
			IsActive: post.IsActive,
		}
	case eventsv1.EventPostDeleted:
		payload = eventsv1.PostDeleted{PostID: post.PostID, UserID: post.UserID}
	default:
		return outbox.Message{}, fmt.Errorf("%w: %s", events.ErrUnknownEventType, eventType)
	}

	eventID, err := ids.NewID(ctx)
	if err != nil {
		return outbox.Message{}, err
	}
	envelope, err := events.NewEnvelope(eventID, eventType, at, payload)
	if err != nil {
		return outbox.Message{}, err
	}
	return outbox.NewMessage(eventsv1.TopicPostEvents, post.PostID, envelope)
}

func Now(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
