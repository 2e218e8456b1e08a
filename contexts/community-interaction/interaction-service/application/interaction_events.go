package application

import (
	"context"
	"time"

	"inkwell/contexts/community-interaction/interaction-service/domain/entities"
	"inkwell/contexts/community-interaction/interaction-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/events"
	"inkwell/internal/shared/outbox"
)

// NewLikeMessage renders LIKE_ADDED or LIKE_REMOVED. Post likes go to
// post-interaction-events keyed by post; comment likes go to
// comment-interaction-events keyed by comment.
func NewLikeMessage(
	ctx context.Context,
	ids ports.IDGenerator,
	eventType string,
	like entities.Like,
	at time.Time,
) (outbox.Message, error) {
	topic := eventsv1.TopicPostInteractionEvents
	if like.TargetType == entities.TargetComment {
		topic = eventsv1.TopicCommentInteractionEvents
	}
	return newMessage(ctx, ids, topic, like.TargetID, eventType, at, eventsv1.LikeChanged{
		LikeID:        like.LikeID,
		UserID:        like.UserID,
		TargetID:      like.TargetID,
		TargetType:    like.TargetType,
		TargetOwnerID: like.OwnerID,
		PostID:        like.PostID,
	})
}

func NewCommentCreatedMessage(
	ctx context.Context,
	ids ports.IDGenerator,
	comment entities.Comment,
	postOwnerID string,
) (outbox.Message, error) {
	return newMessage(ctx, ids, eventsv1.TopicPostInteractionEvents, comment.PostID, eventsv1.EventCommentCreated, comment.CreatedAt,
		eventsv1.CommentCreated{
			CommentID:       comment.CommentID,
			PostID:          comment.PostID,
			UserID:          comment.UserID,
			PostOwnerID:     postOwnerID,
			Content:         comment.Content,
			ParentCommentID: comment.ParentCommentID,
		})
}

func NewCommentDeletedMessage(ctx context.Context, ids ports.IDGenerator, comment entities.Comment) (outbox.Message, error) {
	return newMessage(ctx, ids, eventsv1.TopicPostInteractionEvents, comment.PostID, eventsv1.EventCommentDeleted, comment.UpdatedAt,
		eventsv1.CommentDeleted{
			CommentID: comment.CommentID,
			PostID:    comment.PostID,
			UserID:    comment.UserID,
		})
}

func newMessage(
	ctx context.Context,
	ids ports.IDGenerator,
	topic string,
	partitionKey string,
	eventType string,
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
	return outbox.NewMessage(topic, partitionKey, envelope)
}

func Now(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
