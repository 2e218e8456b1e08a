package workers

import (
	"context"
	"log/slog"

	application "inkwell/contexts/content-publishing/post-service/application"
	"inkwell/contexts/content-publishing/post-service/domain/entities"
	"inkwell/contexts/content-publishing/post-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/events"
	"inkwell/internal/shared/lifecycle"
	"inkwell/internal/shared/outbox"
)

// AuthorProjector keeps the author projection. Tombstoning an author
// deactivates all of their posts and queues one POST_UPDATED per post, so
// the cascade continues downstream through post-events.
type AuthorProjector struct {
	Authors     ports.AuthorRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Notifier    ports.OutboxNotifier
	Logger      *slog.Logger
}

func (p AuthorProjector) Register(router *events.Router) {
	events.On(router, eventsv1.EventUserRegistered, func(ctx context.Context, event events.Event[eventsv1.UserRegistered]) error {
		return p.observe(ctx, event.Payload.UserID, event.Payload.Username, true)
	})
	events.On(router, eventsv1.EventUserUpdated, func(ctx context.Context, event events.Event[eventsv1.UserUpdated]) error {
		return p.observe(ctx, event.Payload.UserID, event.Payload.Username, event.Payload.IsActive)
	})
}

func (p AuthorProjector) observe(ctx context.Context, userID string, username string, active bool) error {
	logger := application.ResolveLogger(p.Logger)
	author, found, err := p.Authors.GetAuthor(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		author = entities.AuthorRef{UserID: userID}
	}
	if username != "" {
		author.Username = username
	}

	var transition lifecycle.Transition
	if active {
		author.State, transition = author.State.ObserveActive()
	} else {
		author.State, transition = author.State.ObserveInactive()
	}
	author.UpdatedAt = application.Now(p.Clock)

	switch transition {
	case lifecycle.Unchanged:
		logger.Debug("author observation absorbed",
			"event", "post_author_unchanged",
			"module", application.Module,
			"layer", "worker",
			"user_id", userID,
			"state", string(author.State),
		)
		return nil
	case lifecycle.Tombstone:
		return p.tombstone(ctx, author)
	default:
		return p.Authors.SaveAuthor(ctx, author)
	}
}

func (p AuthorProjector) tombstone(ctx context.Context, author entities.AuthorRef) error {
	logger := application.ResolveLogger(p.Logger)
	deactivated, err := p.Authors.DeactivateAuthor(ctx, author, func(post entities.Post) (outbox.Message, error) {
		return application.NewPostMessage(ctx, p.IDGenerator, eventsv1.EventPostUpdated, post, post.UpdatedAt)
	})
	if err != nil {
		logger.Error("author cascade failed",
			"event", "post_author_cascade_failed",
			"module", application.Module,
			"layer", "worker",
			"user_id", author.UserID,
			"error", err.Error(),
		)
		return err
	}
	if len(deactivated) > 0 && p.Notifier != nil {
		p.Notifier.Notify()
	}
	logger.Info("author tombstoned",
		"event", "post_author_tombstoned",
		"module", application.Module,
		"layer", "worker",
		"user_id", author.UserID,
		"posts_deactivated", len(deactivated),
	)
	return nil
}
