package commands

import (
	"context"
	"log/slog"
	"strings"

	application "inkwell/contexts/content-publishing/post-service/application"
	"inkwell/contexts/content-publishing/post-service/domain/entities"
	domainerrors "inkwell/contexts/content-publishing/post-service/domain/errors"
	"inkwell/contexts/content-publishing/post-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/outbox"
)

// UpdatePostCommand edits an active post. Nil fields are left untouched.
type UpdatePostCommand struct {
	ActorID string
	PostID  string
	Title   *string
	Content *string
	Tags    *[]string
}

type PostLifecycleCommand struct {
	ActorID string
	PostID  string
}

// UpdatePostUseCase covers edits, deactivation and soft deletion. Every
// mutation bumps the post version.
type UpdatePostUseCase struct {
	Repository  ports.PostRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Notifier    ports.OutboxNotifier
	Logger      *slog.Logger
}

func (u UpdatePostUseCase) Update(ctx context.Context, cmd UpdatePostCommand) (entities.Post, error) {
	return u.apply(ctx, cmd.ActorID, cmd.PostID, eventsv1.EventPostUpdated, func(post *entities.Post) (bool, error) {
		if !post.IsActive {
			return false, domainerrors.ErrPostInactive
		}
		if cmd.Title != nil {
			post.Title = strings.TrimSpace(*cmd.Title)
		}
		if cmd.Content != nil {
			post.Content = *cmd.Content
		}
		if cmd.Tags != nil {
			post.Tags = entities.NormalizeTags(*cmd.Tags)
		}
		if err := post.Validate(); err != nil {
			return false, err
		}
		post.Version++
		post.UpdatedAt = application.Now(u.Clock)
		return true, nil
	})
}

// Deactivate hides the post and publishes POST_UPDATED(isActive=false).
// Deactivation is one way.
func (u UpdatePostUseCase) Deactivate(ctx context.Context, cmd PostLifecycleCommand) (entities.Post, error) {
	return u.apply(ctx, cmd.ActorID, cmd.PostID, eventsv1.EventPostUpdated, func(post *entities.Post) (bool, error) {
		return post.Deactivate(application.Now(u.Clock)), nil
	})
}

// Delete soft-deletes the post and publishes POST_DELETED.
func (u UpdatePostUseCase) Delete(ctx context.Context, cmd PostLifecycleCommand) (entities.Post, error) {
	return u.apply(ctx, cmd.ActorID, cmd.PostID, eventsv1.EventPostDeleted, func(post *entities.Post) (bool, error) {
		if post.DeletedAt != nil {
			return false, nil
		}
		now := application.Now(u.Clock)
		if !post.Deactivate(now) {
			post.Version++
			post.UpdatedAt = now
		}
		post.DeletedAt = &now
		return true, nil
	})
}

// apply runs mutate against the locked post so a concurrent author cascade
// or delete is never overwritten by a stale read.
func (u UpdatePostUseCase) apply(
	ctx context.Context,
	actorID string,
	postID string,
	eventType string,
	mutate ports.PostMutation,
) (entities.Post, error) {
	logger := application.ResolveLogger(u.Logger)
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return entities.Post{}, domainerrors.ErrInvalidPostID
	}
	actorID = strings.TrimSpace(actorID)

	var eventID string
	post, changed, err := u.Repository.UpdatePost(ctx, postID,
		func(post *entities.Post) (bool, error) {
			if actorID == "" || post.UserID != actorID {
				return false, domainerrors.ErrForbidden
			}
			return mutate(post)
		},
		func(post entities.Post) (outbox.Message, error) {
			message, err := application.NewPostMessage(ctx, u.IDGenerator, eventType, post, post.UpdatedAt)
			eventID = message.ID
			return message, err
		},
	)
	if err != nil {
		logger.Error("post update failed",
			"event", "post_update_failed",
			"module", application.Module,
			"layer", "application",
			"post_id", postID,
			"event_type", eventType,
			"error", err.Error(),
		)
		return entities.Post{}, err
	}
	if !changed {
		return post, nil
	}
	notify(u.Notifier)

	logger.Info("post updated",
		"event", "post_updated",
		"module", application.Module,
		"layer", "application",
		"post_id", post.PostID,
		"event_type", eventType,
		"version", post.Version,
		"is_active", post.IsActive,
		"event_id", eventID,
	)
	return post, nil
}
