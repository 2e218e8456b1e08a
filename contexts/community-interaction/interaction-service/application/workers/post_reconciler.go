package workers

import (
	"context"
	"log/slog"

	application "inkwell/contexts/community-interaction/interaction-service/application"
	"inkwell/contexts/community-interaction/interaction-service/domain/entities"
	"inkwell/contexts/community-interaction/interaction-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/events"
	"inkwell/internal/shared/lifecycle"
)

// PostReconciler tracks the post lifecycle and, on the first tombstone,
// soft-deletes the comments and likes that hang off the post.
type PostReconciler struct {
	Posts  ports.PostRefRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (r PostReconciler) Register(router *events.Router) {
	events.On(router, eventsv1.EventPostCreated, func(ctx context.Context, event events.Event[eventsv1.PostCreated]) error {
		return r.observe(ctx, event.Payload.PostID, event.Payload.UserID, true)
	})
	events.On(router, eventsv1.EventPostUpdated, func(ctx context.Context, event events.Event[eventsv1.PostUpdated]) error {
		return r.observe(ctx, event.Payload.PostID, event.Payload.UserID, event.Payload.IsActive)
	})
	events.On(router, eventsv1.EventPostDeleted, func(ctx context.Context, event events.Event[eventsv1.PostDeleted]) error {
		return r.observe(ctx, event.Payload.PostID, event.Payload.UserID, false)
	})
}

func (r PostReconciler) observe(ctx context.Context, postID string, authorID string, active bool) error {
	logger := application.ResolveLogger(r.Logger)
	ref, found, err := r.Posts.GetPostRef(ctx, postID)
	if err != nil {
		return err
	}
	if !found {
		ref = entities.PostRef{PostID: postID}
	}
	learnedAuthor := ref.AuthorID == "" && authorID != ""
	if learnedAuthor {
		ref.AuthorID = authorID
	}

	var transition lifecycle.Transition
	if active {
		ref.State, transition = ref.State.ObserveActive()
	} else {
		ref.State, transition = ref.State.ObserveInactive()
	}
	ref.UpdatedAt = application.Now(r.Clock)

	switch transition {
	case lifecycle.Unchanged:
		logger.Debug("post observation absorbed",
			"event", "interaction_post_unchanged",
			"module", application.Module,
			"layer", "worker",
			"post_id", postID,
			"state", string(ref.State),
		)
		return nil
	case lifecycle.Refreshed:
		if !learnedAuthor {
			return nil
		}
		return r.Posts.SavePostRef(ctx, ref)
	case lifecycle.Tombstone:
		result, err := r.Posts.TombstonePost(ctx, ref)
		if err != nil {
			logger.Error("post cascade failed",
				"event", "interaction_post_cascade_failed",
				"module", application.Module,
				"layer", "worker",
				"post_id", postID,
				"error", err.Error(),
			)
			return err
		}
		logger.Info("post tombstoned",
			"event", "interaction_post_tombstoned",
			"module", application.Module,
			"layer", "worker",
			"post_id", postID,
			"comments_deleted", result.Comments,
			"post_likes_deleted", result.PostLikes,
			"comment_likes_deleted", result.CommentLikes,
		)
		return nil
	default:
		return r.Posts.SavePostRef(ctx, ref)
	}
}
