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
)

// EngagementProjector mirrors likes and comments of posts and recomputes
// likesCount and commentsCount from the mirrored rows. Replays and
// duplicates with fresh event ids converge on the same counts.
type EngagementProjector struct {
	Engagement ports.EngagementRepository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (p EngagementProjector) Register(router *events.Router) {
	events.On(router, eventsv1.EventLikeAdded, func(ctx context.Context, event events.Event[eventsv1.LikeChanged]) error {
		return p.like(ctx, event.Payload, true)
	})
	events.On(router, eventsv1.EventLikeRemoved, func(ctx context.Context, event events.Event[eventsv1.LikeChanged]) error {
		return p.like(ctx, event.Payload, false)
	})
	events.On(router, eventsv1.EventCommentCreated, func(ctx context.Context, event events.Event[eventsv1.CommentCreated]) error {
		return p.comment(ctx, event.Payload.CommentID, event.Payload.PostID, event.Payload.UserID, true)
	})
	events.On(router, eventsv1.EventCommentDeleted, func(ctx context.Context, event events.Event[eventsv1.CommentDeleted]) error {
		return p.comment(ctx, event.Payload.CommentID, event.Payload.PostID, event.Payload.UserID, false)
	})
}

func (p EngagementProjector) like(ctx context.Context, like eventsv1.LikeChanged, active bool) error {
	logger := application.ResolveLogger(p.Logger)
	if like.TargetType != eventsv1.TargetPost {
		logger.Debug("non-post like ignored",
			"event", "post_like_target_ignored",
			"module", application.Module,
			"layer", "worker",
			"target_id", like.TargetID,
			"target_type", string(like.TargetType),
		)
		return nil
	}

	likesCount, err := p.Engagement.SaveLikeRef(ctx, entities.PostLikeRef{
		PostID:    like.TargetID,
		UserID:    like.UserID,
		LikeID:    like.LikeID,
		Active:    active,
		UpdatedAt: application.Now(p.Clock),
	})
	if err != nil {
		return err
	}
	logger.Info("post likes recomputed",
		"event", "post_likes_recomputed",
		"module", application.Module,
		"layer", "worker",
		"post_id", like.TargetID,
		"user_id", like.UserID,
		"active", active,
		"likes_count", likesCount,
	)
	return nil
}

func (p EngagementProjector) comment(ctx context.Context, commentID string, postID string, userID string, active bool) error {
	logger := application.ResolveLogger(p.Logger)
	ref, found, err := p.Engagement.GetCommentRef(ctx, commentID)
	if err != nil {
		return err
	}
	if !found {
		ref = entities.PostCommentRef{CommentID: commentID, PostID: postID, UserID: userID}
	}

	var transition lifecycle.Transition
	if active {
		ref.State, transition = ref.State.ObserveActive()
	} else {
		ref.State, transition = ref.State.ObserveInactive()
	}
	if transition == lifecycle.Unchanged || transition == lifecycle.Refreshed {
		logger.Debug("comment observation absorbed",
			"event", "post_comment_unchanged",
			"module", application.Module,
			"layer", "worker",
			"comment_id", commentID,
			"state", string(ref.State),
		)
		return nil
	}

	ref.UpdatedAt = application.Now(p.Clock)
	commentsCount, err := p.Engagement.SaveCommentRef(ctx, ref)
	if err != nil {
		return err
	}
	logger.Info("post comments recomputed",
		"event", "post_comments_recomputed",
		"module", application.Module,
		"layer", "worker",
		"post_id", ref.PostID,
		"comment_id", commentID,
		"state", string(ref.State),
		"comments_count", commentsCount,
	)
	return nil
}
