package commands

import (
	"context"
	"log/slog"
	"strings"

	application "inkwell/contexts/community-interaction/interaction-service/application"
	"inkwell/contexts/community-interaction/interaction-service/domain/entities"
	domainerrors "inkwell/contexts/community-interaction/interaction-service/domain/errors"
	"inkwell/contexts/community-interaction/interaction-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/outbox"
)

type LikeCommand struct {
	UserID   string
	TargetID string
}

// LikeUseCase adds and removes likes on posts and comments. Every change
// queues LIKE_ADDED or LIKE_REMOVED in the same unit of work.
type LikeUseCase struct {
	Posts       ports.PostRefRepository
	Comments    ports.CommentRepository
	Likes       ports.LikeRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Notifier    ports.OutboxNotifier
	Logger      *slog.Logger
}

func (u LikeUseCase) LikePost(ctx context.Context, cmd LikeCommand) (entities.Like, error) {
	postID := strings.TrimSpace(cmd.TargetID)
	if postID == "" {
		return entities.Like{}, domainerrors.ErrInvalidPostID
	}
	ref, found, err := u.Posts.GetPostRef(ctx, postID)
	if err != nil {
		return entities.Like{}, err
	}
	if found && !ref.Writable() {
		return entities.Like{}, domainerrors.ErrPostUnavailable
	}
	return u.add(ctx, entities.Like{
		UserID:     strings.TrimSpace(cmd.UserID),
		TargetType: entities.TargetPost,
		TargetID:   postID,
		PostID:     postID,
		OwnerID:    ref.AuthorID,
	})
}

func (u LikeUseCase) LikeComment(ctx context.Context, cmd LikeCommand) (entities.Like, error) {
	comment, err := u.activeComment(ctx, cmd.TargetID)
	if err != nil {
		return entities.Like{}, err
	}
	return u.add(ctx, entities.Like{
		UserID:     strings.TrimSpace(cmd.UserID),
		TargetType: entities.TargetComment,
		TargetID:   comment.CommentID,
		PostID:     comment.PostID,
		OwnerID:    comment.UserID,
	})
}

func (u LikeUseCase) UnlikePost(ctx context.Context, cmd LikeCommand) (entities.Like, error) {
	postID := strings.TrimSpace(cmd.TargetID)
	if postID == "" {
		return entities.Like{}, domainerrors.ErrInvalidPostID
	}
	return u.remove(ctx, entities.TargetPost, postID, cmd.UserID)
}

func (u LikeUseCase) UnlikeComment(ctx context.Context, cmd LikeCommand) (entities.Like, error) {
	commentID := strings.TrimSpace(cmd.TargetID)
	if commentID == "" {
		return entities.Like{}, domainerrors.ErrInvalidCommentID
	}
	return u.remove(ctx, entities.TargetComment, commentID, cmd.UserID)
}

func (u LikeUseCase) activeComment(ctx context.Context, commentID string) (entities.Comment, error) {
	commentID = strings.TrimSpace(commentID)
	if commentID == "" {
		return entities.Comment{}, domainerrors.ErrInvalidCommentID
	}
	comment, err := u.Comments.GetComment(ctx, commentID)
	if err != nil {
		return entities.Comment{}, err
	}
	if !comment.IsActive {
		return entities.Comment{}, domainerrors.ErrCommentNotFound
	}
	return comment, nil
}

func (u LikeUseCase) add(ctx context.Context, like entities.Like) (entities.Like, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := like.Validate(); err != nil {
		return entities.Like{}, err
	}
	likeID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Like{}, err
	}
	now := application.Now(u.Clock)
	like.LikeID = likeID
	like.IsActive = true
	like.CreatedAt = now
	like.UpdatedAt = now

	stored, err := u.Likes.AddLike(ctx, like, func(stored entities.Like) (outbox.Message, error) {
		return application.NewLikeMessage(ctx, u.IDGenerator, eventsv1.EventLikeAdded, stored, now)
	})
	if err != nil {
		logger.Warn("like rejected",
			"event", "interaction_like_failed",
			"module", application.Module,
			"layer", "application",
			"user_id", like.UserID,
			"target_id", like.TargetID,
			"target_type", string(like.TargetType),
			"error", err.Error(),
		)
		return entities.Like{}, err
	}
	notify(u.Notifier)

	logger.Info("like added",
		"event", "interaction_like_added",
		"module", application.Module,
		"layer", "application",
		"like_id", stored.LikeID,
		"user_id", stored.UserID,
		"target_id", stored.TargetID,
		"target_type", string(stored.TargetType),
	)
	return stored, nil
}

func (u LikeUseCase) remove(ctx context.Context, targetType entities.TargetType, targetID string, userID string) (entities.Like, error) {
	logger := application.ResolveLogger(u.Logger)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.Like{}, domainerrors.ErrInvalidUserID
	}
	now := application.Now(u.Clock)
	removed, err := u.Likes.RemoveLike(ctx, targetType, targetID, userID, now, func(like entities.Like) (outbox.Message, error) {
		return application.NewLikeMessage(ctx, u.IDGenerator, eventsv1.EventLikeRemoved, like, now)
	})
	if err != nil {
		return entities.Like{}, err
	}
	notify(u.Notifier)

	logger.Info("like removed",
		"event", "interaction_like_removed",
		"module", application.Module,
		"layer", "application",
		"like_id", removed.LikeID,
		"user_id", userID,
		"target_id", targetID,
		"target_type", string(targetType),
	)
	return removed, nil
}

func notify(notifier ports.OutboxNotifier) {
	if notifier != nil {
		notifier.Notify()
	}
}
