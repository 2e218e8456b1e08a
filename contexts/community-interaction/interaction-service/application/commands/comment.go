package commands

import (
	"context"
	"log/slog"
	"strings"

	application "inkwell/contexts/community-interaction/interaction-service/application"
	"inkwell/contexts/community-interaction/interaction-service/domain/entities"
	domainerrors "inkwell/contexts/community-interaction/interaction-service/domain/errors"
	"inkwell/contexts/community-interaction/interaction-service/ports"
	"inkwell/internal/shared/outbox"
)

type CreateCommentCommand struct {
	UserID          string
	PostID          string
	Content         string
	ParentCommentID string
}

type UpdateCommentCommand struct {
	ActorID   string
	CommentID string
	Content   string
}

type DeleteCommentCommand struct {
	ActorID   string
	CommentID string
}

type CommentUseCase struct {
	Posts       ports.PostRefRepository
	Comments    ports.CommentRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Notifier    ports.OutboxNotifier
	Logger      *slog.Logger
}

// Create stores the comment and queues COMMENT_CREATED. A reply must
// reference an active comment of the same post.
func (u CommentUseCase) Create(ctx context.Context, cmd CreateCommentCommand) (entities.Comment, error) {
	logger := application.ResolveLogger(u.Logger)
	comment := entities.Comment{
		PostID:          strings.TrimSpace(cmd.PostID),
		UserID:          strings.TrimSpace(cmd.UserID),
		ParentCommentID: strings.TrimSpace(cmd.ParentCommentID),
		Content:         strings.TrimSpace(cmd.Content),
		IsActive:        true,
	}
	if err := comment.Validate(); err != nil {
		return entities.Comment{}, err
	}
	ref, found, err := u.Posts.GetPostRef(ctx, comment.PostID)
	if err != nil {
		return entities.Comment{}, err
	}
	if found && !ref.Writable() {
		return entities.Comment{}, domainerrors.ErrPostUnavailable
	}

	commentID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Comment{}, err
	}
	now := application.Now(u.Clock)
	comment.CommentID = commentID
	comment.CreatedAt = now
	comment.UpdatedAt = now

	message, err := application.NewCommentCreatedMessage(ctx, u.IDGenerator, comment, ref.AuthorID)
	if err != nil {
		return entities.Comment{}, err
	}
	if err := u.Comments.CreateComment(ctx, comment, message); err != nil {
		logger.Warn("comment rejected",
			"event", "interaction_comment_create_failed",
			"module", application.Module,
			"layer", "application",
			"post_id", comment.PostID,
			"user_id", comment.UserID,
			"error", err.Error(),
		)
		return entities.Comment{}, err
	}
	notify(u.Notifier)

	logger.Info("comment created",
		"event", "interaction_comment_created",
		"module", application.Module,
		"layer", "application",
		"comment_id", comment.CommentID,
		"post_id", comment.PostID,
		"parent_comment_id", comment.ParentCommentID,
		"event_id", message.ID,
	)
	return comment, nil
}

// Update replaces the content of an active comment and marks it edited.
// Only the comment's author may edit it. No event is queued.
func (u CommentUseCase) Update(ctx context.Context, cmd UpdateCommentCommand) (entities.Comment, error) {
	logger := application.ResolveLogger(u.Logger)
	commentID := strings.TrimSpace(cmd.CommentID)
	if commentID == "" {
		return entities.Comment{}, domainerrors.ErrInvalidCommentID
	}
	if err := entities.ValidateContent(cmd.Content); err != nil {
		return entities.Comment{}, err
	}
	actorID := strings.TrimSpace(cmd.ActorID)
	content := strings.TrimSpace(cmd.Content)
	now := application.Now(u.Clock)

	updated, err := u.Comments.UpdateComment(ctx, commentID, func(comment *entities.Comment) error {
		if !comment.IsActive {
			return domainerrors.ErrCommentNotFound
		}
		if comment.UserID != actorID {
			return domainerrors.ErrForbidden
		}
		comment.Content = content
		comment.IsEdited = true
		comment.UpdatedAt = now
		return nil
	})
	if err != nil {
		return entities.Comment{}, err
	}

	logger.Info("comment edited",
		"event", "interaction_comment_edited",
		"module", application.Module,
		"layer", "application",
		"comment_id", commentID,
		"post_id", updated.PostID,
	)
	return updated, nil
}

// Delete soft-deletes a comment with its replies and their likes. Only the
// comment's author may delete it. One COMMENT_DELETED is queued per comment.
func (u CommentUseCase) Delete(ctx context.Context, cmd DeleteCommentCommand) ([]entities.Comment, error) {
	logger := application.ResolveLogger(u.Logger)
	commentID := strings.TrimSpace(cmd.CommentID)
	if commentID == "" {
		return nil, domainerrors.ErrInvalidCommentID
	}
	comment, err := u.Comments.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !comment.IsActive {
		return nil, domainerrors.ErrCommentNotFound
	}
	if comment.UserID != strings.TrimSpace(cmd.ActorID) {
		return nil, domainerrors.ErrForbidden
	}

	deleted, err := u.Comments.DeleteComment(ctx, commentID, application.Now(u.Clock), func(item entities.Comment) (outbox.Message, error) {
		return application.NewCommentDeletedMessage(ctx, u.IDGenerator, item)
	})
	if err != nil {
		return nil, err
	}
	notify(u.Notifier)

	logger.Info("comment deleted",
		"event", "interaction_comment_deleted",
		"module", application.Module,
		"layer", "application",
		"comment_id", commentID,
		"post_id", comment.PostID,
		"deleted_count", len(deleted),
	)
	return deleted, nil
}
