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
)

type CreatePostCommand struct {
	UserID  string
	Title   string
	Content string
	Tags    []string
}

// CreatePostUseCase writes an active post and queues POST_CREATED.
type CreatePostUseCase struct {
	Repository  ports.PostRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Notifier    ports.OutboxNotifier
	Logger      *slog.Logger
}

func (u CreatePostUseCase) Execute(ctx context.Context, cmd CreatePostCommand) (entities.Post, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.UserID) == "" {
		return entities.Post{}, domainerrors.ErrInvalidUserID
	}

	postID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Post{}, err
	}
	now := application.Now(u.Clock)
	post := entities.Post{
		PostID:    postID,
		UserID:    strings.TrimSpace(cmd.UserID),
		Title:     strings.TrimSpace(cmd.Title),
		Content:   cmd.Content,
		Tags:      entities.NormalizeTags(cmd.Tags),
		IsActive:  true,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := post.Validate(); err != nil {
		return entities.Post{}, err
	}

	message, err := application.NewPostMessage(ctx, u.IDGenerator, eventsv1.EventPostCreated, post, now)
	if err != nil {
		return entities.Post{}, err
	}
	if err := u.Repository.CreatePost(ctx, post, message); err != nil {
		logger.Warn("create post rejected",
			"event", "post_create_failed",
			"module", application.Module,
			"layer", "application",
			"user_id", post.UserID,
			"error", err.Error(),
		)
		return entities.Post{}, err
	}
	notify(u.Notifier)

	logger.Info("post created",
		"event", "post_created",
		"module", application.Module,
		"layer", "application",
		"post_id", post.PostID,
		"user_id", post.UserID,
		"event_id", message.ID,
	)
	return post, nil
}

func notify(notifier ports.OutboxNotifier) {
	if notifier != nil {
		notifier.Notify()
	}
}
