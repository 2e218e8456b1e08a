package ports

import (
	"context"
	"time"

	"inkwell/contexts/community-interaction/interaction-service/domain/entities"
	"inkwell/internal/shared/outbox"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for likes, comments and event ids.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxNotifier wakes the outbox forwarder after a commit. It must not block.
type OutboxNotifier interface {
	Notify()
}

// LikeMessageBuilder renders the outbox message for a like once the stored
// row is known.
type LikeMessageBuilder func(like entities.Like) (outbox.Message, error)

// CommentMessageBuilder renders the outbox message for one deleted comment.
type CommentMessageBuilder func(comment entities.Comment) (outbox.Message, error)

// CommentMutation edits a locked comment in place. An error aborts the
// write.
type CommentMutation func(comment *entities.Comment) error

// PostRefRepository holds the post projection and runs the tombstone
// cascade.
type PostRefRepository interface {
	GetPostRef(ctx context.Context, postID string) (entities.PostRef, bool, error)
	SavePostRef(ctx context.Context, ref entities.PostRef) error
	// TombstonePost stores the tombstoned ref and soft-deletes every comment,
	// post like and comment like referencing the post in one unit of work.
	TombstonePost(ctx context.Context, ref entities.PostRef) (entities.CascadeResult, error)
}

type LikeRepository interface {
	// AddLike stores an active like, reactivating a soft-deleted one. It
	// fails with ErrAlreadyLiked for an active like and ErrPostUnavailable
	// when the post is tombstoned.
	AddLike(ctx context.Context, like entities.Like, build LikeMessageBuilder) (entities.Like, error)
	// RemoveLike soft-deletes the active like of userID on the target.
	RemoveLike(
		ctx context.Context,
		targetType entities.TargetType,
		targetID string,
		userID string,
		at time.Time,
		build LikeMessageBuilder,
	) (entities.Like, error)
	// FindLikes returns the active likes of userID among targetIDs.
	FindLikes(ctx context.Context, targetType entities.TargetType, userID string, targetIDs []string) ([]entities.Like, error)
	// ListLikesByTarget and ListLikesByUser return active likes, newest
	// first.
	ListLikesByTarget(ctx context.Context, targetType entities.TargetType, targetID string, limit int) ([]entities.Like, error)
	ListLikesByUser(ctx context.Context, userID string, limit int) ([]entities.Like, error)
}

type CommentRepository interface {
	// CreateComment fails with ErrPostUnavailable when the post is
	// tombstoned and ErrInvalidParent when the parent is not an active
	// comment of the same post.
	CreateComment(ctx context.Context, comment entities.Comment, message outbox.Message) error
	GetComment(ctx context.Context, commentID string) (entities.Comment, error)
	// UpdateComment runs mutate on the comment while holding its row lock
	// and stores the result.
	UpdateComment(ctx context.Context, commentID string, mutate CommentMutation) (entities.Comment, error)
	// DeleteComment soft-deletes the comment, its replies and their likes.
	// build is called for every comment deleted.
	DeleteComment(ctx context.Context, commentID string, at time.Time, build CommentMessageBuilder) ([]entities.Comment, error)
	ListComments(ctx context.Context, postID string, limit int) ([]entities.Comment, error)
}

type StatsRepository interface {
	GetPostStats(ctx context.Context, postID string) (entities.PostStats, error)
}

type Repository interface {
	PostRefRepository
	LikeRepository
	CommentRepository
	StatsRepository
}
