package ports

import (
	"context"
	"time"

	"inkwell/contexts/content-publishing/post-service/domain/entities"
	"inkwell/internal/shared/outbox"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for posts and event ids.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxNotifier wakes the outbox forwarder after a commit. It must not block.
type OutboxNotifier interface {
	Notify()
}

// PostRepository writes posts together with their outbox message.
type PostRepository interface {
	// CreatePost fails with ErrAuthorInactive when the author projection is
	// tombstoned.
	CreatePost(ctx context.Context, post entities.Post, message outbox.Message) error
	GetPost(ctx context.Context, postID string) (entities.Post, error)
	// UpdatePost locks the post, applies mutate to the stored row and, when
	// mutate reports a change, writes the row with build(post) in one unit of
	// work. It returns the post as stored and whether it changed.
	UpdatePost(ctx context.Context, postID string, mutate PostMutation, build PostMessageBuilder) (entities.Post, bool, error)
	ListPostsByAuthor(ctx context.Context, userID string, includeInactive bool, limit int) ([]entities.Post, error)
}

// PostMutation edits a locked post in place and reports whether it changed.
type PostMutation func(post *entities.Post) (bool, error)

// PostMessageBuilder renders the outbox message for one changed post.
type PostMessageBuilder func(post entities.Post) (outbox.Message, error)

type AuthorRepository interface {
	GetAuthor(ctx context.Context, userID string) (entities.AuthorRef, bool, error)
	SaveAuthor(ctx context.Context, author entities.AuthorRef) error
	// DeactivateAuthor stores the tombstoned author, deactivates every active
	// post of the author and appends build(post) for each, in one unit of
	// work. It returns the deactivated posts.
	DeactivateAuthor(ctx context.Context, author entities.AuthorRef, build PostMessageBuilder) ([]entities.Post, error)
}

// EngagementRepository stores like and comment refs and recomputes the
// post counters from them.
type EngagementRepository interface {
	SaveLikeRef(ctx context.Context, like entities.PostLikeRef) (int64, error)
	GetCommentRef(ctx context.Context, commentID string) (entities.PostCommentRef, bool, error)
	SaveCommentRef(ctx context.Context, comment entities.PostCommentRef) (int64, error)
}

type Repository interface {
	PostRepository
	AuthorRepository
	EngagementRepository
}
