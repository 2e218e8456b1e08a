package ports

import (
	"context"
	"time"

	"inkwell/contexts/identity-access/user-service/domain/entities"
	"inkwell/internal/shared/outbox"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for users and event ids.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error
}

// OutboxNotifier wakes the outbox forwarder after a commit. It must not block.
type OutboxNotifier interface {
	Notify()
}

// UserRepository writes user rows together with their outbox message.
type UserRepository interface {
	CreateUser(ctx context.Context, user entities.User, message outbox.Message) error
	GetUser(ctx context.Context, userID string) (entities.User, error)
	// GetUserByUsername matches the stored username exactly.
	GetUserByUsername(ctx context.Context, username string) (entities.User, error)
	// UpdateUser locks the user, applies mutate to the stored row and, when
	// mutate reports a change, writes it with build(user) in one unit of work.
	UpdateUser(ctx context.Context, userID string, mutate UserMutation, build UserMessageBuilder) (entities.User, bool, error)
}

// UserMutation edits a locked user in place and reports whether it changed.
type UserMutation func(user *entities.User) (bool, error)

type UserMessageBuilder func(user entities.User) (outbox.Message, error)

// FollowRepository maintains the follow graph. Counters of both endpoints
// are recomputed from the edge set in the same unit of work.
type FollowRepository interface {
	AddFollow(ctx context.Context, follow entities.Follow) (entities.FollowCounts, error)
	RemoveFollow(ctx context.Context, followerID string, followingID string) (entities.FollowCounts, error)
	IsFollowing(ctx context.Context, followerID string, followingID string) (bool, error)
	ListFollowers(ctx context.Context, userID string, limit int) ([]entities.Follow, error)
	ListFollowing(ctx context.Context, userID string, limit int) ([]entities.Follow, error)
}

// AuthoredPostRepository stores the post projection and recomputes the
// author's postsCount from it.
type AuthoredPostRepository interface {
	GetAuthoredPost(ctx context.Context, postID string) (entities.AuthoredPost, bool, error)
	SaveAuthoredPost(ctx context.Context, post entities.AuthoredPost) (int64, error)
}

// LikeCounterRepository applies saturating adjustments to likesCount. It
// reports false when the user is not known locally.
type LikeCounterRepository interface {
	AdjustLikesCount(ctx context.Context, userID string, delta int64) (int64, bool, error)
}

type Repository interface {
	UserRepository
	FollowRepository
	AuthoredPostRepository
	LikeCounterRepository
}
