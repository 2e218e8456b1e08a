package postgresadapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkwell/contexts/identity-access/user-service/domain/entities"
	domainerrors "inkwell/contexts/identity-access/user-service/domain/errors"
	"inkwell/internal/platform/db"
	"inkwell/internal/platform/dedup"
	"inkwell/internal/shared/lifecycle"
	"inkwell/internal/shared/outbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	database, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	repo := NewRepository(database.DB, nil)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func seedUser(t *testing.T, repo *Repository, userID string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, repo.CreateUser(context.Background(), entities.User{
		UserID:    userID,
		Username:  "name-" + userID,
		Email:     userID + "@example.com",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, outbox.Message{
		ID:           "evt-" + userID,
		Topic:        "user-events",
		PartitionKey: userID,
		EventType:    "USER_REGISTERED",
		Payload:      []byte(`{}`),
		CreatedAt:    now,
	}))
}

func TestCreateUserWritesOutboxAndRejectsDuplicates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	pending, err := repo.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "evt-u1", pending[0].ID)

	err = repo.CreateUser(ctx, entities.User{UserID: "u2", Username: "name-u1", Email: "x@example.com"}, outbox.Message{ID: "evt-u2"})
	assert.ErrorIs(t, err, domainerrors.ErrUsernameTaken)
	err = repo.CreateUser(ctx, entities.User{UserID: "u2", Username: "fresh", Email: "u1@example.com"}, outbox.Message{ID: "evt-u2"})
	assert.ErrorIs(t, err, domainerrors.ErrEmailTaken)

	pending, err = repo.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestFollowCountsAreRecomputed(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		seedUser(t, repo, id)
	}
	now := time.Now()

	_, err := repo.AddFollow(ctx, entities.Follow{FollowerID: "a", FollowingID: "c", CreatedAt: now})
	require.NoError(t, err)
	counts, err := repo.AddFollow(ctx, entities.Follow{FollowerID: "b", FollowingID: "c", CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.FollowingFollowersCount)

	_, err = repo.AddFollow(ctx, entities.Follow{FollowerID: "a", FollowingID: "c", CreatedAt: now})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyFollowing)

	counts, err = repo.RemoveFollow(ctx, "a", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.FollowingFollowersCount)
	assert.Equal(t, int64(0), counts.FollowerFollowingCount)

	c, err := repo.GetUser(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.FollowersCount)

	followers, err := repo.ListFollowers(ctx, "c", 10)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "b", followers[0].FollowerID)
}

func TestAuthoredPostsDrivePostsCount(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")
	now := time.Now()

	count, err := repo.SaveAuthoredPost(ctx, entities.AuthoredPost{PostID: "p1", UserID: "u1", State: lifecycle.Active, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = repo.SaveAuthoredPost(ctx, entities.AuthoredPost{PostID: "p2", UserID: "u1", State: lifecycle.Active, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	count, err = repo.SaveAuthoredPost(ctx, entities.AuthoredPost{PostID: "p1", UserID: "u1", State: lifecycle.Tombstoned, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	post, found, err := repo.GetAuthoredPost(ctx, "p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, lifecycle.Tombstoned, post.State)

	user, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.PostsCount)
}

func TestAdjustLikesCountSaturatesAtZero(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	count, found, err := repo.AdjustLikesCount(ctx, "u1", 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(1), count)

	for i := 0; i < 3; i++ {
		count, _, err = repo.AdjustLikesCount(ctx, "u1", -1)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(0), count)

	_, found, err = repo.AdjustLikesCount(ctx, "missing", 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateUserSeesCommittedDeactivation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")
	build := func(user entities.User) (outbox.Message, error) {
		return outbox.Message{
			ID:           "upd-" + user.UserID + "-" + user.UpdatedAt.Format(time.RFC3339Nano),
			Topic:        "user-events",
			PartitionKey: user.UserID,
			EventType:    "USER_UPDATED",
			Payload:      []byte(`{}`),
			CreatedAt:    user.UpdatedAt,
		}, nil
	}

	deactivated, changed, err := repo.UpdateUser(ctx, "u1", func(user *entities.User) (bool, error) {
		user.IsActive = false
		user.UpdatedAt = time.Now().UTC()
		return true, nil
	}, build)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, deactivated.IsActive)

	_, changed, err = repo.UpdateUser(ctx, "u1", func(user *entities.User) (bool, error) {
		if !user.IsActive {
			return false, domainerrors.ErrUserInactive
		}
		user.Bio = "stale"
		return true, nil
	}, build)
	assert.ErrorIs(t, err, domainerrors.ErrUserInactive)
	assert.False(t, changed)

	stored, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Empty(t, stored.Bio)

	pending, err := repo.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, _, err = repo.UpdateUser(ctx, "missing", func(user *entities.User) (bool, error) { return true, nil }, build)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestLikeAdjustmentCommitsWithProcessedRecord(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")
	store := dedup.NewGorm(repo.db, "user_event_dedup")
	require.NoError(t, store.Migrate(ctx))
	expires := time.Now().Add(time.Hour)
	adjust := func(ctx context.Context) error {
		_, _, err := repo.AdjustLikesCount(ctx, "u1", 1)
		return err
	}

	crash := errors.New("worker stopped")
	_, err := store.RunOnce(ctx, "like-1", "h1", expires, func(ctx context.Context) error {
		if err := adjust(ctx); err != nil {
			return err
		}
		return crash
	})
	require.ErrorIs(t, err, crash)
	user, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.LikesCount)

	for i := 0; i < 2; i++ {
		_, err = store.RunOnce(ctx, "like-1", "h1", expires, adjust)
		require.NoError(t, err)
	}
	user, err = repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.LikesCount)
}

func TestLookupByUsernameAndFollowEdge(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedUser(t, repo, "a")
	seedUser(t, repo, "b")

	user, err := repo.GetUserByUsername(ctx, "name-a")
	require.NoError(t, err)
	assert.Equal(t, "a", user.UserID)
	_, err = repo.GetUserByUsername(ctx, "NAME-A")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)

	_, err = repo.AddFollow(ctx, entities.Follow{FollowerID: "a", FollowingID: "b", CreatedAt: time.Now()})
	require.NoError(t, err)
	following, err := repo.IsFollowing(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, following)
	following, err = repo.IsFollowing(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, following)

	_, err = repo.RemoveFollow(ctx, "a", "b")
	require.NoError(t, err)
	following, err = repo.IsFollowing(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, following)
}
