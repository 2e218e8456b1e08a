package postgresadapter

import (
	"context"
	"testing"
	"time"

	"inkwell/contexts/content-publishing/post-service/domain/entities"
	domainerrors "inkwell/contexts/content-publishing/post-service/domain/errors"
	"inkwell/internal/platform/db"
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

func message(id string, postID string) outbox.Message {
	return outbox.Message{
		ID:           id,
		Topic:        "post-events",
		PartitionKey: postID,
		EventType:    "POST_CREATED",
		Payload:      []byte(`{"eventId":"` + id + `"}`),
		CreatedAt:    time.Now().UTC(),
	}
}

func seedPost(t *testing.T, repo *Repository, postID string, userID string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, repo.CreatePost(context.Background(), entities.Post{
		PostID:    postID,
		UserID:    userID,
		Title:     "title " + postID,
		Content:   "content",
		Tags:      []string{"go", "events"},
		IsActive:  true,
		Version:   1,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, message("evt-"+postID, postID)))
}

func TestCreatePostStoresTagsAndOutbox(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedPost(t, repo, "p1", "u1", time.Now())

	post, err := repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "events"}, post.Tags)
	assert.True(t, post.IsActive)

	pending, err := repo.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "evt-p1", pending[0].ID)

	_, err = repo.GetPost(ctx, "missing")
	assert.ErrorIs(t, err, domainerrors.ErrPostNotFound)
}

func TestDeactivateAuthorCascadesInOneTransaction(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedPost(t, repo, "p1", "u1", base)
	seedPost(t, repo, "p2", "u1", base.Add(time.Minute))
	seedPost(t, repo, "p3", "u2", base)

	author := entities.AuthorRef{UserID: "u1", State: lifecycle.Tombstoned, UpdatedAt: base.Add(time.Hour)}
	deactivated, err := repo.DeactivateAuthor(ctx, author, func(post entities.Post) (outbox.Message, error) {
		return message("cascade-"+post.PostID, post.PostID), nil
	})
	require.NoError(t, err)
	require.Len(t, deactivated, 2)
	assert.Equal(t, "p1", deactivated[0].PostID)
	assert.Equal(t, int64(2), deactivated[0].Version)

	for _, id := range []string{"p1", "p2"} {
		post, err := repo.GetPost(ctx, id)
		require.NoError(t, err)
		assert.False(t, post.IsActive)
	}
	other, err := repo.GetPost(ctx, "p3")
	require.NoError(t, err)
	assert.True(t, other.IsActive)

	pending, err := repo.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 5)

	posts, err := repo.ListPostsByAuthor(ctx, "u1", false, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
	posts, err = repo.ListPostsByAuthor(ctx, "u1", true, 10)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	seedErr := repo.CreatePost(ctx, entities.Post{PostID: "p4", UserID: "u1", Title: "t", Content: "c", CreatedAt: base, UpdatedAt: base}, message("evt-p4", "p4"))
	assert.ErrorIs(t, seedErr, domainerrors.ErrAuthorInactive)
}

func TestSaveAuthorKeepsTombstone(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.SaveAuthor(ctx, entities.AuthorRef{UserID: "u1", State: lifecycle.Tombstoned, UpdatedAt: now}))
	require.NoError(t, repo.SaveAuthor(ctx, entities.AuthorRef{UserID: "u1", Username: "alice", State: lifecycle.Active, UpdatedAt: now}))

	author, found, err := repo.GetAuthor(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, lifecycle.Tombstoned, author.State)
	assert.Equal(t, "alice", author.Username)
}

func TestEngagementRefsRecomputeCounters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now()
	seedPost(t, repo, "p1", "u1", now)

	count, err := repo.SaveLikeRef(ctx, entities.PostLikeRef{PostID: "p1", UserID: "fan", LikeID: "l1", Active: true, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = repo.SaveLikeRef(ctx, entities.PostLikeRef{PostID: "p1", UserID: "fan", LikeID: "l2", Active: true, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = repo.SaveLikeRef(ctx, entities.PostLikeRef{PostID: "p1", UserID: "other", LikeID: "l3", Active: true, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	count, err = repo.SaveLikeRef(ctx, entities.PostLikeRef{PostID: "p1", UserID: "fan", LikeID: "l2", Active: false, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.SaveCommentRef(ctx, entities.PostCommentRef{CommentID: "c1", PostID: "p1", State: lifecycle.Active, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = repo.SaveCommentRef(ctx, entities.PostCommentRef{CommentID: "c1", PostID: "p1", State: lifecycle.Tombstoned, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	ref, found, err := repo.GetCommentRef(ctx, "c1")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, ref.State.IsTombstoned())

	post, err := repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.LikesCount)
	assert.Equal(t, int64(0), post.CommentsCount)
}

func TestUpdatePostMutatesStoredRow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedPost(t, repo, "p1", "u1", base)

	author := entities.AuthorRef{UserID: "u1", State: lifecycle.Tombstoned, UpdatedAt: base.Add(time.Hour)}
	_, err := repo.DeactivateAuthor(ctx, author, func(post entities.Post) (outbox.Message, error) {
		return message("cascade-"+post.PostID, post.PostID), nil
	})
	require.NoError(t, err)

	var seen entities.Post
	_, changed, err := repo.UpdatePost(ctx, "p1",
		func(post *entities.Post) (bool, error) {
			seen = *post
			if !post.IsActive {
				return false, domainerrors.ErrPostInactive
			}
			post.Title = "stale edit"
			return true, nil
		},
		func(post entities.Post) (outbox.Message, error) {
			return message("edit-"+post.PostID, post.PostID), nil
		},
	)
	assert.ErrorIs(t, err, domainerrors.ErrPostInactive)
	assert.False(t, changed)
	assert.False(t, seen.IsActive)
	assert.Equal(t, int64(2), seen.Version)

	post, err := repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, post.IsActive)
	assert.Equal(t, "title p1", post.Title)

	pending, err := repo.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, _, err = repo.UpdatePost(ctx, "missing",
		func(post *entities.Post) (bool, error) { return true, nil },
		func(post entities.Post) (outbox.Message, error) { return message("x", "missing"), nil },
	)
	assert.ErrorIs(t, err, domainerrors.ErrPostNotFound)
}

func TestUpdatePostWritesRowAndOutboxTogether(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedPost(t, repo, "p1", "u1", base)

	updated, changed, err := repo.UpdatePost(ctx, "p1",
		func(post *entities.Post) (bool, error) {
			post.Title = "edited"
			post.Version++
			post.UpdatedAt = base.Add(time.Minute)
			return true, nil
		},
		func(post entities.Post) (outbox.Message, error) {
			return message("edit-"+post.PostID, post.PostID), nil
		},
	)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(2), updated.Version)

	post, err := repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "edited", post.Title)
	assert.Equal(t, []string{"go", "events"}, post.Tags)

	pending, err := repo.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
