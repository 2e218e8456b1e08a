package commands_test

import (
	"context"
	"testing"
	"time"

	"inkwell/contexts/content-publishing/post-service/adapters/memory"
	postgresadapter "inkwell/contexts/content-publishing/post-service/adapters/postgres"
	"inkwell/contexts/content-publishing/post-service/application/commands"
	"inkwell/contexts/content-publishing/post-service/domain/entities"
	domainerrors "inkwell/contexts/content-publishing/post-service/domain/errors"
	"inkwell/contexts/content-publishing/post-service/ports"
	"inkwell/internal/shared/lifecycle"
	"inkwell/internal/shared/outbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cascadeBeforeWrite deactivates the author after the caller has read the
// post and before its update reaches the store.
type cascadeBeforeWrite struct {
	*memory.Store
	authorID string
}

func (r cascadeBeforeWrite) UpdatePost(
	ctx context.Context,
	postID string,
	mutate ports.PostMutation,
	build ports.PostMessageBuilder,
) (entities.Post, bool, error) {
	author := entities.AuthorRef{UserID: r.authorID, State: lifecycle.Tombstoned, UpdatedAt: time.Now().UTC()}
	_, err := r.Store.DeactivateAuthor(ctx, author, func(post entities.Post) (outbox.Message, error) {
		return outbox.Message{ID: "cascade-" + post.PostID, Topic: "post-events", PartitionKey: post.PostID}, nil
	})
	if err != nil {
		return entities.Post{}, false, err
	}
	return r.Store.UpdatePost(ctx, postID, mutate, build)
}

func TestEditAfterAuthorCascadeKeepsPostInactive(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	create := commands.CreatePostUseCase{Repository: store, IDGenerator: postgresadapter.UUIDGenerator{}}
	post, err := create.Execute(ctx, commands.CreatePostCommand{UserID: "u1", Title: "first", Content: "body"})
	require.NoError(t, err)

	update := commands.UpdatePostUseCase{
		Repository:  cascadeBeforeWrite{Store: store, authorID: "u1"},
		IDGenerator: postgresadapter.UUIDGenerator{},
	}
	title := "edited"
	_, err = update.Update(ctx, commands.UpdatePostCommand{ActorID: "u1", PostID: post.PostID, Title: &title})
	assert.ErrorIs(t, err, domainerrors.ErrPostInactive)

	stored, err := store.GetPost(ctx, post.PostID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, "first", stored.Title)
	assert.Equal(t, int64(2), stored.Version)

	pending, err := store.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "cascade-"+post.PostID, pending[1].ID)
}

func TestDeleteAfterDeleteIsNoOp(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	create := commands.CreatePostUseCase{Repository: store, IDGenerator: postgresadapter.UUIDGenerator{}}
	post, err := create.Execute(ctx, commands.CreatePostCommand{UserID: "u1", Title: "first", Content: "body"})
	require.NoError(t, err)

	update := commands.UpdatePostUseCase{Repository: store, IDGenerator: postgresadapter.UUIDGenerator{}}
	first, err := update.Delete(ctx, commands.PostLifecycleCommand{ActorID: "u1", PostID: post.PostID})
	require.NoError(t, err)
	require.NotNil(t, first.DeletedAt)

	second, err := update.Delete(ctx, commands.PostLifecycleCommand{ActorID: "u1", PostID: post.PostID})
	require.NoError(t, err)
	assert.Equal(t, first.Version, second.Version)

	pending, err := store.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
