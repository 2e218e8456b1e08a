package interactionservice_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	interactionservice "inkwell/contexts/community-interaction/interaction-service"
	"inkwell/contexts/community-interaction/interaction-service/adapters/memory"
	domainerrors "inkwell/contexts/community-interaction/interaction-service/domain/errors"
	httptransport "inkwell/contexts/community-interaction/interaction-service/transport/http"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/platform/dedup"
	"inkwell/internal/shared/events"
	"inkwell/internal/shared/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type harness struct {
	module interactionservice.Module
	store  *memory.Store
	posts  *events.Router
}

func newHarness() harness {
	store := memory.NewStore()
	module := interactionservice.NewModule(interactionservice.Dependencies{
		Repository: store,
		Clock:      &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	module.Store = store
	consumer := module.Consumer
	consumer.Guard = events.NewGuard(dedup.NewMemory(), time.Hour, nil)
	return harness{module: module, store: store, posts: consumer.Routers()[0]}
}

func (h harness) dispatch(t *testing.T, eventID string, eventType string, payload any) {
	t.Helper()
	envelope, err := events.NewEnvelope(eventID, eventType, time.Now(), payload)
	require.NoError(t, err)
	raw, err := events.Encode(envelope)
	require.NoError(t, err)
	require.NoError(t, h.posts.Dispatch(context.Background(), events.Delivery{Topic: eventsv1.TopicPostEvents, Key: "p", Value: raw}))
}

func (h harness) stats(t *testing.T, postID string) httptransport.PostStatsResponse {
	t.Helper()
	stats, err := h.module.Handler.GetPostStatsHandler(context.Background(), postID)
	require.NoError(t, err)
	return stats
}

func (h harness) queued(t *testing.T) []events.Envelope {
	t.Helper()
	pending, err := h.store.Outbox().ListPending(context.Background(), 500)
	require.NoError(t, err)
	items := make([]events.Envelope, 0, len(pending))
	for _, message := range pending {
		envelope, err := events.Decode(message.Payload)
		require.NoError(t, err)
		items = append(items, envelope)
	}
	return items
}

func TestDeactivatedPostCascadesOnce(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.dispatch(t, "evt-create", eventsv1.EventPostCreated, eventsv1.PostCreated{PostID: "P", UserID: "author"})

	commentIDs := make([]string, 0, 3)
	for _, user := range []string{"u1", "u2", "u3"} {
		comment, err := h.module.Handler.CreateCommentHandler(ctx, user, "P", httptransport.CreateCommentRequest{Content: "hi from " + user})
		require.NoError(t, err)
		commentIDs = append(commentIDs, comment.CommentID)
	}
	for _, user := range []string{"u1", "u2", "u3", "u4", "u5"} {
		_, err := h.module.Handler.LikePostHandler(ctx, user, "P")
		require.NoError(t, err)
	}
	stats := h.stats(t, "P")
	assert.Equal(t, int64(5), stats.LikesCount)
	assert.Equal(t, int64(3), stats.CommentsCount)

	h.dispatch(t, "evt-deactivate", eventsv1.EventPostUpdated, eventsv1.PostUpdated{PostID: "P", UserID: "author", IsActive: false})

	stats = h.stats(t, "P")
	assert.Equal(t, "tombstoned", stats.State)
	assert.Zero(t, stats.LikesCount)
	assert.Zero(t, stats.CommentsCount)

	tombstonedAt := make(map[string]time.Time)
	for _, id := range commentIDs {
		comment, err := h.store.GetComment(ctx, id)
		require.NoError(t, err)
		assert.False(t, comment.IsActive)
		tombstonedAt[id] = comment.UpdatedAt
	}

	h.dispatch(t, "evt-deactivate", eventsv1.EventPostUpdated, eventsv1.PostUpdated{PostID: "P", UserID: "author", IsActive: false})
	h.dispatch(t, "evt-delete", eventsv1.EventPostDeleted, eventsv1.PostDeleted{PostID: "P"})
	for _, id := range commentIDs {
		comment, err := h.store.GetComment(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, tombstonedAt[id], comment.UpdatedAt)
	}

	_, err := h.module.Handler.LikePostHandler(ctx, "u9", "P")
	assert.ErrorIs(t, err, domainerrors.ErrPostUnavailable)
	_, err = h.module.Handler.CreateCommentHandler(ctx, "u9", "P", httptransport.CreateCommentRequest{Content: "late"})
	assert.ErrorIs(t, err, domainerrors.ErrPostUnavailable)
}

func TestDuplicateCreateAfterDeleteDoesNotResurrect(t *testing.T) {
	h := newHarness()
	h.dispatch(t, "e1", eventsv1.EventPostCreated, eventsv1.PostCreated{PostID: "p1", UserID: "u1"})
	h.dispatch(t, "e2", eventsv1.EventPostDeleted, eventsv1.PostDeleted{PostID: "p1"})
	h.dispatch(t, "e1", eventsv1.EventPostCreated, eventsv1.PostCreated{PostID: "p1", UserID: "u1"})
	h.dispatch(t, "e3", eventsv1.EventPostUpdated, eventsv1.PostUpdated{PostID: "p1", UserID: "u1", IsActive: true})

	stats := h.stats(t, "p1")
	assert.Equal(t, "tombstoned", stats.State)
	assert.Zero(t, stats.LikesCount)
	assert.Zero(t, stats.CommentsCount)
}

func TestDeleteBeforeCreateConvergesOnTombstone(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.dispatch(t, "e-del", eventsv1.EventPostDeleted, eventsv1.PostDeleted{PostID: "p2"})
	h.dispatch(t, "e-new", eventsv1.EventPostCreated, eventsv1.PostCreated{PostID: "p2", UserID: "u1"})

	ref, found, err := h.store.GetPostRef(ctx, "p2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, lifecycle.Tombstoned, ref.State)

	_, err = h.module.Handler.LikePostHandler(ctx, "u2", "p2")
	assert.ErrorIs(t, err, domainerrors.ErrPostUnavailable)
}

func TestUpdateRefreshLearnsMissingAuthor(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.dispatch(t, "e1", eventsv1.EventPostCreated, eventsv1.PostCreated{PostID: "p3", UserID: "u1"})
	ref, _, err := h.store.GetPostRef(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, "u1", ref.AuthorID)

	h.dispatch(t, "e2", eventsv1.EventPostUpdated, eventsv1.PostUpdated{PostID: "p4", IsActive: true})
	h.dispatch(t, "e3", eventsv1.EventPostUpdated, eventsv1.PostUpdated{PostID: "p4", UserID: "u7", IsActive: true})
	ref, _, err = h.store.GetPostRef(ctx, "p4")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Active, ref.State)
	assert.Equal(t, "u7", ref.AuthorID)
}

func TestLikePostIsUniquePerUserAndQueuesEvents(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.dispatch(t, "e1", eventsv1.EventPostCreated, eventsv1.PostCreated{PostID: "p1", UserID: "owner"})

	first, err := h.module.Handler.LikePostHandler(ctx, "u2", "p1")
	require.NoError(t, err)
	_, err = h.module.Handler.LikePostHandler(ctx, "u2", "p1")
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyLiked)

	removed, err := h.module.Handler.UnlikePostHandler(ctx, "u2", "p1")
	require.NoError(t, err)
	assert.Equal(t, first.LikeID, removed.LikeID)
	assert.False(t, removed.IsActive)
	_, err = h.module.Handler.UnlikePostHandler(ctx, "u2", "p1")
	assert.ErrorIs(t, err, domainerrors.ErrLikeNotFound)

	again, err := h.module.Handler.LikePostHandler(ctx, "u2", "p1")
	require.NoError(t, err)
	assert.NotEqual(t, first.LikeID, again.LikeID)
	assert.Equal(t, int64(1), h.stats(t, "p1").LikesCount)

	pending, err := h.store.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	types := make([]string, 0, len(pending))
	for _, message := range pending {
		assert.Equal(t, eventsv1.TopicPostInteractionEvents, message.Topic)
		assert.Equal(t, "p1", message.PartitionKey)
		types = append(types, message.EventType)
	}
	assert.Equal(t, []string{eventsv1.EventLikeAdded, eventsv1.EventLikeRemoved, eventsv1.EventLikeAdded}, types)

	envelope, err := events.Decode(pending[0].Payload)
	require.NoError(t, err)
	var payload eventsv1.LikeChanged
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "owner", payload.TargetOwnerID)
	assert.Equal(t, eventsv1.TargetPost, payload.TargetType)
}

func TestCommentThreadDeleteCascadesToReplies(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.dispatch(t, "e1", eventsv1.EventPostCreated, eventsv1.PostCreated{PostID: "p1", UserID: "owner"})
	h.dispatch(t, "e2", eventsv1.EventPostCreated, eventsv1.PostCreated{PostID: "p2", UserID: "owner"})

	root, err := h.module.Handler.CreateCommentHandler(ctx, "u1", "p1", httptransport.CreateCommentRequest{Content: "root"})
	require.NoError(t, err)
	reply, err := h.module.Handler.CreateCommentHandler(ctx, "u2", "p1", httptransport.CreateCommentRequest{Content: "reply", ParentCommentID: root.CommentID})
	require.NoError(t, err)
	_, err = h.module.Handler.CreateCommentHandler(ctx, "u2", "p2", httptransport.CreateCommentRequest{Content: "elsewhere", ParentCommentID: root.CommentID})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidParent)
	_, err = h.module.Handler.CreateCommentHandler(ctx, "u2", "p1", httptransport.CreateCommentRequest{Content: "  "})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidComment)

	like, err := h.module.Handler.LikeCommentHandler(ctx, "u3", reply.CommentID)
	require.NoError(t, err)
	assert.Equal(t, "p1", like.PostID)

	stored, err := h.store.GetComment(ctx, root.CommentID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ReplyCount)
	stored, err = h.store.GetComment(ctx, reply.CommentID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.LikeCount)

	_, err = h.module.Handler.DeleteCommentHandler(ctx, "u2", root.CommentID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	deleted, err := h.module.Handler.DeleteCommentHandler(ctx, "u1", root.CommentID)
	require.NoError(t, err)
	assert.Equal(t, []string{root.CommentID, reply.CommentID}, deleted.DeletedIDs)

	_, err = h.module.Handler.UnlikeCommentHandler(ctx, "u3", reply.CommentID)
	assert.ErrorIs(t, err, domainerrors.ErrLikeNotFound)
	_, err = h.module.Handler.LikeCommentHandler(ctx, "u3", reply.CommentID)
	assert.ErrorIs(t, err, domainerrors.ErrCommentNotFound)

	listed, err := h.module.Handler.ListCommentsHandler(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, listed.Items)

	counts := make(map[string]int)
	topics := make(map[string]string)
	for _, envelope := range h.queued(t) {
		counts[envelope.EventType]++
	}
	pending, err := h.store.Outbox().ListPending(ctx, 100)
	require.NoError(t, err)
	for _, message := range pending {
		topics[message.EventType+"/"+message.PartitionKey] = message.Topic
	}
	assert.Equal(t, 2, counts[eventsv1.EventCommentCreated])
	assert.Equal(t, 2, counts[eventsv1.EventCommentDeleted])
	assert.Equal(t, 1, counts[eventsv1.EventLikeAdded])
	assert.Equal(t, eventsv1.TopicCommentInteractionEvents, topics[eventsv1.EventLikeAdded+"/"+reply.CommentID])
}

func TestCommentCreatedCarriesPostOwner(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.dispatch(t, "e1", eventsv1.EventPostCreated, eventsv1.PostCreated{PostID: "p1", UserID: "owner"})
	_, err := h.module.Handler.CreateCommentHandler(ctx, "u1", "p1", httptransport.CreateCommentRequest{Content: "hello"})
	require.NoError(t, err)

	queued := h.queued(t)
	require.Len(t, queued, 1)
	var payload eventsv1.CommentCreated
	require.NoError(t, json.Unmarshal(queued[0].Data, &payload))
	assert.Equal(t, "owner", payload.PostOwnerID)
	assert.Equal(t, "hello", payload.Content)
}

func TestUnknownAndMalformedPostEventsAreDropped(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.dispatch(t, "e1", "POST_ARCHIVED", map[string]string{"postId": "p1"})
	require.NoError(t, h.posts.Dispatch(ctx, events.Delivery{Topic: eventsv1.TopicPostEvents, Value: []byte("{not json")}))
	require.NoError(t, h.posts.Dispatch(ctx, events.Delivery{Topic: eventsv1.TopicPostEvents, Value: nil}))

	_, found, err := h.store.GetPostRef(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCommentEditMarksEditedAndQueuesNothing(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.dispatch(t, "e1", eventsv1.EventPostCreated, eventsv1.PostCreated{PostID: "p1", UserID: "owner"})
	comment, err := h.module.Handler.CreateCommentHandler(ctx, "u1", "p1", httptransport.CreateCommentRequest{Content: "first"})
	require.NoError(t, err)
	assert.False(t, comment.IsEdited)
	before := len(h.queued(t))

	_, err = h.module.Handler.UpdateCommentHandler(ctx, "u2", comment.CommentID, httptransport.UpdateCommentRequest{Content: "hijack"})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = h.module.Handler.UpdateCommentHandler(ctx, "u1", comment.CommentID, httptransport.UpdateCommentRequest{Content: "   "})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidComment)
	_, err = h.module.Handler.UpdateCommentHandler(ctx, "u1", "missing", httptransport.UpdateCommentRequest{Content: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrCommentNotFound)

	edited, err := h.module.Handler.UpdateCommentHandler(ctx, "u1", comment.CommentID, httptransport.UpdateCommentRequest{Content: " second "})
	require.NoError(t, err)
	assert.Equal(t, "second", edited.Content)
	assert.True(t, edited.IsEdited)
	assert.True(t, edited.UpdatedAt.After(comment.UpdatedAt))
	assert.Equal(t, comment.CreatedAt, edited.CreatedAt)

	listed, err := h.module.Handler.ListCommentsHandler(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, "second", listed.Items[0].Content)
	assert.True(t, listed.Items[0].IsEdited)
	assert.Len(t, h.queued(t), before)

	h.dispatch(t, "e2", eventsv1.EventPostDeleted, eventsv1.PostDeleted{PostID: "p1"})
	_, err = h.module.Handler.UpdateCommentHandler(ctx, "u1", comment.CommentID, httptransport.UpdateCommentRequest{Content: "late"})
	assert.ErrorIs(t, err, domainerrors.ErrCommentNotFound)
}

func TestLikeStatusAndListings(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p3"} {
		h.dispatch(t, "created-"+id, eventsv1.EventPostCreated, eventsv1.PostCreated{PostID: id, UserID: "owner"})
	}
	first, err := h.module.Handler.LikePostHandler(ctx, "u1", "p1")
	require.NoError(t, err)
	_, err = h.module.Handler.LikePostHandler(ctx, "u1", "p2")
	require.NoError(t, err)
	_, err = h.module.Handler.LikePostHandler(ctx, "u2", "p1")
	require.NoError(t, err)
	_, err = h.module.Handler.UnlikePostHandler(ctx, "u1", "p2")
	require.NoError(t, err)
	comment, err := h.module.Handler.CreateCommentHandler(ctx, "u2", "p3", httptransport.CreateCommentRequest{Content: "hi"})
	require.NoError(t, err)
	_, err = h.module.Handler.LikeCommentHandler(ctx, "u1", comment.CommentID)
	require.NoError(t, err)

	status, err := h.module.Handler.CheckLikeStatusHandler(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, status.Liked)
	require.NotNil(t, status.LikedAt)
	assert.Equal(t, first.CreatedAt, *status.LikedAt)

	bulk, err := h.module.Handler.BulkCheckLikeStatusHandler(ctx, "u1", httptransport.BulkLikeStatusRequest{
		PostIDs: []string{"p2", "p1", "p3", "p1"},
	})
	require.NoError(t, err)
	require.Len(t, bulk.Items, 3)
	assert.Equal(t, []string{"p2", "p1", "p3"}, []string{bulk.Items[0].PostID, bulk.Items[1].PostID, bulk.Items[2].PostID})
	assert.False(t, bulk.Items[0].Liked)
	assert.Nil(t, bulk.Items[0].LikedAt)
	assert.True(t, bulk.Items[1].Liked)
	assert.False(t, bulk.Items[2].Liked)

	tooMany := make([]string, 51)
	for i := range tooMany {
		tooMany[i] = "p" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	_, err = h.module.Handler.BulkCheckLikeStatusHandler(ctx, "u1", httptransport.BulkLikeStatusRequest{PostIDs: tooMany})
	assert.ErrorIs(t, err, domainerrors.ErrTooManyTargets)
	_, err = h.module.Handler.BulkCheckLikeStatusHandler(ctx, "u1", httptransport.BulkLikeStatusRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidPostID)
	_, err = h.module.Handler.CheckLikeStatusHandler(ctx, "", "p1")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidUserID)

	postLikes, err := h.module.Handler.ListPostLikesHandler(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, postLikes.Items, 2)
	assert.Equal(t, "u2", postLikes.Items[0].UserID)
	assert.Equal(t, "u1", postLikes.Items[1].UserID)

	userLikes, err := h.module.Handler.ListUserLikesHandler(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, userLikes.Items, 2)
	assert.Equal(t, string(eventsv1.TargetComment), userLikes.Items[0].TargetType)
	assert.Equal(t, "p1", userLikes.Items[1].TargetID)

	limited, err := h.module.Handler.ListUserLikesHandler(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Len(t, limited.Items, 1)
}
