package memory

import (
	"context"
	"sort"
	"sync"

	"inkwell/contexts/content-publishing/post-service/domain/entities"
	domainerrors "inkwell/contexts/content-publishing/post-service/domain/errors"
	"inkwell/contexts/content-publishing/post-service/ports"
	"inkwell/internal/shared/counters"
	"inkwell/internal/shared/lifecycle"
	"inkwell/internal/shared/outbox"
)

// Store is an in-memory adapter implementing the post-service ports.
// It is intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	posts    map[string]entities.Post
	authors  map[string]entities.AuthorRef
	likes    map[likeKey]entities.PostLikeRef
	comments map[string]entities.PostCommentRef

	outbox *outbox.MemoryStore
}

type likeKey struct {
	postID string
	userID string
}

func NewStore() *Store {
	return &Store{
		posts:    make(map[string]entities.Post),
		authors:  make(map[string]entities.AuthorRef),
		likes:    make(map[likeKey]entities.PostLikeRef),
		comments: make(map[string]entities.PostCommentRef),
		outbox:   outbox.NewMemoryStore(),
	}
}

// Outbox exposes the queued messages to the forwarder.
func (s *Store) Outbox() *outbox.MemoryStore {
	return s.outbox
}

func (s *Store) CreatePost(_ context.Context, post entities.Post, message outbox.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if author, ok := s.authors[post.UserID]; ok && author.State.IsTombstoned() {
		return domainerrors.ErrAuthorInactive
	}
	if _, exists := s.posts[post.PostID]; exists {
		return domainerrors.ErrRepositoryConflict
	}
	s.posts[post.PostID] = clonePost(post)
	s.outbox.Append(message)
	return nil
}

func (s *Store) GetPost(_ context.Context, postID string) (entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[postID]
	if !ok {
		return entities.Post{}, domainerrors.ErrPostNotFound
	}
	return clonePost(post), nil
}

// UpdatePost runs mutate under the store lock. Engagement counters are owned
// by the store and are restored after mutate.
func (s *Store) UpdatePost(
	_ context.Context,
	postID string,
	mutate ports.PostMutation,
	build ports.PostMessageBuilder,
) (entities.Post, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.posts[postID]
	if !ok {
		return entities.Post{}, false, domainerrors.ErrPostNotFound
	}
	post := clonePost(current)
	changed, err := mutate(&post)
	if err != nil {
		return entities.Post{}, false, err
	}
	if !changed {
		return clonePost(current), false, nil
	}
	post.LikesCount = current.LikesCount
	post.CommentsCount = current.CommentsCount
	message, err := build(post)
	if err != nil {
		return entities.Post{}, false, err
	}
	s.posts[postID] = clonePost(post)
	s.outbox.Append(message)
	return post, true, nil
}

func (s *Store) ListPostsByAuthor(_ context.Context, userID string, includeInactive bool, limit int) ([]entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Post, 0)
	for _, post := range s.posts {
		if post.UserID != userID || post.DeletedAt != nil {
			continue
		}
		if !post.IsActive && !includeInactive {
			continue
		}
		items = append(items, clonePost(post))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].PostID < items[j].PostID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) GetAuthor(_ context.Context, userID string) (entities.AuthorRef, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	author, ok := s.authors[userID]
	return author, ok, nil
}

func (s *Store) SaveAuthor(_ context.Context, author entities.AuthorRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authors[author.UserID] = author
	return nil
}

func (s *Store) DeactivateAuthor(_ context.Context, author entities.AuthorRef, build ports.PostMessageBuilder) ([]entities.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := make([]entities.Post, 0)
	messages := make([]outbox.Message, 0)
	for _, post := range s.posts {
		if post.UserID != author.UserID {
			continue
		}
		if !post.Deactivate(author.UpdatedAt) {
			continue
		}
		message, err := build(post)
		if err != nil {
			return nil, err
		}
		changed = append(changed, post)
		messages = append(messages, message)
	}

	// Nothing is written until every message rendered.
	s.authors[author.UserID] = author
	for _, post := range changed {
		s.posts[post.PostID] = post
	}
	s.outbox.Append(messages...)
	return changed, nil
}

func (s *Store) SaveLikeRef(_ context.Context, like entities.PostLikeRef) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likes[likeKey{postID: like.PostID, userID: like.UserID}] = like

	var likesCount int64
	for key, item := range s.likes {
		if key.postID == like.PostID && item.Active {
			likesCount++
		}
	}
	s.setCounterLocked(like.PostID, func(post *entities.Post) {
		post.LikesCount = counters.Apply(post.LikesCount, counters.SetTo(likesCount))
	})
	return likesCount, nil
}

func (s *Store) GetCommentRef(_ context.Context, commentID string) (entities.PostCommentRef, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.comments[commentID]
	return ref, ok, nil
}

func (s *Store) SaveCommentRef(_ context.Context, comment entities.PostCommentRef) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[comment.CommentID] = comment

	var commentsCount int64
	for _, item := range s.comments {
		if item.PostID == comment.PostID && item.State == lifecycle.Active {
			commentsCount++
		}
	}
	s.setCounterLocked(comment.PostID, func(post *entities.Post) {
		post.CommentsCount = counters.Apply(post.CommentsCount, counters.SetTo(commentsCount))
	})
	return commentsCount, nil
}

func (s *Store) setCounterLocked(postID string, apply func(post *entities.Post)) {
	post, ok := s.posts[postID]
	if !ok {
		return
	}
	apply(&post)
	s.posts[postID] = post
}

func clonePost(post entities.Post) entities.Post {
	post.Tags = append([]string(nil), post.Tags...)
	return post
}
