package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"inkwell/contexts/community-interaction/interaction-service/domain/entities"
	domainerrors "inkwell/contexts/community-interaction/interaction-service/domain/errors"
	"inkwell/contexts/community-interaction/interaction-service/ports"
	"inkwell/internal/shared/counters"
	"inkwell/internal/shared/outbox"
)

// Store is an in-memory adapter implementing the interaction-service ports.
// It is intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	posts    map[string]entities.PostRef
	likes    map[likeKey]entities.Like
	comments map[string]entities.Comment

	outbox *outbox.MemoryStore
}

type likeKey struct {
	targetType entities.TargetType
	targetID   string
	userID     string
}

func NewStore() *Store {
	return &Store{
		posts:    make(map[string]entities.PostRef),
		likes:    make(map[likeKey]entities.Like),
		comments: make(map[string]entities.Comment),
		outbox:   outbox.NewMemoryStore(),
	}
}

func (s *Store) Outbox() *outbox.MemoryStore {
	return s.outbox
}

func (s *Store) GetPostRef(_ context.Context, postID string) (entities.PostRef, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.posts[postID]
	return ref, ok, nil
}

func (s *Store) SavePostRef(_ context.Context, ref entities.PostRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[ref.PostID] = ref
	return nil
}

func (s *Store) TombstonePost(_ context.Context, ref entities.PostRef) (entities.CascadeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result entities.CascadeResult
	s.posts[ref.PostID] = ref
	for id, comment := range s.comments {
		if comment.PostID != ref.PostID || !comment.IsActive {
			continue
		}
		comment.IsActive = false
		comment.UpdatedAt = ref.UpdatedAt
		s.comments[id] = comment
		result.Comments++
	}
	for key, like := range s.likes {
		if like.PostID != ref.PostID || !like.IsActive {
			continue
		}
		like.IsActive = false
		like.UpdatedAt = ref.UpdatedAt
		s.likes[key] = like
		if key.targetType == entities.TargetComment {
			result.CommentLikes++
		} else {
			result.PostLikes++
		}
	}
	return result, nil
}

func (s *Store) AddLike(_ context.Context, like entities.Like, build ports.LikeMessageBuilder) (entities.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref, ok := s.posts[like.PostID]; ok && !ref.Writable() {
		return entities.Like{}, domainerrors.ErrPostUnavailable
	}
	if like.TargetType == entities.TargetComment {
		comment, ok := s.comments[like.TargetID]
		if !ok || !comment.IsActive {
			return entities.Like{}, domainerrors.ErrCommentNotFound
		}
	}
	key := likeKey{targetType: like.TargetType, targetID: like.TargetID, userID: like.UserID}
	if current, ok := s.likes[key]; ok && current.IsActive {
		return entities.Like{}, domainerrors.ErrAlreadyLiked
	}

	message, err := build(like)
	if err != nil {
		return entities.Like{}, err
	}
	s.likes[key] = like
	s.recountCommentLikesLocked(like)
	s.outbox.Append(message)
	return like, nil
}

func (s *Store) RemoveLike(
	_ context.Context,
	targetType entities.TargetType,
	targetID string,
	userID string,
	at time.Time,
	build ports.LikeMessageBuilder,
) (entities.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := likeKey{targetType: targetType, targetID: targetID, userID: userID}
	like, ok := s.likes[key]
	if !ok || !like.IsActive {
		return entities.Like{}, domainerrors.ErrLikeNotFound
	}
	like.IsActive = false
	like.UpdatedAt = at

	message, err := build(like)
	if err != nil {
		return entities.Like{}, err
	}
	s.likes[key] = like
	s.recountCommentLikesLocked(like)
	s.outbox.Append(message)
	return like, nil
}

func (s *Store) FindLikes(
	_ context.Context,
	targetType entities.TargetType,
	userID string,
	targetIDs []string,
) ([]entities.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Like, 0, len(targetIDs))
	for _, targetID := range targetIDs {
		like, ok := s.likes[likeKey{targetType: targetType, targetID: targetID, userID: userID}]
		if ok && like.IsActive {
			items = append(items, like)
		}
	}
	return items, nil
}

func (s *Store) ListLikesByTarget(_ context.Context, targetType entities.TargetType, targetID string, limit int) ([]entities.Like, error) {
	return s.listLikes(limit, func(key likeKey) bool {
		return key.targetType == targetType && key.targetID == targetID
	}), nil
}

func (s *Store) ListLikesByUser(_ context.Context, userID string, limit int) ([]entities.Like, error) {
	return s.listLikes(limit, func(key likeKey) bool {
		return key.userID == userID
	}), nil
}

func (s *Store) listLikes(limit int, match func(likeKey) bool) []entities.Like {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Like, 0)
	for key, like := range s.likes {
		if like.IsActive && match(key) {
			items = append(items, like)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].LikeID < items[j].LikeID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (s *Store) CreateComment(_ context.Context, comment entities.Comment, message outbox.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref, ok := s.posts[comment.PostID]; ok && !ref.Writable() {
		return domainerrors.ErrPostUnavailable
	}
	if comment.ParentCommentID != "" {
		parent, ok := s.comments[comment.ParentCommentID]
		if !ok || !parent.IsActive || parent.PostID != comment.PostID {
			return domainerrors.ErrInvalidParent
		}
	}
	if _, exists := s.comments[comment.CommentID]; exists {
		return domainerrors.ErrRepositoryConflict
	}
	s.comments[comment.CommentID] = comment
	s.recountRepliesLocked(comment.ParentCommentID)
	s.outbox.Append(message)
	return nil
}

func (s *Store) GetComment(_ context.Context, commentID string) (entities.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comment, ok := s.comments[commentID]
	if !ok {
		return entities.Comment{}, domainerrors.ErrCommentNotFound
	}
	return comment, nil
}

func (s *Store) UpdateComment(_ context.Context, commentID string, mutate ports.CommentMutation) (entities.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[commentID]
	if !ok {
		return entities.Comment{}, domainerrors.ErrCommentNotFound
	}
	if err := mutate(&comment); err != nil {
		return entities.Comment{}, err
	}
	s.comments[commentID] = comment
	return comment, nil
}

func (s *Store) DeleteComment(_ context.Context, commentID string, at time.Time, build ports.CommentMessageBuilder) ([]entities.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, ok := s.comments[commentID]
	if !ok || !root.IsActive {
		return nil, domainerrors.ErrCommentNotFound
	}

	deleted := []entities.Comment{root}
	for i := 0; i < len(deleted); i++ {
		deleted = append(deleted, s.activeRepliesLocked(deleted[i].CommentID)...)
	}

	messages := make([]outbox.Message, 0, len(deleted))
	for i := range deleted {
		deleted[i].IsActive = false
		deleted[i].UpdatedAt = at
		message, err := build(deleted[i])
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	for _, comment := range deleted {
		s.comments[comment.CommentID] = comment
		for key, like := range s.likes {
			if key.targetType == entities.TargetComment && key.targetID == comment.CommentID && like.IsActive {
				like.IsActive = false
				like.UpdatedAt = at
				s.likes[key] = like
			}
		}
	}
	s.recountRepliesLocked(root.ParentCommentID)
	s.outbox.Append(messages...)
	return deleted, nil
}

func (s *Store) ListComments(_ context.Context, postID string, limit int) ([]entities.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Comment, 0)
	for _, comment := range s.comments {
		if comment.PostID == postID && comment.IsActive {
			items = append(items, comment)
		}
	}
	sortComments(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) GetPostStats(_ context.Context, postID string) (entities.PostStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := entities.PostStats{PostID: postID, State: s.posts[postID].State}
	for key, like := range s.likes {
		if key.targetType == entities.TargetPost && key.targetID == postID && like.IsActive {
			stats.LikesCount++
		}
	}
	for _, comment := range s.comments {
		if comment.PostID == postID && comment.IsActive {
			stats.CommentsCount++
		}
	}
	return stats, nil
}

func (s *Store) activeRepliesLocked(parentID string) []entities.Comment {
	replies := make([]entities.Comment, 0)
	for _, comment := range s.comments {
		if comment.ParentCommentID == parentID && comment.IsActive {
			replies = append(replies, comment)
		}
	}
	sortComments(replies)
	return replies
}

func (s *Store) recountRepliesLocked(parentID string) {
	if parentID == "" {
		return
	}
	parent, ok := s.comments[parentID]
	if !ok {
		return
	}
	parent.ReplyCount = counters.Apply(parent.ReplyCount, counters.SetTo(int64(len(s.activeRepliesLocked(parentID)))))
	s.comments[parentID] = parent
}

func (s *Store) recountCommentLikesLocked(like entities.Like) {
	if like.TargetType != entities.TargetComment {
		return
	}
	comment, ok := s.comments[like.TargetID]
	if !ok {
		return
	}
	var total int64
	for key, item := range s.likes {
		if key.targetType == entities.TargetComment && key.targetID == like.TargetID && item.IsActive {
			total++
		}
	}
	comment.LikeCount = counters.Apply(comment.LikeCount, counters.SetTo(total))
	s.comments[like.TargetID] = comment
}

func sortComments(items []entities.Comment) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CommentID < items[j].CommentID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
