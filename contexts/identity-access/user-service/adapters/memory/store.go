package memory

import (
	"context"
	"sort"
	"sync"

	"inkwell/contexts/identity-access/user-service/domain/entities"
	domainerrors "inkwell/contexts/identity-access/user-service/domain/errors"
	"inkwell/contexts/identity-access/user-service/ports"
	"inkwell/internal/shared/counters"
	"inkwell/internal/shared/lifecycle"
	"inkwell/internal/shared/outbox"
)

// Store is an in-memory adapter implementing the user-service ports.
// It is intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	users         map[string]entities.User
	usernames     map[string]string
	emails        map[string]string
	follows       map[followKey]entities.Follow
	authoredPosts map[string]entities.AuthoredPost

	outbox *outbox.MemoryStore
}

type followKey struct {
	followerID  string
	followingID string
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]entities.User),
		usernames:     make(map[string]string),
		emails:        make(map[string]string),
		follows:       make(map[followKey]entities.Follow),
		authoredPosts: make(map[string]entities.AuthoredPost),
		outbox:        outbox.NewMemoryStore(),
	}
}

// Outbox exposes the queued messages to the forwarder.
func (s *Store) Outbox() *outbox.MemoryStore {
	return s.outbox
}

func (s *Store) CreateUser(_ context.Context, user entities.User, message outbox.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usernames[user.Username]; exists {
		return domainerrors.ErrUsernameTaken
	}
	if _, exists := s.emails[user.Email]; exists {
		return domainerrors.ErrEmailTaken
	}
	if _, exists := s.users[user.UserID]; exists {
		return domainerrors.ErrRepositoryConflict
	}
	s.users[user.UserID] = user
	s.usernames[user.Username] = user.UserID
	s.emails[user.Email] = user.UserID
	s.outbox.Append(message)
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.usernames[username]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return s.users[userID], nil
}

// UpdateUser runs mutate under the store lock. Only profile fields and the
// active flag are taken from the mutated user; counters are owned by the store.
func (s *Store) UpdateUser(
	_ context.Context,
	userID string,
	mutate ports.UserMutation,
	build ports.UserMessageBuilder,
) (entities.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[userID]
	if !ok {
		return entities.User{}, false, domainerrors.ErrUserNotFound
	}
	user := current
	changed, err := mutate(&user)
	if err != nil {
		return entities.User{}, false, err
	}
	if !changed {
		return current, false, nil
	}
	current.FullName = user.FullName
	current.Bio = user.Bio
	current.IsActive = user.IsActive
	current.UpdatedAt = user.UpdatedAt
	message, err := build(current)
	if err != nil {
		return entities.User{}, false, err
	}
	s.users[userID] = current
	s.outbox.Append(message)
	return current, true, nil
}

func (s *Store) AddFollow(_ context.Context, follow entities.Follow) (entities.FollowCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := followKey{followerID: follow.FollowerID, followingID: follow.FollowingID}
	if _, exists := s.follows[key]; exists {
		return entities.FollowCounts{}, domainerrors.ErrAlreadyFollowing
	}
	s.follows[key] = follow
	return s.recomputeFollowCountsLocked(follow.FollowerID, follow.FollowingID), nil
}

func (s *Store) RemoveFollow(_ context.Context, followerID string, followingID string) (entities.FollowCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := followKey{followerID: followerID, followingID: followingID}
	if _, exists := s.follows[key]; !exists {
		return entities.FollowCounts{}, domainerrors.ErrNotFollowing
	}
	delete(s.follows, key)
	return s.recomputeFollowCountsLocked(followerID, followingID), nil
}

func (s *Store) recomputeFollowCountsLocked(followerID string, followingID string) entities.FollowCounts {
	counts := entities.FollowCounts{}
	for key := range s.follows {
		if key.followerID == followerID {
			counts.FollowerFollowingCount++
		}
		if key.followingID == followingID {
			counts.FollowingFollowersCount++
		}
	}
	if user, ok := s.users[followerID]; ok {
		user.FollowingCount = counts.FollowerFollowingCount
		s.users[followerID] = user
	}
	if user, ok := s.users[followingID]; ok {
		user.FollowersCount = counts.FollowingFollowersCount
		s.users[followingID] = user
	}
	return counts
}

func (s *Store) ListFollowers(_ context.Context, userID string, limit int) ([]entities.Follow, error) {
	return s.listFollows(limit, func(key followKey) bool { return key.followingID == userID }), nil
}

func (s *Store) IsFollowing(_ context.Context, followerID string, followingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.follows[followKey{followerID: followerID, followingID: followingID}]
	return ok, nil
}

func (s *Store) ListFollowing(_ context.Context, userID string, limit int) ([]entities.Follow, error) {
	return s.listFollows(limit, func(key followKey) bool { return key.followerID == userID }), nil
}

func (s *Store) listFollows(limit int, match func(followKey) bool) []entities.Follow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Follow, 0)
	for key, follow := range s.follows {
		if match(key) {
			items = append(items, follow)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].FollowerID+items[i].FollowingID < items[j].FollowerID+items[j].FollowingID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (s *Store) GetAuthoredPost(_ context.Context, postID string) (entities.AuthoredPost, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.authoredPosts[postID]
	return post, ok, nil
}

func (s *Store) SaveAuthoredPost(_ context.Context, post entities.AuthoredPost) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authoredPosts[post.PostID] = post

	var postsCount int64
	for _, item := range s.authoredPosts {
		if item.UserID == post.UserID && item.State == lifecycle.Active {
			postsCount++
		}
	}
	if user, ok := s.users[post.UserID]; ok {
		user.PostsCount = postsCount
		s.users[post.UserID] = user
	}
	return postsCount, nil
}

func (s *Store) AdjustLikesCount(_ context.Context, userID string, delta int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return 0, false, nil
	}
	user.LikesCount = counters.Apply(user.LikesCount, counters.Delta(delta))
	s.users[userID] = user
	return user.LikesCount, true, nil
}
