package queries

import (
	"context"
	"strings"

	"inkwell/contexts/community-interaction/interaction-service/domain/entities"
	domainerrors "inkwell/contexts/community-interaction/interaction-service/domain/errors"
	"inkwell/contexts/community-interaction/interaction-service/ports"
)

const maxStatusTargets = 50

// LikeStatusUseCase reports whether a user currently likes posts.
type LikeStatusUseCase struct {
	Repository ports.LikeRepository
}

func (u LikeStatusUseCase) Check(ctx context.Context, userID string, postID string) (entities.LikeStatus, error) {
	statuses, err := u.CheckMany(ctx, userID, []string{postID})
	if err != nil {
		return entities.LikeStatus{}, err
	}
	return statuses[0], nil
}

// CheckMany returns one status per distinct post id, in request order.
func (u LikeStatusUseCase) CheckMany(ctx context.Context, userID string, postIDs []string) ([]entities.LikeStatus, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidUserID
	}
	ids := make([]string, 0, len(postIDs))
	seen := make(map[string]struct{}, len(postIDs))
	for _, postID := range postIDs {
		postID = strings.TrimSpace(postID)
		if postID == "" {
			return nil, domainerrors.ErrInvalidPostID
		}
		if _, dup := seen[postID]; dup {
			continue
		}
		seen[postID] = struct{}{}
		ids = append(ids, postID)
	}
	if len(ids) == 0 {
		return nil, domainerrors.ErrInvalidPostID
	}
	if len(ids) > maxStatusTargets {
		return nil, domainerrors.ErrTooManyTargets
	}

	likes, err := u.Repository.FindLikes(ctx, entities.TargetPost, userID, ids)
	if err != nil {
		return nil, err
	}
	liked := make(map[string]entities.Like, len(likes))
	for _, like := range likes {
		liked[like.TargetID] = like
	}
	statuses := make([]entities.LikeStatus, 0, len(ids))
	for _, id := range ids {
		status := entities.LikeStatus{TargetID: id}
		if like, ok := liked[id]; ok {
			status.Liked = true
			status.LikedAt = like.CreatedAt
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ListLikesUseCase lists active likes, newest first.
type ListLikesUseCase struct {
	Repository ports.LikeRepository
}

func (u ListLikesUseCase) ByPost(ctx context.Context, postID string, limit int) ([]entities.Like, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, domainerrors.ErrInvalidPostID
	}
	return u.Repository.ListLikesByTarget(ctx, entities.TargetPost, postID, clampLimit(limit))
}

// ByUser covers both post and comment likes.
func (u ListLikesUseCase) ByUser(ctx context.Context, userID string, limit int) ([]entities.Like, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidUserID
	}
	return u.Repository.ListLikesByUser(ctx, userID, clampLimit(limit))
}
