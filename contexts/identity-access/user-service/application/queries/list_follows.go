package queries

import (
	"context"
	"strings"

	"inkwell/contexts/identity-access/user-service/domain/entities"
	domainerrors "inkwell/contexts/identity-access/user-service/domain/errors"
	"inkwell/contexts/identity-access/user-service/ports"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type ListFollowsUseCase struct {
	Repository ports.FollowRepository
}

func (u ListFollowsUseCase) Followers(ctx context.Context, userID string, limit int) ([]entities.Follow, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidUserID
	}
	return u.Repository.ListFollowers(ctx, userID, clampLimit(limit))
}

func (u ListFollowsUseCase) Following(ctx context.Context, userID string, limit int) ([]entities.Follow, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidUserID
	}
	return u.Repository.ListFollowing(ctx, userID, clampLimit(limit))
}

// IsFollowing reports whether followerID currently follows followingID.
func (u ListFollowsUseCase) IsFollowing(ctx context.Context, followerID string, followingID string) (bool, error) {
	followerID = strings.TrimSpace(followerID)
	followingID = strings.TrimSpace(followingID)
	if followerID == "" || followingID == "" {
		return false, domainerrors.ErrInvalidUserID
	}
	return u.Repository.IsFollowing(ctx, followerID, followingID)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
