package queries

import (
	"context"
	"strings"

	"inkwell/contexts/community-interaction/interaction-service/domain/entities"
	domainerrors "inkwell/contexts/community-interaction/interaction-service/domain/errors"
	"inkwell/contexts/community-interaction/interaction-service/ports"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// GetPostStatsUseCase counts the active likes and comments of a post from
// local rows.
type GetPostStatsUseCase struct {
	Repository ports.StatsRepository
}

func (u GetPostStatsUseCase) Execute(ctx context.Context, postID string) (entities.PostStats, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return entities.PostStats{}, domainerrors.ErrInvalidPostID
	}
	return u.Repository.GetPostStats(ctx, postID)
}

type ListCommentsUseCase struct {
	Repository ports.CommentRepository
}

// Execute lists the active comments of a post, oldest first.
func (u ListCommentsUseCase) Execute(ctx context.Context, postID string, limit int) ([]entities.Comment, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, domainerrors.ErrInvalidPostID
	}
	return u.Repository.ListComments(ctx, postID, clampLimit(limit))
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
