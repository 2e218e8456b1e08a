package entities

import (
	"strings"
	"time"

	domainerrors "inkwell/contexts/identity-access/user-service/domain/errors"
)

// Follow is a directed edge of the follow graph. Edges are unique per
// (FollowerID, FollowingID) and never loop.
type Follow struct {
	FollowerID  string
	FollowingID string
	CreatedAt   time.Time
}

func NewFollow(followerID string, followingID string, at time.Time) (Follow, error) {
	followerID = strings.TrimSpace(followerID)
	followingID = strings.TrimSpace(followingID)
	if followerID == "" || followingID == "" {
		return Follow{}, domainerrors.ErrInvalidFollow
	}
	if followerID == followingID {
		return Follow{}, domainerrors.ErrSelfFollow
	}
	return Follow{FollowerID: followerID, FollowingID: followingID, CreatedAt: at.UTC()}, nil
}

// FollowCounts are the recomputed counters after a graph mutation.
type FollowCounts struct {
	FollowerFollowingCount  int64
	FollowingFollowersCount int64
}
