package entities

import (
	"strings"
	"time"

	domainerrors "inkwell/contexts/community-interaction/interaction-service/domain/errors"
	eventsv1 "inkwell/contracts/gen/events/v1"
)

type TargetType = eventsv1.TargetType

const (
	TargetPost    = eventsv1.TargetPost
	TargetComment = eventsv1.TargetComment
)

// Like is unique per (TargetType, TargetID, UserID). Unliking soft-deletes
// the row; liking again reactivates it under a new LikeID.
type Like struct {
	LikeID     string
	UserID     string
	TargetType TargetType
	TargetID   string
	PostID     string
	OwnerID    string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (l Like) Validate() error {
	if strings.TrimSpace(l.UserID) == "" {
		return domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(l.TargetID) == "" || strings.TrimSpace(l.PostID) == "" {
		return domainerrors.ErrInvalidPostID
	}
	if l.TargetType != TargetPost && l.TargetType != TargetComment {
		return domainerrors.ErrInvalidPostID
	}
	return nil
}

// LikeStatus reports whether a user currently likes a target. LikedAt is
// zero when Liked is false.
type LikeStatus struct {
	TargetID string
	Liked    bool
	LikedAt  time.Time
}
