package entities

import (
	"time"

	"inkwell/internal/shared/lifecycle"
)

// AuthorRef projects a user from user-events. A tombstoned author stays
// tombstoned.
type AuthorRef struct {
	UserID    string
	Username  string
	State     lifecycle.State
	UpdatedAt time.Time
}

// PostLikeRef is unique per (PostID, UserID). Active follows the latest
// like event for the pair.
type PostLikeRef struct {
	PostID    string
	UserID    string
	LikeID    string
	Active    bool
	UpdatedAt time.Time
}

type PostCommentRef struct {
	CommentID string
	PostID    string
	UserID    string
	State     lifecycle.State
	UpdatedAt time.Time
}
