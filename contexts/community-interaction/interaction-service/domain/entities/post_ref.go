package entities

import (
	"time"

	"inkwell/internal/shared/lifecycle"
)

// PostRef is what this service knows about a post owned by post-service.
type PostRef struct {
	PostID    string
	AuthorID  string
	State     lifecycle.State
	UpdatedAt time.Time
}

// Writable reports whether new likes and comments may reference the post.
// Posts not yet observed are writable; tombstoned posts never are.
func (p PostRef) Writable() bool {
	return !p.State.IsTombstoned()
}

// CascadeResult counts the rows soft-deleted when a post was tombstoned.
type CascadeResult struct {
	Comments     int64
	PostLikes    int64
	CommentLikes int64
}

type PostStats struct {
	PostID        string
	State         lifecycle.State
	LikesCount    int64
	CommentsCount int64
}
