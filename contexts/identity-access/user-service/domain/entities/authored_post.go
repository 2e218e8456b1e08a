package entities

import (
	"time"

	"inkwell/internal/shared/lifecycle"
)

// AuthoredPost is the local projection of a post owned by post-service,
// kept only to recompute postsCount.
type AuthoredPost struct {
	PostID    string
	UserID    string
	State     lifecycle.State
	UpdatedAt time.Time
}
