package errors

import "errors"

var (
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidPostID      = errors.New("invalid post id")
	ErrInvalidCommentID   = errors.New("invalid comment id")
	ErrInvalidComment     = errors.New("invalid comment")
	ErrInvalidParent      = errors.New("parent comment does not belong to post")
	ErrPostUnavailable    = errors.New("post is no longer available")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrAlreadyLiked       = errors.New("target already liked by user")
	ErrLikeNotFound       = errors.New("like not found")
	ErrTooManyTargets     = errors.New("too many targets in one request")
	ErrForbidden          = errors.New("action not permitted for caller")
	ErrRepositoryConflict = errors.New("repository invariant broken")
)
