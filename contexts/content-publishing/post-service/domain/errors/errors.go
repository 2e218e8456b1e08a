package errors

import "errors"

var (
	ErrInvalidPost        = errors.New("invalid post")
	ErrInvalidPostID      = errors.New("invalid post id")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrPostNotFound       = errors.New("post not found")
	ErrPostInactive       = errors.New("post is inactive")
	ErrAuthorInactive     = errors.New("author is inactive")
	ErrForbidden          = errors.New("action not permitted for caller")
	ErrRepositoryConflict = errors.New("repository invariant broken")
)
