package errors

import "errors"

var (
	ErrInvalidUser        = errors.New("invalid user")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrForbidden          = errors.New("action not permitted for caller")
	ErrInvalidFollow      = errors.New("invalid follow request")
	ErrSelfFollow         = errors.New("users cannot follow themselves")
	ErrAlreadyFollowing   = errors.New("already following user")
	ErrNotFollowing       = errors.New("not following user")
	ErrRepositoryConflict = errors.New("repository invariant broken")
)
