package entities

import (
	"net/mail"
	"strings"
	"time"

	domainerrors "inkwell/contexts/identity-access/user-service/domain/errors"
)

type User struct {
	UserID         string
	Username       string
	Email          string
	PasswordHash   string
	FullName       string
	Bio            string
	IsActive       bool
	FollowersCount int64
	FollowingCount int64
	PostsCount     int64
	LikesCount     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u User) Validate() error {
	username := strings.TrimSpace(u.Username)
	if strings.TrimSpace(u.UserID) == "" ||
		len(username) < 3 || len(username) > 50 ||
		len(u.FullName) > 100 || len(u.Bio) > 500 {
		return domainerrors.ErrInvalidUser
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return domainerrors.ErrInvalidUser
	}
	return nil
}
