package entities

import (
	"strings"
	"time"
	"unicode/utf8"

	domainerrors "inkwell/contexts/community-interaction/interaction-service/domain/errors"
)

const MaxCommentLength = 2000

type Comment struct {
	CommentID       string
	PostID          string
	UserID          string
	ParentCommentID string
	Content         string
	IsActive        bool
	IsEdited        bool
	LikeCount       int64
	ReplyCount      int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c Comment) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(c.PostID) == "" {
		return domainerrors.ErrInvalidPostID
	}
	return ValidateContent(c.Content)
}

func ValidateContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > MaxCommentLength {
		return domainerrors.ErrInvalidComment
	}
	return nil
}
