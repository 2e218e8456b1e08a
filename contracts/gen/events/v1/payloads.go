package v1

import (
	"errors"
	"strings"
)

var errMissingField = errors.New("required field missing")

type TargetType string

const (
	TargetPost    TargetType = "POST"
	TargetComment TargetType = "COMMENT"
)

type UserRegistered struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
}

func (p UserRegistered) Validate() error {
	return requireField("userId", p.UserID)
}

type UserUpdated struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Bio      string `json:"bio,omitempty"`
	IsActive bool   `json:"isActive"`
}

func (p UserUpdated) Validate() error {
	return requireField("userId", p.UserID)
}

type PostCreated struct {
	PostID string   `json:"postId"`
	UserID string   `json:"userId"`
	Title  string   `json:"title,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

func (p PostCreated) Validate() error {
	if err := requireField("postId", p.PostID); err != nil {
		return err
	}
	return requireField("userId", p.UserID)
}

type PostUpdated struct {
	PostID   string   `json:"postId"`
	UserID   string   `json:"userId,omitempty"`
	Title    string   `json:"title,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	IsActive bool     `json:"isActive"`
}

func (p PostUpdated) Validate() error {
	return requireField("postId", p.PostID)
}

type PostDeleted struct {
	PostID string `json:"postId"`
	UserID string `json:"userId,omitempty"`
}

func (p PostDeleted) Validate() error {
	return requireField("postId", p.PostID)
}

// LikeChanged is the payload of both LIKE_ADDED and LIKE_REMOVED.
type LikeChanged struct {
	LikeID        string     `json:"likeId"`
	UserID        string     `json:"userId"`
	TargetID      string     `json:"targetId"`
	TargetType    TargetType `json:"targetType"`
	TargetOwnerID string     `json:"targetOwnerId,omitempty"`
	PostID        string     `json:"postId,omitempty"`
}

func (p LikeChanged) Validate() error {
	if err := requireField("userId", p.UserID); err != nil {
		return err
	}
	if err := requireField("targetId", p.TargetID); err != nil {
		return err
	}
	switch p.TargetType {
	case TargetPost, TargetComment:
		return nil
	default:
		return errors.New("targetType must be POST or COMMENT")
	}
}

type CommentCreated struct {
	CommentID       string `json:"commentId"`
	PostID          string `json:"postId"`
	UserID          string `json:"userId"`
	PostOwnerID     string `json:"postOwnerId,omitempty"`
	Content         string `json:"content"`
	ParentCommentID string `json:"parentCommentId,omitempty"`
}

func (p CommentCreated) Validate() error {
	if err := requireField("commentId", p.CommentID); err != nil {
		return err
	}
	return requireField("postId", p.PostID)
}

type CommentDeleted struct {
	CommentID string `json:"commentId"`
	PostID    string `json:"postId"`
	UserID    string `json:"userId,omitempty"`
}

func (p CommentDeleted) Validate() error {
	if err := requireField("commentId", p.CommentID); err != nil {
		return err
	}
	return requireField("postId", p.PostID)
}

func requireField(field string, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field}
	}
	return nil
}

// FieldError reports a payload that is missing a required field.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + errMissingField.Error()
}

func (e *FieldError) Unwrap() error {
	return errMissingField
}
