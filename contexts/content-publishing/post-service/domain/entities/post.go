package entities

import (
	"strings"
	"time"

	domainerrors "inkwell/contexts/content-publishing/post-service/domain/errors"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 10000
	MaxTags          = 10
	MaxTagLength     = 30
)

type Post struct {
	PostID        string
	UserID        string
	Title         string
	Content       string
	Tags          []string
	IsActive      bool
	LikesCount    int64
	CommentsCount int64
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

func (p Post) Validate() error {
	title := strings.TrimSpace(p.Title)
	if strings.TrimSpace(p.PostID) == "" || strings.TrimSpace(p.UserID) == "" {
		return domainerrors.ErrInvalidPost
	}
	if title == "" || len(title) > MaxTitleLength {
		return domainerrors.ErrInvalidPost
	}
	if strings.TrimSpace(p.Content) == "" || len(p.Content) > MaxContentLength {
		return domainerrors.ErrInvalidPost
	}
	if len(p.Tags) > MaxTags {
		return domainerrors.ErrInvalidPost
	}
	for _, tag := range p.Tags {
		if tag == "" || len(tag) > MaxTagLength {
			return domainerrors.ErrInvalidPost
		}
	}
	return nil
}

// NormalizeTags lowercases, trims and de-duplicates tags keeping first
// occurrence order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	items := make([]string, 0, len(tags))
	for _, tag := range tags {
		value := strings.ToLower(strings.TrimSpace(tag))
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		items = append(items, value)
	}
	return items
}

// Deactivate marks the post inactive and bumps its version. It reports
// false when the post was already inactive.
func (p *Post) Deactivate(at time.Time) bool {
	if !p.IsActive {
		return false
	}
	p.IsActive = false
	p.Version++
	p.UpdatedAt = at.UTC()
	return true
}
