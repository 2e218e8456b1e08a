package queries

import (
	"context"
	"strings"

	"inkwell/contexts/content-publishing/post-service/domain/entities"
	domainerrors "inkwell/contexts/content-publishing/post-service/domain/errors"
	"inkwell/contexts/content-publishing/post-service/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type GetPostUseCase struct {
	Repository ports.PostRepository
}

// Execute hides soft-deleted posts from everyone but their author.
func (u GetPostUseCase) Execute(ctx context.Context, viewerID string, postID string) (entities.Post, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return entities.Post{}, domainerrors.ErrInvalidPostID
	}
	post, err := u.Repository.GetPost(ctx, postID)
	if err != nil {
		return entities.Post{}, err
	}
	if post.DeletedAt != nil && post.UserID != viewerID {
		return entities.Post{}, domainerrors.ErrPostNotFound
	}
	return post, nil
}

type ListPostsByAuthorUseCase struct {
	Repository ports.PostRepository
}

// Execute lists an author's posts, newest first. Deactivated posts are
// listed only when the viewer is the author; deleted posts never are.
func (u ListPostsByAuthorUseCase) Execute(ctx context.Context, viewerID string, authorID string, limit int) ([]entities.Post, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, domainerrors.ErrInvalidUserID
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return u.Repository.ListPostsByAuthor(ctx, authorID, viewerID == authorID, limit)
}
