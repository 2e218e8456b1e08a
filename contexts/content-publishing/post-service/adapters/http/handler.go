package httpadapter

import (
	"context"
	"log/slog"

	application "inkwell/contexts/content-publishing/post-service/application"
	"inkwell/contexts/content-publishing/post-service/application/commands"
	"inkwell/contexts/content-publishing/post-service/application/queries"
	"inkwell/contexts/content-publishing/post-service/domain/entities"
	httptransport "inkwell/contexts/content-publishing/post-service/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	CreatePost commands.CreatePostUseCase
	UpdatePost commands.UpdatePostUseCase
	GetPost    queries.GetPostUseCase
	ListPosts  queries.ListPostsByAuthorUseCase
	Logger     *slog.Logger
}

func (h Handler) CreatePostHandler(
	ctx context.Context,
	userID string,
	request httptransport.CreatePostRequest,
) (httptransport.PostResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http create post received",
		"event", "post_http_create_received",
		"module", application.Module,
		"layer", "transport",
		"user_id", userID,
		"tag_count", len(request.Tags),
	)
	post, err := h.CreatePost.Execute(ctx, commands.CreatePostCommand{
		UserID:  userID,
		Title:   request.Title,
		Content: request.Content,
		Tags:    request.Tags,
	})
	if err != nil {
		return httptransport.PostResponse{}, err
	}
	return toPostResponse(post), nil
}

func (h Handler) UpdatePostHandler(
	ctx context.Context,
	userID string,
	postID string,
	request httptransport.UpdatePostRequest,
) (httptransport.PostResponse, error) {
	post, err := h.UpdatePost.Update(ctx, commands.UpdatePostCommand{
		ActorID: userID,
		PostID:  postID,
		Title:   request.Title,
		Content: request.Content,
		Tags:    request.Tags,
	})
	if err != nil {
		return httptransport.PostResponse{}, err
	}
	return toPostResponse(post), nil
}

func (h Handler) DeactivatePostHandler(ctx context.Context, userID string, postID string) (httptransport.PostResponse, error) {
	post, err := h.UpdatePost.Deactivate(ctx, commands.PostLifecycleCommand{ActorID: userID, PostID: postID})
	if err != nil {
		return httptransport.PostResponse{}, err
	}
	return toPostResponse(post), nil
}

func (h Handler) DeletePostHandler(ctx context.Context, userID string, postID string) (httptransport.PostResponse, error) {
	post, err := h.UpdatePost.Delete(ctx, commands.PostLifecycleCommand{ActorID: userID, PostID: postID})
	if err != nil {
		return httptransport.PostResponse{}, err
	}
	return toPostResponse(post), nil
}

func (h Handler) GetPostHandler(ctx context.Context, viewerID string, postID string) (httptransport.PostResponse, error) {
	post, err := h.GetPost.Execute(ctx, viewerID, postID)
	if err != nil {
		return httptransport.PostResponse{}, err
	}
	return toPostResponse(post), nil
}

func (h Handler) ListPostsByAuthorHandler(
	ctx context.Context,
	viewerID string,
	authorID string,
	limit int,
) (httptransport.ListPostsResponse, error) {
	posts, err := h.ListPosts.Execute(ctx, viewerID, authorID, limit)
	if err != nil {
		return httptransport.ListPostsResponse{}, err
	}
	resp := httptransport.ListPostsResponse{
		UserID: authorID,
		Items:  make([]httptransport.PostResponse, 0, len(posts)),
	}
	for _, post := range posts {
		resp.Items = append(resp.Items, toPostResponse(post))
	}
	return resp, nil
}

func toPostResponse(post entities.Post) httptransport.PostResponse {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	return httptransport.PostResponse{
		PostID:        post.PostID,
		UserID:        post.UserID,
		Title:         post.Title,
		Content:       post.Content,
		Tags:          tags,
		IsActive:      post.IsActive,
		LikesCount:    post.LikesCount,
		CommentsCount: post.CommentsCount,
		Version:       post.Version,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
		DeletedAt:     post.DeletedAt,
	}
}
