package httpadapter

import (
	"context"
	"log/slog"

	application "inkwell/contexts/community-interaction/interaction-service/application"
	"inkwell/contexts/community-interaction/interaction-service/application/commands"
	"inkwell/contexts/community-interaction/interaction-service/application/queries"
	"inkwell/contexts/community-interaction/interaction-service/domain/entities"
	httptransport "inkwell/contexts/community-interaction/interaction-service/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	Likes        commands.LikeUseCase
	Comments     commands.CommentUseCase
	GetPostStats queries.GetPostStatsUseCase
	ListComments queries.ListCommentsUseCase
	LikeStatus   queries.LikeStatusUseCase
	ListLikes    queries.ListLikesUseCase
	Logger       *slog.Logger
}

func (h Handler) LikePostHandler(ctx context.Context, userID string, postID string) (httptransport.LikeResponse, error) {
	like, err := h.Likes.LikePost(ctx, commands.LikeCommand{UserID: userID, TargetID: postID})
	if err != nil {
		return httptransport.LikeResponse{}, err
	}
	return toLikeResponse(like), nil
}

func (h Handler) UnlikePostHandler(ctx context.Context, userID string, postID string) (httptransport.LikeResponse, error) {
	like, err := h.Likes.UnlikePost(ctx, commands.LikeCommand{UserID: userID, TargetID: postID})
	if err != nil {
		return httptransport.LikeResponse{}, err
	}
	return toLikeResponse(like), nil
}

func (h Handler) LikeCommentHandler(ctx context.Context, userID string, commentID string) (httptransport.LikeResponse, error) {
	like, err := h.Likes.LikeComment(ctx, commands.LikeCommand{UserID: userID, TargetID: commentID})
	if err != nil {
		return httptransport.LikeResponse{}, err
	}
	return toLikeResponse(like), nil
}

func (h Handler) UnlikeCommentHandler(ctx context.Context, userID string, commentID string) (httptransport.LikeResponse, error) {
	like, err := h.Likes.UnlikeComment(ctx, commands.LikeCommand{UserID: userID, TargetID: commentID})
	if err != nil {
		return httptransport.LikeResponse{}, err
	}
	return toLikeResponse(like), nil
}

func (h Handler) ListPostLikesHandler(ctx context.Context, postID string, limit int) (httptransport.ListLikesResponse, error) {
	likes, err := h.ListLikes.ByPost(ctx, postID, limit)
	if err != nil {
		return httptransport.ListLikesResponse{}, err
	}
	return toListLikesResponse(likes), nil
}

func (h Handler) ListUserLikesHandler(ctx context.Context, userID string, limit int) (httptransport.ListLikesResponse, error) {
	likes, err := h.ListLikes.ByUser(ctx, userID, limit)
	if err != nil {
		return httptransport.ListLikesResponse{}, err
	}
	return toListLikesResponse(likes), nil
}

func (h Handler) CheckLikeStatusHandler(ctx context.Context, userID string, postID string) (httptransport.LikeStatusResponse, error) {
	status, err := h.LikeStatus.Check(ctx, userID, postID)
	if err != nil {
		return httptransport.LikeStatusResponse{}, err
	}
	return toLikeStatusResponse(status), nil
}

func (h Handler) BulkCheckLikeStatusHandler(
	ctx context.Context,
	userID string,
	request httptransport.BulkLikeStatusRequest,
) (httptransport.BulkLikeStatusResponse, error) {
	statuses, err := h.LikeStatus.CheckMany(ctx, userID, request.PostIDs)
	if err != nil {
		return httptransport.BulkLikeStatusResponse{}, err
	}
	resp := httptransport.BulkLikeStatusResponse{Items: make([]httptransport.LikeStatusResponse, 0, len(statuses))}
	for _, status := range statuses {
		resp.Items = append(resp.Items, toLikeStatusResponse(status))
	}
	return resp, nil
}

func (h Handler) CreateCommentHandler(
	ctx context.Context,
	userID string,
	postID string,
	request httptransport.CreateCommentRequest,
) (httptransport.CommentResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http create comment received",
		"event", "interaction_http_comment_received",
		"module", application.Module,
		"layer", "transport",
		"user_id", userID,
		"post_id", postID,
		"is_reply", request.ParentCommentID != "",
	)
	comment, err := h.Comments.Create(ctx, commands.CreateCommentCommand{
		UserID:          userID,
		PostID:          postID,
		Content:         request.Content,
		ParentCommentID: request.ParentCommentID,
	})
	if err != nil {
		return httptransport.CommentResponse{}, err
	}
	return toCommentResponse(comment), nil
}

func (h Handler) UpdateCommentHandler(
	ctx context.Context,
	userID string,
	commentID string,
	request httptransport.UpdateCommentRequest,
) (httptransport.CommentResponse, error) {
	comment, err := h.Comments.Update(ctx, commands.UpdateCommentCommand{
		ActorID:   userID,
		CommentID: commentID,
		Content:   request.Content,
	})
	if err != nil {
		return httptransport.CommentResponse{}, err
	}
	return toCommentResponse(comment), nil
}

func (h Handler) DeleteCommentHandler(ctx context.Context, userID string, commentID string) (httptransport.DeleteCommentResponse, error) {
	deleted, err := h.Comments.Delete(ctx, commands.DeleteCommentCommand{ActorID: userID, CommentID: commentID})
	if err != nil {
		return httptransport.DeleteCommentResponse{}, err
	}
	resp := httptransport.DeleteCommentResponse{
		CommentID:  commentID,
		DeletedIDs: make([]string, 0, len(deleted)),
	}
	for _, comment := range deleted {
		resp.DeletedIDs = append(resp.DeletedIDs, comment.CommentID)
	}
	return resp, nil
}

func (h Handler) ListCommentsHandler(ctx context.Context, postID string, limit int) (httptransport.ListCommentsResponse, error) {
	comments, err := h.ListComments.Execute(ctx, postID, limit)
	if err != nil {
		return httptransport.ListCommentsResponse{}, err
	}
	resp := httptransport.ListCommentsResponse{
		PostID: postID,
		Items:  make([]httptransport.CommentResponse, 0, len(comments)),
	}
	for _, comment := range comments {
		resp.Items = append(resp.Items, toCommentResponse(comment))
	}
	return resp, nil
}

func (h Handler) GetPostStatsHandler(ctx context.Context, postID string) (httptransport.PostStatsResponse, error) {
	stats, err := h.GetPostStats.Execute(ctx, postID)
	if err != nil {
		return httptransport.PostStatsResponse{}, err
	}
	state := string(stats.State)
	if state == "" {
		state = "unknown"
	}
	return httptransport.PostStatsResponse{
		PostID:        stats.PostID,
		State:         state,
		LikesCount:    stats.LikesCount,
		CommentsCount: stats.CommentsCount,
	}, nil
}

func toLikeResponse(like entities.Like) httptransport.LikeResponse {
	return httptransport.LikeResponse{
		LikeID:     like.LikeID,
		UserID:     like.UserID,
		TargetType: string(like.TargetType),
		TargetID:   like.TargetID,
		PostID:     like.PostID,
		IsActive:   like.IsActive,
		CreatedAt:  like.CreatedAt,
		UpdatedAt:  like.UpdatedAt,
	}
}

func toListLikesResponse(likes []entities.Like) httptransport.ListLikesResponse {
	resp := httptransport.ListLikesResponse{Items: make([]httptransport.LikeResponse, 0, len(likes))}
	for _, like := range likes {
		resp.Items = append(resp.Items, toLikeResponse(like))
	}
	return resp
}

func toLikeStatusResponse(status entities.LikeStatus) httptransport.LikeStatusResponse {
	resp := httptransport.LikeStatusResponse{PostID: status.TargetID, Liked: status.Liked}
	if status.Liked {
		likedAt := status.LikedAt
		resp.LikedAt = &likedAt
	}
	return resp
}

func toCommentResponse(comment entities.Comment) httptransport.CommentResponse {
	return httptransport.CommentResponse{
		CommentID:       comment.CommentID,
		PostID:          comment.PostID,
		UserID:          comment.UserID,
		ParentCommentID: comment.ParentCommentID,
		Content:         comment.Content,
		IsActive:        comment.IsActive,
		IsEdited:        comment.IsEdited,
		LikeCount:       comment.LikeCount,
		ReplyCount:      comment.ReplyCount,
		CreatedAt:       comment.CreatedAt,
		UpdatedAt:       comment.UpdatedAt,
	}
}
