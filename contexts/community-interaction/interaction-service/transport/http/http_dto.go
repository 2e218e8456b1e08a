package httptransport

import "time"

type CreateCommentRequest struct {
	Content         string `json:"content"`
	ParentCommentID string `json:"parent_comment_id,omitempty"`
}

type UpdateCommentRequest struct {
	Content string `json:"content"`
}

type BulkLikeStatusRequest struct {
	PostIDs []string `json:"post_ids"`
}

type LikeResponse struct {
	LikeID     string    `json:"like_id"`
	UserID     string    `json:"user_id"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	PostID     string    `json:"post_id"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CommentResponse struct {
	CommentID       string    `json:"comment_id"`
	PostID          string    `json:"post_id"`
	UserID          string    `json:"user_id"`
	ParentCommentID string    `json:"parent_comment_id,omitempty"`
	Content         string    `json:"content"`
	IsActive        bool      `json:"is_active"`
	IsEdited        bool      `json:"is_edited"`
	LikeCount       int64     `json:"like_count"`
	ReplyCount      int64     `json:"reply_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ListLikesResponse struct {
	Items []LikeResponse `json:"items"`
}

type LikeStatusResponse struct {
	PostID  string     `json:"post_id"`
	Liked   bool       `json:"liked"`
	LikedAt *time.Time `json:"liked_at,omitempty"`
}

type BulkLikeStatusResponse struct {
	Items []LikeStatusResponse `json:"items"`
}

type ListCommentsResponse struct {
	PostID string            `json:"post_id"`
	Items  []CommentResponse `json:"items"`
}

type DeleteCommentResponse struct {
	CommentID  string   `json:"comment_id"`
	DeletedIDs []string `json:"deleted_ids"`
}

type PostStatsResponse struct {
	PostID        string `json:"post_id"`
	State         string `json:"state"`
	LikesCount    int64  `json:"likes_count"`
	CommentsCount int64  `json:"comments_count"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
