package postgresadapter

import (
	"time"

	"inkwell/contexts/community-interaction/interaction-service/domain/entities"
	"inkwell/internal/shared/lifecycle"
)

const (
	OutboxTable = "interaction_outbox"
	DedupTable  = "interaction_event_dedup"
)

type postRefModel struct {
	PostID    string    `gorm:"column:post_id;primaryKey"`
	AuthorID  string    `gorm:"column:author_id"`
	State     string    `gorm:"column:state;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (postRefModel) TableName() string { return "interaction_post_refs" }

func (m postRefModel) toEntity() entities.PostRef {
	return entities.PostRef{
		PostID:    m.PostID,
		AuthorID:  m.AuthorID,
		State:     lifecycle.State(m.State),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type likeModel struct {
	LikeID     string    `gorm:"column:like_id;primaryKey"`
	UserID     string    `gorm:"column:user_id;not null;uniqueIndex:likes_target_user_key,priority:3;index:idx_likes_user"`
	TargetType string    `gorm:"column:target_type;size:16;not null;uniqueIndex:likes_target_user_key,priority:1"`
	TargetID   string    `gorm:"column:target_id;not null;uniqueIndex:likes_target_user_key,priority:2"`
	PostID     string    `gorm:"column:post_id;not null;index:idx_likes_post"`
	OwnerID    string    `gorm:"column:owner_id"`
	IsActive   bool      `gorm:"column:is_active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (likeModel) TableName() string { return "likes" }

func (m likeModel) toEntity() entities.Like {
	return entities.Like{
		LikeID:     m.LikeID,
		UserID:     m.UserID,
		TargetType: entities.TargetType(m.TargetType),
		TargetID:   m.TargetID,
		PostID:     m.PostID,
		OwnerID:    m.OwnerID,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func likeModelFromEntity(like entities.Like) likeModel {
	return likeModel{
		LikeID:     like.LikeID,
		UserID:     like.UserID,
		TargetType: string(like.TargetType),
		TargetID:   like.TargetID,
		PostID:     like.PostID,
		OwnerID:    like.OwnerID,
		IsActive:   like.IsActive,
		CreatedAt:  like.CreatedAt.UTC(),
		UpdatedAt:  like.UpdatedAt.UTC(),
	}
}

type commentModel struct {
	CommentID       string    `gorm:"column:comment_id;primaryKey"`
	PostID          string    `gorm:"column:post_id;not null;index:idx_comments_post_created,priority:1"`
	UserID          string    `gorm:"column:user_id;not null"`
	ParentCommentID string    `gorm:"column:parent_comment_id;index:idx_comments_parent"`
	Content         string    `gorm:"column:content;not null"`
	IsActive        bool      `gorm:"column:is_active;not null"`
	IsEdited        bool      `gorm:"column:is_edited;not null;default:false"`
	LikeCount       int64     `gorm:"column:like_count;not null;default:0"`
	ReplyCount      int64     `gorm:"column:reply_count;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;index:idx_comments_post_created,priority:2"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null"`
}

func (commentModel) TableName() string { return "comments" }

func (m commentModel) toEntity() entities.Comment {
	return entities.Comment{
		CommentID:       m.CommentID,
		PostID:          m.PostID,
		UserID:          m.UserID,
		ParentCommentID: m.ParentCommentID,
		Content:         m.Content,
		IsActive:        m.IsActive,
		IsEdited:        m.IsEdited,
		LikeCount:       m.LikeCount,
		ReplyCount:      m.ReplyCount,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

func commentModelFromEntity(comment entities.Comment) commentModel {
	return commentModel{
		CommentID:       comment.CommentID,
		PostID:          comment.PostID,
		UserID:          comment.UserID,
		ParentCommentID: comment.ParentCommentID,
		Content:         comment.Content,
		IsActive:        comment.IsActive,
		IsEdited:        comment.IsEdited,
		LikeCount:       comment.LikeCount,
		ReplyCount:      comment.ReplyCount,
		CreatedAt:       comment.CreatedAt.UTC(),
		UpdatedAt:       comment.UpdatedAt.UTC(),
	}
}
