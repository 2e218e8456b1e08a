package postgresadapter

import (
	"time"

	"inkwell/contexts/content-publishing/post-service/domain/entities"
	"inkwell/internal/shared/lifecycle"

	"gorm.io/datatypes"
)

const (
	OutboxTable = "post_outbox"
	DedupTable  = "post_event_dedup"
)

type postModel struct {
	PostID        string                      `gorm:"column:post_id;primaryKey"`
	UserID        string                      `gorm:"column:user_id;not null;index:idx_posts_user_created,priority:1"`
	Title         string                      `gorm:"column:title;size:200;not null"`
	Content       string                      `gorm:"column:content;not null"`
	Tags          datatypes.JSONSlice[string] `gorm:"column:tags"`
	IsActive      bool                        `gorm:"column:is_active;not null"`
	LikesCount    int64                       `gorm:"column:likes_count;not null;default:0"`
	CommentsCount int64                       `gorm:"column:comments_count;not null;default:0"`
	Version       int64                       `gorm:"column:version;not null;default:1"`
	CreatedAt     time.Time                   `gorm:"column:created_at;not null;index:idx_posts_user_created,priority:2"`
	UpdatedAt     time.Time                   `gorm:"column:updated_at;not null"`
	DeletedAt     *time.Time                  `gorm:"column:deleted_at"`
}

func (postModel) TableName() string { return "posts" }

func (m postModel) toEntity() entities.Post {
	var deletedAt *time.Time
	if m.DeletedAt != nil {
		value := m.DeletedAt.UTC()
		deletedAt = &value
	}
	return entities.Post{
		PostID:        m.PostID,
		UserID:        m.UserID,
		Title:         m.Title,
		Content:       m.Content,
		Tags:          append([]string(nil), m.Tags...),
		IsActive:      m.IsActive,
		LikesCount:    m.LikesCount,
		CommentsCount: m.CommentsCount,
		Version:       m.Version,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
		DeletedAt:     deletedAt,
	}
}

func postModelFromEntity(post entities.Post) postModel {
	return postModel{
		PostID:    post.PostID,
		UserID:    post.UserID,
		Title:     post.Title,
		Content:   post.Content,
		Tags:      datatypes.NewJSONSlice(post.Tags),
		IsActive:  post.IsActive,
		Version:   post.Version,
		CreatedAt: post.CreatedAt.UTC(),
		UpdatedAt: post.UpdatedAt.UTC(),
		DeletedAt: post.DeletedAt,
	}
}

type authorRefModel struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	Username  string    `gorm:"column:username"`
	State     string    `gorm:"column:state;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (authorRefModel) TableName() string { return "post_author_refs" }

func (m authorRefModel) toEntity() entities.AuthorRef {
	return entities.AuthorRef{
		UserID:    m.UserID,
		Username:  m.Username,
		State:     lifecycle.State(m.State),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type likeRefModel struct {
	PostID    string    `gorm:"column:post_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;primaryKey"`
	LikeID    string    `gorm:"column:like_id"`
	Active    bool      `gorm:"column:active;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (likeRefModel) TableName() string { return "post_like_refs" }

type commentRefModel struct {
	CommentID string    `gorm:"column:comment_id;primaryKey"`
	PostID    string    `gorm:"column:post_id;not null;index:idx_post_comment_refs_post"`
	UserID    string    `gorm:"column:user_id"`
	State     string    `gorm:"column:state;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (commentRefModel) TableName() string { return "post_comment_refs" }

func (m commentRefModel) toEntity() entities.PostCommentRef {
	return entities.PostCommentRef{
		CommentID: m.CommentID,
		PostID:    m.PostID,
		UserID:    m.UserID,
		State:     lifecycle.State(m.State),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}
