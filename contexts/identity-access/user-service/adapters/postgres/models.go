package postgresadapter

import (
	"time"

	"inkwell/contexts/identity-access/user-service/domain/entities"
	"inkwell/internal/shared/lifecycle"
)

const (
	OutboxTable = "user_outbox"
	DedupTable  = "user_event_dedup"
)

type userModel struct {
	UserID         string    `gorm:"column:user_id;primaryKey"`
	Username       string    `gorm:"column:username;size:50;not null;uniqueIndex:users_username_key"`
	Email          string    `gorm:"column:email;not null;uniqueIndex:users_email_key"`
	PasswordHash   string    `gorm:"column:password_hash;not null"`
	FullName       string    `gorm:"column:full_name;size:100"`
	Bio            string    `gorm:"column:bio;size:500"`
	IsActive       bool      `gorm:"column:is_active;not null"`
	FollowersCount int64     `gorm:"column:followers_count;not null;default:0"`
	FollowingCount int64     `gorm:"column:following_count;not null;default:0"`
	PostsCount     int64     `gorm:"column:posts_count;not null;default:0"`
	LikesCount     int64     `gorm:"column:likes_count;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (userModel) TableName() string { return "users" }

func (m userModel) toEntity() entities.User {
	return entities.User{
		UserID:         m.UserID,
		Username:       m.Username,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		FullName:       m.FullName,
		Bio:            m.Bio,
		IsActive:       m.IsActive,
		FollowersCount: m.FollowersCount,
		FollowingCount: m.FollowingCount,
		PostsCount:     m.PostsCount,
		LikesCount:     m.LikesCount,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

func userModelFromEntity(user entities.User) userModel {
	return userModel{
		UserID:       user.UserID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		FullName:     user.FullName,
		Bio:          user.Bio,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}
}

type followModel struct {
	FollowerID  string    `gorm:"column:follower_id;primaryKey"`
	FollowingID string    `gorm:"column:following_id;primaryKey;index:idx_user_follows_following"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (followModel) TableName() string { return "user_follows" }

func (m followModel) toEntity() entities.Follow {
	return entities.Follow{
		FollowerID:  m.FollowerID,
		FollowingID: m.FollowingID,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

type authoredPostModel struct {
	PostID    string    `gorm:"column:post_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;index:idx_user_authored_posts_user"`
	State     string    `gorm:"column:state;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (authoredPostModel) TableName() string { return "user_authored_posts" }

func (m authoredPostModel) toEntity() entities.AuthoredPost {
	return entities.AuthoredPost{
		PostID:    m.PostID,
		UserID:    m.UserID,
		State:     lifecycle.State(m.State),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}
