package postgresadapter

import (
	"context"
	"errors"
	"log/slog"

	"inkwell/contexts/content-publishing/post-service/domain/entities"
	domainerrors "inkwell/contexts/content-publishing/post-service/domain/errors"
	"inkwell/contexts/content-publishing/post-service/ports"
	"inkwell/internal/platform/db"
	"inkwell/internal/shared/lifecycle"
	"inkwell/internal/shared/outbox"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements the post-service ports on gorm.
type Repository struct {
	db     *gorm.DB
	outbox *db.OutboxTable
	logger *slog.Logger
}

func NewRepository(conn *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     conn,
		outbox: db.NewOutboxTable(conn, OutboxTable),
		logger: logger,
	}
}

func (r *Repository) Migrate(ctx context.Context) error {
	if err := db.Session(ctx, r.db).AutoMigrate(
		&postModel{},
		&authorRefModel{},
		&likeRefModel{},
		&commentRefModel{},
	); err != nil {
		return err
	}
	return r.outbox.Migrate(ctx)
}

func (r *Repository) Outbox() *db.OutboxTable {
	return r.outbox
}

func (r *Repository) CreatePost(ctx context.Context, post entities.Post, message outbox.Message) error {
	return db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var author authorRefModel
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("user_id = ?", post.UserID).
			Limit(1).
			Find(&author).
			Error
		if err != nil {
			return err
		}
		if lifecycle.State(author.State).IsTombstoned() {
			return domainerrors.ErrAuthorInactive
		}

		row := postModelFromEntity(post)
		if err := tx.Create(&row).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return domainerrors.ErrRepositoryConflict
			}
			return err
		}
		return r.outbox.Append(tx, message)
	})
}

func (r *Repository) GetPost(ctx context.Context, postID string) (entities.Post, error) {
	var row postModel
	err := db.Session(ctx, r.db).Where("post_id = ?", postID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Post{}, domainerrors.ErrPostNotFound
		}
		return entities.Post{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdatePost(
	ctx context.Context,
	postID string,
	mutate ports.PostMutation,
	build ports.PostMessageBuilder,
) (entities.Post, bool, error) {
	var (
		post    entities.Post
		changed bool
	)
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var row postModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("post_id = ?", postID).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrPostNotFound
			}
			return err
		}
		post = row.toEntity()
		changed, err = mutate(&post)
		if err != nil || !changed {
			return err
		}
		if err := updatePost(tx, post); err != nil {
			return err
		}
		message, err := build(post)
		if err != nil {
			return err
		}
		return r.outbox.Append(tx, message)
	})
	if err != nil {
		return entities.Post{}, false, err
	}
	return post, changed, nil
}

func updatePost(tx *gorm.DB, post entities.Post) error {
	result := tx.Model(&postModel{}).
		Where("post_id = ?", post.PostID).
		Updates(map[string]any{
			"title":      post.Title,
			"content":    post.Content,
			"tags":       datatypes.NewJSONSlice(post.Tags),
			"is_active":  post.IsActive,
			"version":    post.Version,
			"updated_at": post.UpdatedAt.UTC(),
			"deleted_at": post.DeletedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPostNotFound
	}
	return nil
}

func (r *Repository) ListPostsByAuthor(ctx context.Context, userID string, includeInactive bool, limit int) ([]entities.Post, error) {
	tx := db.Session(ctx, r.db).
		Where("user_id = ? AND deleted_at IS NULL", userID)
	if !includeInactive {
		tx = tx.Where("is_active = ?", true)
	}
	var rows []postModel
	if err := tx.Order("created_at DESC").Order("post_id").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Post, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetAuthor(ctx context.Context, userID string) (entities.AuthorRef, bool, error) {
	var row authorRefModel
	err := db.Session(ctx, r.db).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AuthorRef{}, false, nil
		}
		return entities.AuthorRef{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) SaveAuthor(ctx context.Context, author entities.AuthorRef) error {
	return saveAuthor(db.Session(ctx, r.db), author)
}

// saveAuthor upserts the projection. A stored tombstone is never
// overwritten by a non-tombstoned state.
func saveAuthor(tx *gorm.DB, author entities.AuthorRef) error {
	row := authorRefModel{
		UserID:    author.UserID,
		Username:  author.Username,
		State:     string(author.State),
		UpdatedAt: author.UpdatedAt.UTC(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"username":   row.Username,
			"updated_at": row.UpdatedAt,
			"state": gorm.Expr("CASE WHEN post_author_refs.state = ? THEN post_author_refs.state ELSE ? END",
				string(lifecycle.Tombstoned), row.State),
		}),
	}).Create(&row).Error
}

func (r *Repository) DeactivateAuthor(
	ctx context.Context,
	author entities.AuthorRef,
	build ports.PostMessageBuilder,
) ([]entities.Post, error) {
	var deactivated []entities.Post
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := saveAuthor(tx, author); err != nil {
			return err
		}

		var rows []postModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND is_active = ?", author.UserID, true).
			Order("created_at").
			Find(&rows).
			Error; err != nil {
			return err
		}

		messages := make([]outbox.Message, 0, len(rows))
		for _, row := range rows {
			post := row.toEntity()
			if !post.Deactivate(author.UpdatedAt) {
				continue
			}
			if err := updatePost(tx, post); err != nil {
				return err
			}
			message, err := build(post)
			if err != nil {
				return err
			}
			messages = append(messages, message)
			deactivated = append(deactivated, post)
		}
		return r.outbox.Append(tx, messages...)
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("author posts deactivated",
		"event", "post_repository_author_deactivated",
		"module", "content-publishing/post-service",
		"layer", "adapter",
		"user_id", author.UserID,
		"post_count", len(deactivated),
	)
	return deactivated, nil
}

// SaveLikeRef upserts the (post, user) ref and recomputes likes_count.
func (r *Repository) SaveLikeRef(ctx context.Context, like entities.PostLikeRef) (int64, error) {
	var likesCount int64
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, like.PostID); err != nil {
			return err
		}
		row := likeRefModel{
			PostID:    like.PostID,
			UserID:    like.UserID,
			LikeID:    like.LikeID,
			Active:    like.Active,
			UpdatedAt: like.UpdatedAt.UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"like_id", "active", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Model(&likeRefModel{}).
			Where("post_id = ? AND active = ?", like.PostID, true).
			Count(&likesCount).
			Error; err != nil {
			return err
		}
		return tx.Model(&postModel{}).
			Where("post_id = ?", like.PostID).
			UpdateColumn("likes_count", likesCount).
			Error
	})
	return likesCount, err
}

func (r *Repository) GetCommentRef(ctx context.Context, commentID string) (entities.PostCommentRef, bool, error) {
	var row commentRefModel
	err := db.Session(ctx, r.db).Where("comment_id = ?", commentID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PostCommentRef{}, false, nil
		}
		return entities.PostCommentRef{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) SaveCommentRef(ctx context.Context, comment entities.PostCommentRef) (int64, error) {
	var commentsCount int64
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, comment.PostID); err != nil {
			return err
		}
		row := commentRefModel{
			CommentID: comment.CommentID,
			PostID:    comment.PostID,
			UserID:    comment.UserID,
			State:     string(comment.State),
			UpdatedAt: comment.UpdatedAt.UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "comment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Model(&commentRefModel{}).
			Where("post_id = ? AND state = ?", comment.PostID, string(lifecycle.Active)).
			Count(&commentsCount).
			Error; err != nil {
			return err
		}
		return tx.Model(&postModel{}).
			Where("post_id = ?", comment.PostID).
			UpdateColumn("comments_count", commentsCount).
			Error
	})
	return commentsCount, err
}

// lockPost serializes counter recomputation per post.
func lockPost(tx *gorm.DB, postID string) error {
	var rows []postModel
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("post_id").
		Where("post_id = ?", postID).
		Find(&rows).
		Error
}
