package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"inkwell/contexts/community-interaction/interaction-service/domain/entities"
	domainerrors "inkwell/contexts/community-interaction/interaction-service/domain/errors"
	"inkwell/contexts/community-interaction/interaction-service/ports"
	"inkwell/internal/platform/db"
	"inkwell/internal/shared/lifecycle"
	"inkwell/internal/shared/outbox"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements the interaction-service ports on gorm.
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
		&postRefModel{},
		&likeModel{},
		&commentModel{},
	); err != nil {
		return err
	}
	return r.outbox.Migrate(ctx)
}

func (r *Repository) Outbox() *db.OutboxTable {
	return r.outbox
}

func (r *Repository) GetPostRef(ctx context.Context, postID string) (entities.PostRef, bool, error) {
	var row postRefModel
	err := db.Session(ctx, r.db).Where("post_id = ?", postID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PostRef{}, false, nil
		}
		return entities.PostRef{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) SavePostRef(ctx context.Context, ref entities.PostRef) error {
	return savePostRef(db.Session(ctx, r.db), ref)
}

// savePostRef upserts the projection. A stored tombstone is never
// overwritten by a non-tombstoned state, and a known author is never
// cleared.
func savePostRef(tx *gorm.DB, ref entities.PostRef) error {
	row := postRefModel{
		PostID:    ref.PostID,
		AuthorID:  ref.AuthorID,
		State:     string(ref.State),
		UpdatedAt: ref.UpdatedAt.UTC(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "post_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"author_id":  gorm.Expr("COALESCE(NULLIF(?, ''), interaction_post_refs.author_id)", row.AuthorID),
			"updated_at": row.UpdatedAt,
			"state": gorm.Expr("CASE WHEN interaction_post_refs.state = ? THEN interaction_post_refs.state ELSE ? END",
				string(lifecycle.Tombstoned), row.State),
		}),
	}).Create(&row).Error
}

func (r *Repository) TombstonePost(ctx context.Context, ref entities.PostRef) (entities.CascadeResult, error) {
	var result entities.CascadeResult
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := savePostRef(tx, ref); err != nil {
			return err
		}
		at := ref.UpdatedAt.UTC()

		comments := tx.Model(&commentModel{}).
			Where("post_id = ? AND is_active = ?", ref.PostID, true).
			Updates(map[string]any{"is_active": false, "updated_at": at})
		if comments.Error != nil {
			return comments.Error
		}
		result.Comments = comments.RowsAffected

		for _, target := range []entities.TargetType{entities.TargetPost, entities.TargetComment} {
			likes := tx.Model(&likeModel{}).
				Where("post_id = ? AND target_type = ? AND is_active = ?", ref.PostID, string(target), true).
				Updates(map[string]any{"is_active": false, "updated_at": at})
			if likes.Error != nil {
				return likes.Error
			}
			if target == entities.TargetPost {
				result.PostLikes = likes.RowsAffected
			} else {
				result.CommentLikes = likes.RowsAffected
			}
		}
		return nil
	})
	if err != nil {
		return entities.CascadeResult{}, err
	}
	return result, nil
}

func (r *Repository) AddLike(ctx context.Context, like entities.Like, build ports.LikeMessageBuilder) (entities.Like, error) {
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := requireWritablePost(tx, like.PostID); err != nil {
			return err
		}
		if like.TargetType == entities.TargetComment {
			comment, err := lockComment(tx, like.TargetID)
			if err != nil {
				return err
			}
			if !comment.IsActive {
				return domainerrors.ErrCommentNotFound
			}
		}

		var existing []likeModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("target_type = ? AND target_id = ? AND user_id = ?", string(like.TargetType), like.TargetID, like.UserID).
			Limit(1).
			Find(&existing).
			Error; err != nil {
			return err
		}
		row := likeModelFromEntity(like)
		switch {
		case len(existing) > 0 && existing[0].IsActive:
			return domainerrors.ErrAlreadyLiked
		case len(existing) > 0:
			if err := tx.Model(&likeModel{}).
				Where("like_id = ?", existing[0].LikeID).
				Updates(map[string]any{
					"like_id":    row.LikeID,
					"post_id":    row.PostID,
					"owner_id":   row.OwnerID,
					"is_active":  true,
					"created_at": row.CreatedAt,
					"updated_at": row.UpdatedAt,
				}).Error; err != nil {
				return err
			}
		default:
			if err := tx.Create(&row).Error; err != nil {
				if db.IsUniqueViolation(err) {
					return domainerrors.ErrAlreadyLiked
				}
				return err
			}
		}

		if err := recountCommentLikes(tx, like); err != nil {
			return err
		}
		message, err := build(like)
		if err != nil {
			return err
		}
		return r.outbox.Append(tx, message)
	})
	if err != nil {
		return entities.Like{}, err
	}
	return like, nil
}

func (r *Repository) RemoveLike(
	ctx context.Context,
	targetType entities.TargetType,
	targetID string,
	userID string,
	at time.Time,
	build ports.LikeMessageBuilder,
) (entities.Like, error) {
	var removed entities.Like
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if targetType == entities.TargetComment {
			if _, err := lockComment(tx, targetID); err != nil && !errors.Is(err, domainerrors.ErrCommentNotFound) {
				return err
			}
		}
		var rows []likeModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("target_type = ? AND target_id = ? AND user_id = ? AND is_active = ?", string(targetType), targetID, userID, true).
			Limit(1).
			Find(&rows).
			Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return domainerrors.ErrLikeNotFound
		}

		removed = rows[0].toEntity()
		removed.IsActive = false
		removed.UpdatedAt = at.UTC()
		if err := tx.Model(&likeModel{}).
			Where("like_id = ?", removed.LikeID).
			Updates(map[string]any{"is_active": false, "updated_at": removed.UpdatedAt}).
			Error; err != nil {
			return err
		}
		if err := recountCommentLikes(tx, removed); err != nil {
			return err
		}
		message, err := build(removed)
		if err != nil {
			return err
		}
		return r.outbox.Append(tx, message)
	})
	if err != nil {
		return entities.Like{}, err
	}
	return removed, nil
}

func (r *Repository) FindLikes(
	ctx context.Context,
	targetType entities.TargetType,
	userID string,
	targetIDs []string,
) ([]entities.Like, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}
	var rows []likeModel
	if err := db.Session(ctx, r.db).
		Where("target_type = ? AND user_id = ? AND target_id IN ? AND is_active = ?", string(targetType), userID, targetIDs, true).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return likesFromRows(rows), nil
}

func (r *Repository) ListLikesByTarget(ctx context.Context, targetType entities.TargetType, targetID string, limit int) ([]entities.Like, error) {
	var rows []likeModel
	if err := db.Session(ctx, r.db).
		Where("target_type = ? AND target_id = ? AND is_active = ?", string(targetType), targetID, true).
		Order("created_at DESC").
		Order("like_id").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return likesFromRows(rows), nil
}

func (r *Repository) ListLikesByUser(ctx context.Context, userID string, limit int) ([]entities.Like, error) {
	var rows []likeModel
	if err := db.Session(ctx, r.db).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Order("like_id").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return likesFromRows(rows), nil
}

func likesFromRows(rows []likeModel) []entities.Like {
	items := make([]entities.Like, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func (r *Repository) CreateComment(ctx context.Context, comment entities.Comment, message outbox.Message) error {
	return db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := requireWritablePost(tx, comment.PostID); err != nil {
			return err
		}
		if comment.ParentCommentID != "" {
			parent, err := lockComment(tx, comment.ParentCommentID)
			if err != nil {
				if errors.Is(err, domainerrors.ErrCommentNotFound) {
					return domainerrors.ErrInvalidParent
				}
				return err
			}
			if !parent.IsActive || parent.PostID != comment.PostID {
				return domainerrors.ErrInvalidParent
			}
		}

		row := commentModelFromEntity(comment)
		if err := tx.Create(&row).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return domainerrors.ErrRepositoryConflict
			}
			return err
		}
		if err := recountReplies(tx, comment.ParentCommentID); err != nil {
			return err
		}
		return r.outbox.Append(tx, message)
	})
}

func (r *Repository) GetComment(ctx context.Context, commentID string) (entities.Comment, error) {
	var row commentModel
	err := db.Session(ctx, r.db).Where("comment_id = ?", commentID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Comment{}, domainerrors.ErrCommentNotFound
		}
		return entities.Comment{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateComment(ctx context.Context, commentID string, mutate ports.CommentMutation) (entities.Comment, error) {
	var updated entities.Comment
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		comment, err := lockComment(tx, commentID)
		if err != nil {
			return err
		}
		if err := mutate(&comment); err != nil {
			return err
		}
		if err := tx.Model(&commentModel{}).
			Where("comment_id = ?", commentID).
			Updates(map[string]any{
				"content":    comment.Content,
				"is_edited":  comment.IsEdited,
				"updated_at": comment.UpdatedAt.UTC(),
			}).Error; err != nil {
			return err
		}
		updated = comment
		return nil
	})
	if err != nil {
		return entities.Comment{}, err
	}
	return updated, nil
}

func (r *Repository) DeleteComment(
	ctx context.Context,
	commentID string,
	at time.Time,
	build ports.CommentMessageBuilder,
) ([]entities.Comment, error) {
	var deleted []entities.Comment
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var head commentModel
		if err := tx.Where("comment_id = ?", commentID).First(&head).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCommentNotFound
			}
			return err
		}
		// Parent before child, the same order CreateComment locks in.
		if head.ParentCommentID != "" {
			if _, err := lockComment(tx, head.ParentCommentID); err != nil && !errors.Is(err, domainerrors.ErrCommentNotFound) {
				return err
			}
		}
		root, err := lockComment(tx, commentID)
		if err != nil {
			return err
		}
		if !root.IsActive {
			return domainerrors.ErrCommentNotFound
		}

		deleted = []entities.Comment{root}
		frontier := []string{root.CommentID}
		for len(frontier) > 0 {
			var replies []commentModel
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("parent_comment_id IN ? AND is_active = ?", frontier, true).
				Order("created_at").
				Order("comment_id").
				Find(&replies).
				Error; err != nil {
				return err
			}
			frontier = frontier[:0]
			for _, reply := range replies {
				deleted = append(deleted, reply.toEntity())
				frontier = append(frontier, reply.CommentID)
			}
		}

		ids := make([]string, 0, len(deleted))
		messages := make([]outbox.Message, 0, len(deleted))
		for i := range deleted {
			deleted[i].IsActive = false
			deleted[i].UpdatedAt = at.UTC()
			message, err := build(deleted[i])
			if err != nil {
				return err
			}
			ids = append(ids, deleted[i].CommentID)
			messages = append(messages, message)
		}

		if err := tx.Model(&commentModel{}).
			Where("comment_id IN ?", ids).
			Updates(map[string]any{"is_active": false, "updated_at": at.UTC()}).
			Error; err != nil {
			return err
		}
		if err := tx.Model(&likeModel{}).
			Where("target_type = ? AND target_id IN ? AND is_active = ?", string(entities.TargetComment), ids, true).
			Updates(map[string]any{"is_active": false, "updated_at": at.UTC()}).
			Error; err != nil {
			return err
		}
		if err := recountReplies(tx, root.ParentCommentID); err != nil {
			return err
		}
		return r.outbox.Append(tx, messages...)
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("comment thread deleted",
		"event", "interaction_repository_comments_deleted",
		"module", "community-interaction/interaction-service",
		"layer", "adapter",
		"comment_id", commentID,
		"comment_count", len(deleted),
	)
	return deleted, nil
}

func (r *Repository) ListComments(ctx context.Context, postID string, limit int) ([]entities.Comment, error) {
	var rows []commentModel
	if err := db.Session(ctx, r.db).
		Where("post_id = ? AND is_active = ?", postID, true).
		Order("created_at").
		Order("comment_id").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Comment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetPostStats(ctx context.Context, postID string) (entities.PostStats, error) {
	stats := entities.PostStats{PostID: postID}
	ref, _, err := r.GetPostRef(ctx, postID)
	if err != nil {
		return entities.PostStats{}, err
	}
	stats.State = ref.State

	conn := db.Session(ctx, r.db)
	if err := conn.Model(&likeModel{}).
		Where("target_type = ? AND target_id = ? AND is_active = ?", string(entities.TargetPost), postID, true).
		Count(&stats.LikesCount).
		Error; err != nil {
		return entities.PostStats{}, err
	}
	if err := conn.Model(&commentModel{}).
		Where("post_id = ? AND is_active = ?", postID, true).
		Count(&stats.CommentsCount).
		Error; err != nil {
		return entities.PostStats{}, err
	}
	return stats, nil
}

// requireWritablePost holds a share lock on the post ref so a concurrent
// tombstone cascade waits for the write to commit. A post not yet observed
// gets an Unknown placeholder row first, so there is always a row to lock.
func requireWritablePost(tx *gorm.DB, postID string) error {
	placeholder := postRefModel{
		PostID:    postID,
		State:     string(lifecycle.Unknown),
		UpdatedAt: time.Now().UTC(),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
		return err
	}
	var row postRefModel
	if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
		Where("post_id = ?", postID).
		First(&row).
		Error; err != nil {
		return err
	}
	if lifecycle.State(row.State).IsTombstoned() {
		return domainerrors.ErrPostUnavailable
	}
	return nil
}

func lockComment(tx *gorm.DB, commentID string) (entities.Comment, error) {
	var rows []commentModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("comment_id = ?", commentID).
		Limit(1).
		Find(&rows).
		Error; err != nil {
		return entities.Comment{}, err
	}
	if len(rows) == 0 {
		return entities.Comment{}, domainerrors.ErrCommentNotFound
	}
	return rows[0].toEntity(), nil
}

func recountCommentLikes(tx *gorm.DB, like entities.Like) error {
	if like.TargetType != entities.TargetComment {
		return nil
	}
	var total int64
	if err := tx.Model(&likeModel{}).
		Where("target_type = ? AND target_id = ? AND is_active = ?", string(entities.TargetComment), like.TargetID, true).
		Count(&total).
		Error; err != nil {
		return err
	}
	return tx.Model(&commentModel{}).
		Where("comment_id = ?", like.TargetID).
		UpdateColumn("like_count", total).
		Error
}

func recountReplies(tx *gorm.DB, parentID string) error {
	if parentID == "" {
		return nil
	}
	var total int64
	if err := tx.Model(&commentModel{}).
		Where("parent_comment_id = ? AND is_active = ?", parentID, true).
		Count(&total).
		Error; err != nil {
		return err
	}
	return tx.Model(&commentModel{}).
		Where("comment_id = ?", parentID).
		UpdateColumn("reply_count", total).
		Error
}
