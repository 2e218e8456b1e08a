package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"inkwell/contexts/identity-access/user-service/domain/entities"
	domainerrors "inkwell/contexts/identity-access/user-service/domain/errors"
	"inkwell/contexts/identity-access/user-service/ports"
	"inkwell/internal/platform/db"
	"inkwell/internal/shared/lifecycle"
	"inkwell/internal/shared/outbox"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements the user-service ports on gorm. It runs against
// postgres in production and sqlite in tests.
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
	if err := db.Session(ctx, r.db).AutoMigrate(&userModel{}, &followModel{}, &authoredPostModel{}); err != nil {
		return err
	}
	return r.outbox.Migrate(ctx)
}

// Outbox exposes the outbox table to the forwarder.
func (r *Repository) Outbox() *db.OutboxTable {
	return r.outbox
}

func (r *Repository) CreateUser(ctx context.Context, user entities.User, message outbox.Message) error {
	return db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&userModel{}).Where("username = ?", user.Username).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return domainerrors.ErrUsernameTaken
		}
		if err := tx.Model(&userModel{}).Where("email = ?", user.Email).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return domainerrors.ErrEmailTaken
		}

		row := userModelFromEntity(user)
		if err := tx.Create(&row).Error; err != nil {
			if db.IsUniqueViolation(err) {
				r.logger.Warn("user insert hit unique constraint",
					"event", "user_repository_unique_violation",
					"module", "identity-access/user-service",
					"layer", "adapter",
					"user_id", user.UserID,
					"constraint", db.ConstraintName(err),
				)
				switch db.ConstraintName(err) {
				case "users_username_key":
					return domainerrors.ErrUsernameTaken
				case "users_email_key":
					return domainerrors.ErrEmailTaken
				}
				return domainerrors.ErrRepositoryConflict
			}
			return err
		}
		return r.outbox.Append(tx, message)
	})
}

func (r *Repository) GetUser(ctx context.Context, userID string) (entities.User, error) {
	var row userModel
	err := db.Session(ctx, r.db).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (entities.User, error) {
	var row userModel
	err := db.Session(ctx, r.db).Where("username = ?", username).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateUser(
	ctx context.Context,
	userID string,
	mutate ports.UserMutation,
	build ports.UserMessageBuilder,
) (entities.User, bool, error) {
	var (
		user    entities.User
		changed bool
	)
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var row userModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrUserNotFound
			}
			return err
		}
		user = row.toEntity()
		changed, err = mutate(&user)
		if err != nil || !changed {
			return err
		}
		if err := tx.Model(&userModel{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{
				"full_name":  user.FullName,
				"bio":        user.Bio,
				"is_active":  user.IsActive,
				"updated_at": user.UpdatedAt.UTC(),
			}).Error; err != nil {
			return err
		}
		message, err := build(user)
		if err != nil {
			return err
		}
		return r.outbox.Append(tx, message)
	})
	if err != nil {
		return entities.User{}, false, err
	}
	return user, changed, nil
}

func (r *Repository) AddFollow(ctx context.Context, follow entities.Follow) (entities.FollowCounts, error) {
	var counts entities.FollowCounts
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := lockUsers(tx, follow.FollowerID, follow.FollowingID); err != nil {
			return err
		}
		row := followModel{
			FollowerID:  follow.FollowerID,
			FollowingID: follow.FollowingID,
			CreatedAt:   follow.CreatedAt.UTC(),
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrAlreadyFollowing
		}
		var err error
		counts, err = recomputeFollowCounts(tx, follow.FollowerID, follow.FollowingID)
		return err
	})
	return counts, err
}

func (r *Repository) RemoveFollow(ctx context.Context, followerID string, followingID string) (entities.FollowCounts, error) {
	var counts entities.FollowCounts
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := lockUsers(tx, followerID, followingID); err != nil {
			return err
		}
		result := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&followModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNotFollowing
		}
		var err error
		counts, err = recomputeFollowCounts(tx, followerID, followingID)
		return err
	})
	return counts, err
}

// lockUsers serializes graph mutations touching the same users. Rows are
// locked in id order.
func lockUsers(tx *gorm.DB, userIDs ...string) error {
	sort.Strings(userIDs)
	var rows []userModel
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("user_id").
		Where("user_id IN ?", userIDs).
		Order("user_id").
		Find(&rows).
		Error
}

// recomputeFollowCounts derives both counters from the edge table so that
// the stored values always equal the graph.
func recomputeFollowCounts(tx *gorm.DB, followerID string, followingID string) (entities.FollowCounts, error) {
	var counts entities.FollowCounts
	if err := tx.Model(&followModel{}).Where("follower_id = ?", followerID).Count(&counts.FollowerFollowingCount).Error; err != nil {
		return counts, err
	}
	if err := tx.Model(&followModel{}).Where("following_id = ?", followingID).Count(&counts.FollowingFollowersCount).Error; err != nil {
		return counts, err
	}
	if err := tx.Model(&userModel{}).
		Where("user_id = ?", followerID).
		Update("following_count", counts.FollowerFollowingCount).
		Error; err != nil {
		return counts, err
	}
	err := tx.Model(&userModel{}).
		Where("user_id = ?", followingID).
		Update("followers_count", counts.FollowingFollowersCount).
		Error
	return counts, err
}

func (r *Repository) IsFollowing(ctx context.Context, followerID string, followingID string) (bool, error) {
	var count int64
	if err := db.Session(ctx, r.db).
		Model(&followModel{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).
		Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListFollowers(ctx context.Context, userID string, limit int) ([]entities.Follow, error) {
	return r.listFollows(ctx, "following_id = ?", userID, limit)
}

func (r *Repository) ListFollowing(ctx context.Context, userID string, limit int) ([]entities.Follow, error) {
	return r.listFollows(ctx, "follower_id = ?", userID, limit)
}

func (r *Repository) listFollows(ctx context.Context, where string, userID string, limit int) ([]entities.Follow, error) {
	var rows []followModel
	if err := db.Session(ctx, r.db).
		Where(where, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Follow, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetAuthoredPost(ctx context.Context, postID string) (entities.AuthoredPost, bool, error) {
	var row authoredPostModel
	err := db.Session(ctx, r.db).Where("post_id = ?", postID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AuthoredPost{}, false, nil
		}
		return entities.AuthoredPost{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) SaveAuthoredPost(ctx context.Context, post entities.AuthoredPost) (int64, error) {
	var postsCount int64
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := lockUsers(tx, post.UserID); err != nil {
			return err
		}
		row := authoredPostModel{
			PostID:    post.PostID,
			UserID:    post.UserID,
			State:     string(post.State),
			UpdatedAt: post.UpdatedAt.UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "state", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Model(&authoredPostModel{}).
			Where("user_id = ? AND state = ?", post.UserID, string(lifecycle.Active)).
			Count(&postsCount).
			Error; err != nil {
			return err
		}
		return tx.Model(&userModel{}).
			Where("user_id = ?", post.UserID).
			Update("posts_count", postsCount).
			Error
	})
	return postsCount, err
}

// AdjustLikesCount applies a saturating delta in one statement.
func (r *Repository) AdjustLikesCount(ctx context.Context, userID string, delta int64) (int64, bool, error) {
	var likesCount int64
	found := false
	err := db.Session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&userModel{}).
			Where("user_id = ?", userID).
			Update("likes_count", gorm.Expr("CASE WHEN likes_count + ? < 0 THEN 0 ELSE likes_count + ? END", delta, delta))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		found = true
		return tx.Model(&userModel{}).
			Where("user_id = ?", userID).
			Select("likes_count").
			Scan(&likesCount).
			Error
	})
	return likesCount, found, err
}
