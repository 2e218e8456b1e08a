package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inkwell/internal/platform/db"
	"inkwell/internal/shared/events"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash;not null"`
	ExpiresAt   time.Time `gorm:"column:expires_at;not null"`
	ProcessedAt time.Time `gorm:"column:processed_at;not null"`
}

// Gorm keeps processed event ids in a per-service table next to the
// service's own rows. The primary key on event_id rejects a second record.
type Gorm struct {
	db    *gorm.DB
	table string
}

func NewGorm(conn *gorm.DB, table string) *Gorm {
	return &Gorm{db: conn, table: table}
}

func (g *Gorm) Migrate(ctx context.Context) error {
	if err := g.db.WithContext(ctx).Table(g.table).AutoMigrate(&eventDedupModel{}); err != nil {
		return fmt.Errorf("migrate %s: %w", g.table, err)
	}
	return nil
}

func (g *Gorm) Processed(ctx context.Context, eventID string, payloadHash string) (bool, error) {
	return g.processed(db.Session(ctx, g.db), eventID, payloadHash, time.Now().UTC())
}

func (g *Gorm) processed(tx *gorm.DB, eventID string, payloadHash string, now time.Time) (bool, error) {
	var existing eventDedupModel
	err := tx.Table(g.table).
		Select("payload_hash").
		Where("event_id = ? AND expires_at > ?", eventID, now).
		Take(&existing).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if existing.PayloadHash != payloadHash {
		return false, events.ErrIdempotencyKeyConflict
	}
	return true, nil
}

func (g *Gorm) MarkProcessed(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	return g.mark(db.Session(ctx, g.db), eventID, payloadHash, expiresAt, time.Now().UTC())
}

// mark inserts the row, replacing an expired one. On postgres a concurrent
// insert of the same id blocks until the other transaction ends.
func (g *Gorm) mark(tx *gorm.DB, eventID string, payloadHash string, expiresAt time.Time, now time.Time) (bool, error) {
	if err := tx.Table(g.table).
		Where("event_id = ? AND expires_at <= ?", eventID, now).
		Delete(&eventDedupModel{}).
		Error; err != nil {
		return false, err
	}
	result := tx.Table(g.table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&eventDedupModel{
			EventID:     eventID,
			PayloadHash: payloadHash,
			ExpiresAt:   expiresAt.UTC(),
			ProcessedAt: now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RunOnce inserts the processed row and runs fn in one transaction. fn
// receives a ctx bound to that transaction so repositories resolving their
// handle through db.Session commit together with the row.
func (g *Gorm) RunOnce(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
	fn func(ctx context.Context) error,
) (bool, error) {
	duplicate := false
	err := db.Session(ctx, g.db).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		recorded, err := g.mark(tx, eventID, payloadHash, expiresAt, now)
		if err != nil {
			return err
		}
		if !recorded {
			processed, err := g.processed(tx, eventID, payloadHash, now)
			if err != nil {
				return err
			}
			if !processed {
				return fmt.Errorf("event %s record vanished", eventID)
			}
			duplicate = true
			return nil
		}
		return fn(db.WithTx(ctx, tx))
	})
	if err != nil {
		return false, err
	}
	return duplicate, nil
}

// PurgeExpired removes records whose TTL has passed.
func (g *Gorm) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := g.db.WithContext(ctx).
		Table(g.table).
		Where("expires_at <= ?", now.UTC()).
		Delete(&eventDedupModel{})
	return result.RowsAffected, result.Error
}
