package db

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/shared/outbox"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	Topic        string     `gorm:"column:topic;not null"`
	PartitionKey string     `gorm:"column:partition_key;not null"`
	EventType    string     `gorm:"column:event_type;not null"`
	Payload      []byte     `gorm:"column:payload;not null"`
	Status       string     `gorm:"column:status;not null"`
	Attempts     int        `gorm:"column:attempts;not null;default:0"`
	LastError    string     `gorm:"column:last_error"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (m outboxModel) toMessage() outbox.Message {
	return outbox.Message{
		ID:           m.OutboxID,
		Topic:        m.Topic,
		PartitionKey: m.PartitionKey,
		EventType:    m.EventType,
		Payload:      append([]byte(nil), m.Payload...),
		Status:       outbox.Status(m.Status),
		Attempts:     m.Attempts,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt.UTC(),
		SentAt:       m.SentAt,
	}
}

// OutboxTable is one service's outbox. Append runs on the caller's
// transaction; the other methods implement outbox.Store for the relay.
type OutboxTable struct {
	db   *gorm.DB
	name string
}

func NewOutboxTable(db *gorm.DB, name string) *OutboxTable {
	return &OutboxTable{db: db, name: name}
}

func (t *OutboxTable) Name() string {
	return t.name
}

func (t *OutboxTable) Migrate(ctx context.Context) error {
	tx := t.db.WithContext(ctx)
	if err := tx.Table(t.name).AutoMigrate(&outboxModel{}); err != nil {
		return fmt.Errorf("migrate %s: %w", t.name, err)
	}
	statement := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_pending ON %s (status, created_at)",
		t.name, t.name,
	)
	return tx.Exec(statement).Error
}

// Append inserts rows inside tx. Re-appending a stored id is a no-op.
func (t *OutboxTable) Append(tx *gorm.DB, messages ...outbox.Message) error {
	if len(messages) == 0 {
		return nil
	}
	rows := make([]outboxModel, 0, len(messages))
	for _, message := range messages {
		status := message.Status
		if status == "" {
			status = outbox.StatusPending
		}
		rows = append(rows, outboxModel{
			OutboxID:     message.ID,
			Topic:        message.Topic,
			PartitionKey: message.PartitionKey,
			EventType:    message.EventType,
			Payload:      message.Payload,
			Status:       string(status),
			CreatedAt:    message.CreatedAt.UTC(),
		})
	}
	return tx.Table(t.name).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&rows).
		Error
}

func (t *OutboxTable) ListPending(ctx context.Context, limit int) ([]outbox.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := t.db.WithContext(ctx).
		Table(t.name).
		Where("status = ?", string(outbox.StatusPending)).
		Order("created_at ASC").
		Order("outbox_id ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toMessage())
	}
	return items, nil
}

func (t *OutboxTable) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	return t.update(ctx, id, map[string]any{
		"status":  string(outbox.StatusSent),
		"sent_at": sentAt.UTC(),
	})
}

func (t *OutboxTable) MarkFailed(ctx context.Context, id string, reason string) error {
	return t.update(ctx, id, map[string]any{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": reason,
	})
}

func (t *OutboxTable) MarkDead(ctx context.Context, id string, reason string) error {
	return t.update(ctx, id, map[string]any{
		"status":     string(outbox.StatusDead),
		"last_error": reason,
	})
}

func (t *OutboxTable) PurgeSent(ctx context.Context, sentBefore time.Time) (int64, error) {
	result := t.db.WithContext(ctx).
		Table(t.name).
		Where("status = ? AND sent_at < ?", string(outbox.StatusSent), sentBefore.UTC()).
		Delete(&outboxModel{})
	return result.RowsAffected, result.Error
}

func (t *OutboxTable) update(ctx context.Context, id string, values map[string]any) error {
	result := t.db.WithContext(ctx).
		Table(t.name).
		Where("outbox_id = ?", id).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return outbox.ErrMessageNotFound
	}
	return nil
}
