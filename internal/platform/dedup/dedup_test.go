package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkwell/internal/platform/db"
	"inkwell/internal/shared/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newGormStore(t *testing.T) (*db.Database, *Gorm) {
	t.Helper()
	database, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	store := NewGorm(database.DB, "test_event_dedup")
	require.NoError(t, store.Migrate(context.Background()))
	return database, store
}

func stores(t *testing.T) map[string]events.DedupStore {
	t.Helper()
	_, gormStore := newGormStore(t)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]events.DedupStore{
		"memory": NewMemory(),
		"gorm":   gormStore,
		"redis":  NewRedis(client, "test"),
	}
}

func TestStoresRecordOnce(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			expires := time.Now().Add(time.Hour)

			processed, err := store.Processed(ctx, "e1", "h1")
			require.NoError(t, err)
			assert.False(t, processed)

			recorded, err := store.MarkProcessed(ctx, "e1", "h1", expires)
			require.NoError(t, err)
			assert.True(t, recorded)

			recorded, err = store.MarkProcessed(ctx, "e1", "h1", expires)
			require.NoError(t, err)
			assert.False(t, recorded)

			processed, err = store.Processed(ctx, "e1", "h1")
			require.NoError(t, err)
			assert.True(t, processed)

			_, err = store.Processed(ctx, "e1", "h2")
			assert.ErrorIs(t, err, events.ErrIdempotencyKeyConflict)
		})
	}
}

func TestGormExpiredRecordIsReplaced(t *testing.T) {
	_, store := newGormStore(t)
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "e1", "h1", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	processed, err := store.Processed(ctx, "e1", "h1")
	require.NoError(t, err)
	assert.False(t, processed)

	recorded, err := store.MarkProcessed(ctx, "e1", "h1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, recorded)

	purged, err := store.PurgeExpired(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

type counterModel struct {
	ID    string `gorm:"primaryKey"`
	Value int64
}

func TestGormRunOnceCommitsRecordWithHandlerWrites(t *testing.T) {
	database, store := newGormStore(t)
	ctx := context.Background()
	require.NoError(t, database.DB.AutoMigrate(&counterModel{}))
	require.NoError(t, database.DB.Create(&counterModel{ID: "likes"}).Error)

	increment := func(ctx context.Context) error {
		return db.Session(ctx, database.DB).
			Model(&counterModel{}).
			Where("id = ?", "likes").
			UpdateColumn("value", gorm.Expr("value + 1")).
			Error
	}
	crash := errors.New("process killed")
	expires := time.Now().Add(time.Hour)

	duplicate, err := store.RunOnce(ctx, "e1", "h1", expires, func(ctx context.Context) error {
		if err := increment(ctx); err != nil {
			return err
		}
		return crash
	})
	require.ErrorIs(t, err, crash)
	assert.False(t, duplicate)

	processed, err := store.Processed(ctx, "e1", "h1")
	require.NoError(t, err)
	assert.False(t, processed)

	duplicate, err = store.RunOnce(ctx, "e1", "h1", expires, increment)
	require.NoError(t, err)
	assert.False(t, duplicate)

	duplicate, err = store.RunOnce(ctx, "e1", "h1", expires, increment)
	require.NoError(t, err)
	assert.True(t, duplicate)

	var counter counterModel
	require.NoError(t, database.DB.First(&counter, "id = ?", "likes").Error)
	assert.Equal(t, int64(1), counter.Value)

	_, err = store.RunOnce(ctx, "e1", "h2", expires, increment)
	assert.ErrorIs(t, err, events.ErrIdempotencyKeyConflict)
}

func TestRedisRecordExpires(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedis(client, "svc:")
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "e1", "h1", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, server.Exists("svc:dedup:e1"))

	server.FastForward(2 * time.Minute)
	processed, err := store.Processed(ctx, "e1", "h1")
	require.NoError(t, err)
	assert.False(t, processed)
}
