package bootstrap

import (
	"context"
	"testing"
	"time"

	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/platform/config"
	"inkwell/internal/platform/db"
	"inkwell/internal/platform/dedup"
	"inkwell/internal/shared/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRuntime(t *testing.T, cfg config.Config) *runtime {
	t.Helper()
	database, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	rt := &runtime{cfg: cfg, database: database, closers: []func() error{database.Close}}
	t.Cleanup(rt.close)
	return rt
}

func TestDatabaseGuardIsPurgedByRelay(t *testing.T) {
	rt := testRuntime(t, config.Config{ServiceName: "user-service", AutoMigrate: true, DedupTTL: time.Hour})
	ctx := context.Background()

	guard, purger, err := rt.guard(ctx, "user_event_dedup")
	require.NoError(t, err)
	require.NotNil(t, guard)
	store, ok := purger.(*dedup.Gorm)
	require.True(t, ok)

	_, err = store.MarkProcessed(ctx, "e1", "h1", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	relay := rt.newRelay(nil, "identity-access/user-service")
	relay.Purgers = append(relay.Purgers, purger)
	require.Len(t, relay.Purgers, 1)
	purged, err := relay.Purgers[0].PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestRedisGuardUsesServicePrefix(t *testing.T) {
	server := miniredis.RunT(t)
	rt := testRuntime(t, config.Config{ServiceName: "post-service", RedisAddr: server.Addr()})
	ctx := context.Background()

	guard, purger, err := rt.guard(ctx, "post_event_dedup")
	require.NoError(t, err)
	require.NotNil(t, guard)
	assert.Nil(t, purger)

	envelope, err := events.NewEnvelope("e1", eventsv1.EventPostDeleted, time.Now(), eventsv1.PostDeleted{PostID: "p1"})
	require.NoError(t, err)
	duplicate, err := guard.Run(ctx, envelope, func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Equal(t, []string{"post-service:dedup:e1"}, server.Keys())
}
