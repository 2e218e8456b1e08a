package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSessionJoinsBoundTransaction(t *testing.T) {
	database, table := newTestOutbox(t)
	ctx := context.Background()
	rollback := errors.New("rollback")

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bound := WithTx(ctx, tx)
		if err := Session(bound, database.DB).Transaction(func(inner *gorm.DB) error {
			return table.Append(inner, row("m1", time.Now()))
		}); err != nil {
			return err
		}
		var staged int64
		require.NoError(t, Session(bound, database.DB).Table(table.Name()).Count(&staged).Error)
		assert.Equal(t, int64(1), staged)
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	pending, err := table.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSessionFallsBackToConnection(t *testing.T) {
	database, table := newTestOutbox(t)
	ctx := context.Background()

	require.NoError(t, Session(ctx, database.DB).Transaction(func(tx *gorm.DB) error {
		return table.Append(tx, row("m1", time.Now()))
	}))
	pending, err := table.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
