package db

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTx binds tx to ctx. Repositories resolving their handle through
// Session then write inside tx; their own Transaction calls become
// savepoints.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Session returns the transaction bound to ctx, or conn when there is none.
func Session(ctx context.Context, conn *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return conn.WithContext(ctx)
}
