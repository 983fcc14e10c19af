package mysql

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// withinTx runs fn in a transaction and hands it a ctx carrying that
// transaction. Called inside another transaction it opens a savepoint.
func withinTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	return conn(ctx, db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
