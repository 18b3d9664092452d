package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// Transaction 在一个事务内执行 fn，fn 返回错误或 panic 时整体回滚。
// fn 内通过 Conn(ctx, db) 取到的都是同一个事务句柄；已处于事务中时直接复用外层事务。
func Transaction(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Conn 返回 ctx 中的事务句柄，不在事务中时返回 db
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
