// Package repository persists the care domain over database.DB. Every
// repository accepts a database.DBTX so it can run inside a caller's
// transaction via WithTx.
package repository

import (
	"context"

	"carelog/internal/database"
)

// inTx runs fn in a new transaction unless q already is one
func inTx(ctx context.Context, q database.DBTX, fn func(database.DBTX) error) error {
	if db, ok := q.(*database.DB); ok {
		return db.WithTx(ctx, func(tx *database.Tx) error {
			return fn(tx)
		})
	}
	return fn(q)
}
