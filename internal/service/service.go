// Package service holds the business rules of the care log. Every exported
// operation returns either a classified apperror or an internal error with an
// opaque public message.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"carelog/internal/database"
	"carelog/internal/models"
)

// DefaultStoreTimeout bounds store calls when no timeout is configured
const DefaultStoreTimeout = 5 * time.Second

// AuditSink receives an entry for every state change
type AuditSink interface {
	Record(ctx context.Context, entry models.AuditEntry) error
}

// storeBounds derives bounded contexts for store calls
type storeBounds struct {
	timeout time.Duration
}

func newStoreBounds(timeout time.Duration) storeBounds {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return storeBounds{timeout: timeout}
}

// read bounds a store read by the caller's context and the store timeout
func (b storeBounds) read(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// write detaches a store write from caller cancellation so it is never left half applied
func (b storeBounds) write(ctx context.Context) (context.Context, context.CancelFunc) {
	return database.WriteContext(ctx, b.timeout)
}

// recordAudit appends entries after the mutation has committed. A failing
// sink is logged and never fails the operation.
func recordAudit(ctx context.Context, sink AuditSink, logger *zap.Logger, entries ...models.AuditEntry) {
	if sink == nil {
		return
	}
	for _, entry := range entries {
		if err := sink.Record(ctx, entry); err != nil {
			logger.Error("failed to record audit entry",
				zap.String("entity", entry.Entity),
				zap.Int64("entity_id", entry.EntityID),
				zap.String("action", string(entry.Action)),
				zap.Error(err),
			)
		}
	}
}
