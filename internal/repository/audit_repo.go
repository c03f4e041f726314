package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"carelog/internal/database"
	"carelog/internal/models"
)

// AuditRepository appends audit entries. Entries are never read by the
// application; they exist for operators.
type AuditRepository struct {
	db database.DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db database.DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// WithTx returns a copy bound to tx
func (r *AuditRepository) WithTx(tx *database.Tx) *AuditRepository {
	return &AuditRepository{db: tx}
}

// Record appends an audit entry with its details serialized as JSON
func (r *AuditRepository) Record(ctx context.Context, entry models.AuditEntry) error {
	var details *string
	if len(entry.Details) > 0 {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		s := string(data)
		details = &s
	}

	query := "INSERT INTO audit_logs (user_id, action, entity, entity_id, details) VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, entry.UserID, string(entry.Action), entry.Entity, entry.EntityID, details); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// Count returns the number of audit entries for an entity, used by operators and tests
func (r *AuditRepository) Count(ctx context.Context, entity string, entityID int64) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM audit_logs WHERE entity = ? AND entity_id = ?"
	if err := r.db.QueryRowContext(ctx, query, entity, entityID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return count, nil
}
