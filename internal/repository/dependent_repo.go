package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carelog/internal/database"
	"carelog/internal/models"
)

// DependentRepository handles database operations for dependents
type DependentRepository struct {
	db database.DBTX
}

// NewDependentRepository creates a new dependent repository
func NewDependentRepository(db database.DBTX) *DependentRepository {
	return &DependentRepository{db: db}
}

// WithTx returns a copy bound to tx
func (r *DependentRepository) WithTx(tx *database.Tx) *DependentRepository {
	return &DependentRepository{db: tx}
}

// Create inserts a dependent and returns its ID
func (r *DependentRepository) Create(ctx context.Context, name string, birthDate, notes *string) (int64, error) {
	query := "INSERT INTO dependents (name, birth_date, notes, active) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, name, birthDate, notes, true)
	if err != nil {
		return 0, fmt.Errorf("failed to create dependent: %w", err)
	}
	return id, nil
}

// GetByID retrieves a dependent by ID, including inactive ones
func (r *DependentRepository) GetByID(ctx context.Context, id int64) (*models.Dependent, error) {
	query := `
		SELECT id, name, birth_date, notes, active, created_at, updated_at
		FROM dependents WHERE id = ?
	`
	dep := &models.Dependent{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&dep.ID, &dep.Name, &dep.BirthDate, &dep.Notes, &dep.Active, &dep.CreatedAt, &dep.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dependent: %w", err)
	}
	return dep, nil
}

// Update replaces the editable fields of a dependent
func (r *DependentRepository) Update(ctx context.Context, id int64, name string, birthDate, notes *string) error {
	query := "UPDATE dependents SET name = ?, birth_date = ?, notes = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, name, birthDate, notes, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to update dependent: %w", err)
	}
	return nil
}

// Deactivate soft-deletes a dependent
func (r *DependentRepository) Deactivate(ctx context.Context, id int64) error {
	query := "UPDATE dependents SET active = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, false, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to deactivate dependent: %w", err)
	}
	return nil
}
