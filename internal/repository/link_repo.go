package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carelog/internal/database"
	"carelog/internal/models"
)

// LinkRepository handles the access links between users and dependents
type LinkRepository struct {
	db database.DBTX
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db database.DBTX) *LinkRepository {
	return &LinkRepository{db: db}
}

// WithTx returns a copy bound to tx
func (r *LinkRepository) WithTx(tx *database.Tx) *LinkRepository {
	return &LinkRepository{db: tx}
}

// Add links a user to a dependent with a role
func (r *LinkRepository) Add(ctx context.Context, dependentID, userID int64, role models.Role) error {
	query := "INSERT INTO dependent_users (dependent_id, user_id, role) VALUES (?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, dependentID, userID, string(role)); err != nil {
		return fmt.Errorf("failed to add dependent link: %w", err)
	}
	return nil
}

// Find returns the link between a dependent and a user, or nil when none exists
func (r *LinkRepository) Find(ctx context.Context, dependentID, userID int64) (*models.DependentUser, error) {
	query := `
		SELECT id, dependent_id, user_id, role, created_at
		FROM dependent_users
		WHERE dependent_id = ? AND user_id = ?
	`
	link := &models.DependentUser{}
	var role string
	err := r.db.QueryRowContext(ctx, query, dependentID, userID).Scan(
		&link.ID, &link.DependentID, &link.UserID, &role, &link.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dependent link: %w", err)
	}
	link.Role = models.Role(role)
	return link, nil
}

// ListDependentsForUser returns the active dependents a user is linked to, by name
func (r *LinkRepository) ListDependentsForUser(ctx context.Context, userID int64) ([]models.DependentWithRole, error) {
	query := `
		SELECT d.id, d.name, d.birth_date, d.notes, d.active, d.created_at, d.updated_at, du.role
		FROM dependents d
		INNER JOIN dependent_users du ON du.dependent_id = d.id
		WHERE du.user_id = ? AND d.active = ?
		ORDER BY d.name, d.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependents: %w", err)
	}
	defer rows.Close()

	dependents := []models.DependentWithRole{}
	for rows.Next() {
		var dep models.DependentWithRole
		var role string
		if err := rows.Scan(&dep.ID, &dep.Name, &dep.BirthDate, &dep.Notes, &dep.Active,
			&dep.CreatedAt, &dep.UpdatedAt, &role); err != nil {
			return nil, fmt.Errorf("failed to scan dependent: %w", err)
		}
		dep.Role = models.Role(role)
		dependents = append(dependents, dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dependents: %w", err)
	}
	return dependents, nil
}

// ListForDependent returns every link of a dependent
func (r *LinkRepository) ListForDependent(ctx context.Context, dependentID int64) ([]models.DependentUser, error) {
	query := `
		SELECT id, dependent_id, user_id, role, created_at
		FROM dependent_users
		WHERE dependent_id = ?
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, dependentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependent links: %w", err)
	}
	defer rows.Close()

	var links []models.DependentUser
	for rows.Next() {
		var link models.DependentUser
		var role string
		if err := rows.Scan(&link.ID, &link.DependentID, &link.UserID, &role, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dependent link: %w", err)
		}
		link.Role = models.Role(role)
		links = append(links, link)
	}
	return links, rows.Err()
}

// Remove deletes the link between a dependent and a user
func (r *LinkRepository) Remove(ctx context.Context, dependentID, userID int64) error {
	query := "DELETE FROM dependent_users WHERE dependent_id = ? AND user_id = ?"
	if _, err := r.db.ExecContext(ctx, query, dependentID, userID); err != nil {
		return fmt.Errorf("failed to remove dependent link: %w", err)
	}
	return nil
}
