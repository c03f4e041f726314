package service

import (
	"context"
	"fmt"

	"carelog/internal/apperror"
	"carelog/internal/models"
	"carelog/internal/repository"
)

var (
	ErrNoAccess         = apperror.Forbidden("you do not have access to this dependent")
	ErrRoleNotAllowed   = apperror.Forbidden("your role does not allow this action")
	ErrDependentMissing = apperror.NotFound("dependent not found")
)

// EditorRoles may change routines and logs
var EditorRoles = []models.Role{models.RoleFamily, models.RoleCaregiver}

// OwnerRoles may change or delete the dependent itself
var OwnerRoles = []models.Role{models.RoleFamily}

// AccessService decides whether a user may act on a dependent. It is
// consulted before any state change.
type AccessService struct {
	links *repository.LinkRepository
}

// NewAccessService creates a new access service
func NewAccessService(links *repository.LinkRepository) *AccessService {
	return &AccessService{links: links}
}

// FindLink returns the link between a dependent and a user, or nil
func (s *AccessService) FindLink(ctx context.Context, dependentID, userID int64) (*models.DependentUser, error) {
	link, err := s.links.Find(ctx, dependentID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify dependent access: %w", err)
	}
	return link, nil
}

// RequireLink fails with Forbidden when the user has no link to the dependent
func (s *AccessService) RequireLink(ctx context.Context, dependentID, userID int64) (*models.DependentUser, error) {
	link, err := s.FindLink(ctx, dependentID, userID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNoAccess
	}
	return link, nil
}

// RequireRole fails with Forbidden when the link's role is not allowed
func RequireRole(link *models.DependentUser, allowed ...models.Role) error {
	if link == nil {
		return ErrNoAccess
	}
	for _, role := range allowed {
		if link.Role == role {
			return nil
		}
	}
	return ErrRoleNotAllowed
}

// RequireEditor requires a FAMILY or CAREGIVER link
func (s *AccessService) RequireEditor(ctx context.Context, dependentID, userID int64) (*models.DependentUser, error) {
	link, err := s.RequireLink(ctx, dependentID, userID)
	if err != nil {
		return nil, err
	}
	if err := RequireRole(link, EditorRoles...); err != nil {
		return nil, err
	}
	return link, nil
}

// LinkedDependentIDs returns the active dependents the user can see
func (s *AccessService) LinkedDependentIDs(ctx context.Context, userID int64) ([]int64, error) {
	deps, err := s.links.ListDependentsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(deps))
	for i, d := range deps {
		ids[i] = d.ID
	}
	return ids, nil
}

// requireActiveDependent reports ErrDependentMissing for an absent or
// soft-deleted dependent
func requireActiveDependent(ctx context.Context, dependents *repository.DependentRepository, dependentID int64) (*models.Dependent, error) {
	dep, err := dependents.GetByID(ctx, dependentID)
	if err != nil {
		return nil, err
	}
	if dep == nil || !dep.Active {
		return nil, ErrDependentMissing
	}
	return dep, nil
}
