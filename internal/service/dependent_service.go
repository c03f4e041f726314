package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"carelog/internal/apperror"
	"carelog/internal/database"
	"carelog/internal/models"
	"carelog/internal/repository"
	"carelog/internal/validation"
)

// DependentService manages the people receiving care. The creator of a
// dependent becomes its FAMILY owner.
type DependentService struct {
	db         *database.DB
	dependents *repository.DependentRepository
	links      *repository.LinkRepository
	access     *AccessService
	audit      AuditSink
	logger     *zap.Logger
	bounds     storeBounds
}

// NewDependentService creates a new dependent service
func NewDependentService(
	db *database.DB,
	dependents *repository.DependentRepository,
	links *repository.LinkRepository,
	access *AccessService,
	audit AuditSink,
	logger *zap.Logger,
	storeTimeout time.Duration,
) *DependentService {
	return &DependentService{
		db:         db,
		dependents: dependents,
		links:      links,
		access:     access,
		audit:      audit,
		logger:     logger,
		bounds:     newStoreBounds(storeTimeout),
	}
}

func normalizeDependent(in models.DependentInput) (models.DependentInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return in, err
	}
	birthDate, err := validation.ValidateBirthDate(in.BirthDate)
	if err != nil {
		return in, err
	}
	in.BirthDate = birthDate
	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		in.Notes = &notes
		if notes == "" {
			in.Notes = nil
		}
	}
	return in, nil
}

// Create registers a dependent and links the creator as FAMILY in one transaction
func (s *DependentService) Create(ctx context.Context, userID int64, in models.DependentInput) (*models.DependentWithRole, error) {
	in, err := normalizeDependent(in)
	if err != nil {
		return nil, err
	}

	wctx, cancel := s.bounds.write(ctx)
	defer cancel()

	var id int64
	err = s.db.WithTx(wctx, func(tx *database.Tx) error {
		var err error
		if id, err = s.dependents.WithTx(tx).Create(wctx, in.Name, in.BirthDate, in.Notes); err != nil {
			return err
		}
		return s.links.WithTx(tx).Add(wctx, id, userID, models.RoleFamily)
	})
	if err != nil {
		return nil, apperror.Boundary(err, "failed to create dependent")
	}

	dep, err := s.dependents.GetByID(wctx, id)
	if err != nil {
		return nil, apperror.Boundary(err, "failed to create dependent")
	}
	if dep == nil {
		return nil, apperror.Internal("failed to create dependent", fmt.Errorf("dependent %d missing after insert", id))
	}

	recordAudit(wctx, s.audit, s.logger, models.AuditEntry{
		UserID:   userID,
		Action:   models.AuditCreate,
		Entity:   models.EntityDependent,
		EntityID: id,
		Details:  map[string]interface{}{"name": dep.Name},
	})
	return &models.DependentWithRole{Dependent: *dep, Role: models.RoleFamily}, nil
}

// List returns the active dependents linked to the user, with the user's role
func (s *DependentService) List(ctx context.Context, userID int64) ([]models.DependentWithRole, error) {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	deps, err := s.links.ListDependentsForUser(rctx, userID)
	return deps, apperror.Boundary(err, "failed to list dependents")
}

// Get returns one dependent the user is linked to
func (s *DependentService) Get(ctx context.Context, userID, dependentID int64) (*models.DependentWithRole, error) {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	link, err := s.access.RequireLink(rctx, dependentID, userID)
	if err != nil {
		return nil, apperror.Boundary(err, "failed to get dependent")
	}
	dep, err := s.loadActive(rctx, dependentID)
	if err != nil {
		return nil, apperror.Boundary(err, "failed to get dependent")
	}
	return &models.DependentWithRole{Dependent: *dep, Role: link.Role}, nil
}

// Update changes a dependent's details. Only FAMILY may do this.
func (s *DependentService) Update(ctx context.Context, userID, dependentID int64, in models.DependentInput) (*models.DependentWithRole, error) {
	dep, err := s.update(ctx, userID, dependentID, in)
	return dep, apperror.Boundary(err, "failed to update dependent")
}

func (s *DependentService) update(ctx context.Context, userID, dependentID int64, in models.DependentInput) (*models.DependentWithRole, error) {
	if err := s.requireOwner(ctx, dependentID, userID); err != nil {
		return nil, err
	}
	in, err := normalizeDependent(in)
	if err != nil {
		return nil, err
	}

	wctx, cancel := s.bounds.write(ctx)
	defer cancel()

	if err := s.dependents.Update(wctx, dependentID, in.Name, in.BirthDate, in.Notes); err != nil {
		return nil, err
	}
	dep, err := s.loadActive(wctx, dependentID)
	if err != nil {
		return nil, err
	}

	recordAudit(wctx, s.audit, s.logger, models.AuditEntry{
		UserID:   userID,
		Action:   models.AuditUpdate,
		Entity:   models.EntityDependent,
		EntityID: dependentID,
		Details:  map[string]interface{}{"name": dep.Name},
	})
	return &models.DependentWithRole{Dependent: *dep, Role: models.RoleFamily}, nil
}

// Delete soft-deletes a dependent. Only FAMILY may do this.
func (s *DependentService) Delete(ctx context.Context, userID, dependentID int64) error {
	return apperror.Boundary(s.delete(ctx, userID, dependentID), "failed to delete dependent")
}

func (s *DependentService) delete(ctx context.Context, userID, dependentID int64) error {
	if err := s.requireOwner(ctx, dependentID, userID); err != nil {
		return err
	}

	wctx, cancel := s.bounds.write(ctx)
	defer cancel()

	if err := s.dependents.Deactivate(wctx, dependentID); err != nil {
		return err
	}
	recordAudit(wctx, s.audit, s.logger, models.AuditEntry{
		UserID:   userID,
		Action:   models.AuditDelete,
		Entity:   models.EntityDependent,
		EntityID: dependentID,
	})
	return nil
}

func (s *DependentService) requireOwner(ctx context.Context, dependentID, userID int64) error {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	link, err := s.access.RequireLink(rctx, dependentID, userID)
	if err != nil {
		return err
	}
	if err := RequireRole(link, OwnerRoles...); err != nil {
		return err
	}
	_, err = s.loadActive(rctx, dependentID)
	return err
}

func (s *DependentService) loadActive(ctx context.Context, dependentID int64) (*models.Dependent, error) {
	return requireActiveDependent(ctx, s.dependents, dependentID)
}
