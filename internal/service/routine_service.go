package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"carelog/internal/apperror"
	"carelog/internal/calendar"
	"carelog/internal/database"
	"carelog/internal/models"
	"carelog/internal/repository"
	"carelog/internal/validation"
)

var ErrRoutineNotFound = apperror.NotFound("routine not found")

// RoutineService manages routine definitions. Create, update and delete each
// commit their sub-writes in one transaction.
type RoutineService struct {
	db         *database.DB
	routines   *repository.RoutineRepository
	schedules  *repository.ScheduleRepository
	dependents *repository.DependentRepository
	access     *AccessService
	resolver   *calendar.Resolver
	audit      AuditSink
	logger     *zap.Logger
	bounds     storeBounds
}

// NewRoutineService creates a new routine service
func NewRoutineService(
	db *database.DB,
	routines *repository.RoutineRepository,
	schedules *repository.ScheduleRepository,
	dependents *repository.DependentRepository,
	access *AccessService,
	resolver *calendar.Resolver,
	audit AuditSink,
	logger *zap.Logger,
	storeTimeout time.Duration,
) *RoutineService {
	return &RoutineService{
		db:         db,
		routines:   routines,
		schedules:  schedules,
		dependents: dependents,
		access:     access,
		resolver:   resolver,
		audit:      audit,
		logger:     logger,
		bounds:     newStoreBounds(storeTimeout),
	}
}

// Create defines a new routine for a dependent
func (s *RoutineService) Create(ctx context.Context, userID, dependentID int64, in models.RoutineInput) (*models.Routine, error) {
	routine, err := s.create(ctx, userID, dependentID, in)
	return routine, apperror.Boundary(err, "failed to create routine")
}

func (s *RoutineService) create(ctx context.Context, userID, dependentID int64, in models.RoutineInput) (*models.Routine, error) {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	if _, err := s.access.RequireEditor(rctx, dependentID, userID); err != nil {
		return nil, err
	}
	if _, err := requireActiveDependent(rctx, s.dependents, dependentID); err != nil {
		return nil, err
	}

	in.DependentID = dependentID
	in, err := validation.ValidateRoutine(in)
	if err != nil {
		return nil, err
	}

	wctx, wcancel := s.bounds.write(ctx)
	defer wcancel()

	routine, err := s.routines.Create(wctx, &models.Routine{
		DependentID: dependentID,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		CreatedBy:   userID,
		Times:       in.Times,
		DaysOfWeek:  in.DaysOfWeek,
	})
	if err != nil {
		return nil, err
	}

	recordAudit(wctx, s.audit, s.logger, models.AuditEntry{
		UserID:   userID,
		Action:   models.AuditCreate,
		Entity:   models.EntityRoutine,
		EntityID: routine.ID,
		Details:  routineSnapshot(routine),
	})
	return routine, nil
}

// List returns the active routines of a dependent
func (s *RoutineService) List(ctx context.Context, userID, dependentID int64) ([]models.Routine, error) {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	if _, err := s.access.RequireLink(rctx, dependentID, userID); err != nil {
		return nil, apperror.Boundary(err, "failed to list routines")
	}
	if _, err := requireActiveDependent(rctx, s.dependents, dependentID); err != nil {
		return nil, apperror.Boundary(err, "failed to list routines")
	}
	routines, err := s.routines.ListByDependent(rctx, dependentID)
	return routines, apperror.Boundary(err, "failed to list routines")
}

// Get returns one active routine
func (s *RoutineService) Get(ctx context.Context, userID, routineID int64) (*models.Routine, error) {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	routine, err := s.loadActive(rctx, routineID)
	if err != nil {
		return nil, apperror.Boundary(err, "failed to get routine")
	}
	if _, err := s.access.RequireLink(rctx, routine.DependentID, userID); err != nil {
		return nil, apperror.Boundary(err, "failed to get routine")
	}
	return routine, nil
}

// Update replaces a routine's definition. Future schedules without a log
// are purged so the next materialization uses the new times and days;
// logged schedules are history and stay untouched.
func (s *RoutineService) Update(ctx context.Context, userID, routineID int64, in models.RoutineInput) (*models.Routine, error) {
	routine, err := s.update(ctx, userID, routineID, in)
	return routine, apperror.Boundary(err, "failed to update routine")
}

func (s *RoutineService) update(ctx context.Context, userID, routineID int64, in models.RoutineInput) (*models.Routine, error) {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	existing, err := s.loadActive(rctx, routineID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.RequireEditor(rctx, existing.DependentID, userID); err != nil {
		return nil, err
	}

	in.DependentID = existing.DependentID
	in, err = validation.ValidateRoutine(in)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Type = in.Type
	updated.Title = in.Title
	updated.Description = in.Description
	updated.Times = in.Times
	updated.DaysOfWeek = in.DaysOfWeek

	wctx, wcancel := s.bounds.write(ctx)
	defer wcancel()

	from := s.resolver.ServerToday()
	var counts repository.ChildCounts
	var purged int64
	err = s.db.WithTx(wctx, func(tx *database.Tx) error {
		var err error
		if counts, err = s.routines.WithTx(tx).Update(wctx, &updated); err != nil {
			return err
		}
		purged, err = s.schedules.WithTx(tx).PurgeUnlogged(wctx, routineID, from)
		return err
	})
	if err != nil {
		return nil, err
	}

	result, err := s.routines.GetByID(wctx, routineID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrRoutineNotFound
	}

	details := routineSnapshot(result)
	details["purgedSchedules"] = purged
	recordAudit(wctx, s.audit, s.logger,
		models.AuditEntry{
			UserID: userID, Action: models.AuditUpdate, Entity: models.EntityRoutine, EntityID: routineID,
			Details: details,
		},
		models.AuditEntry{
			UserID: userID, Action: models.AuditUpdate, Entity: models.EntityRoutineTimes, EntityID: routineID,
			Details: map[string]interface{}{"replaced": counts.Times, "times": result.Times},
		},
		models.AuditEntry{
			UserID: userID, Action: models.AuditUpdate, Entity: models.EntityRoutineDays, EntityID: routineID,
			Details: map[string]interface{}{"replaced": counts.Days, "daysOfWeek": result.DaysOfWeek},
		},
	)
	return result, nil
}

// Delete soft-deletes a routine. Future schedules without a log and future
// SKIPPED logs are removed; DONE history is kept.
func (s *RoutineService) Delete(ctx context.Context, userID, routineID int64) error {
	return apperror.Boundary(s.delete(ctx, userID, routineID), "failed to delete routine")
}

func (s *RoutineService) delete(ctx context.Context, userID, routineID int64) error {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	existing, err := s.loadActive(rctx, routineID)
	if err != nil {
		return err
	}
	if _, err := s.access.RequireEditor(rctx, existing.DependentID, userID); err != nil {
		return err
	}

	wctx, wcancel := s.bounds.write(ctx)
	defer wcancel()

	from := s.resolver.ServerToday()
	var skippedLogs, schedules int64
	err = s.db.WithTx(wctx, func(tx *database.Tx) error {
		if err := s.routines.WithTx(tx).Deactivate(wctx, routineID); err != nil {
			return err
		}
		txSchedules := s.schedules.WithTx(tx)
		var err error
		if skippedLogs, err = txSchedules.PurgeSkippedLogs(wctx, routineID, from); err != nil {
			return err
		}
		schedules, err = txSchedules.PurgeUnlogged(wctx, routineID, from)
		return err
	})
	if err != nil {
		return err
	}

	fromDate := calendar.FormatDate(from)
	recordAudit(wctx, s.audit, s.logger,
		models.AuditEntry{
			UserID: userID, Action: models.AuditDelete, Entity: models.EntityRoutine, EntityID: routineID,
			Details: routineSnapshot(existing),
		},
		models.AuditEntry{
			UserID: userID, Action: models.AuditDelete, Entity: models.EntityRoutineSchedules, EntityID: routineID,
			Details: map[string]interface{}{"from": fromDate, "count": schedules},
		},
		models.AuditEntry{
			UserID: userID, Action: models.AuditDelete, Entity: models.EntityRoutineLogs, EntityID: routineID,
			Details: map[string]interface{}{"from": fromDate, "status": string(models.LogSkipped), "count": skippedLogs},
		},
	)
	return nil
}

// FindActiveForDate returns the active routines of the dependents that run on date's weekday
func (s *RoutineService) FindActiveForDate(ctx context.Context, dependentIDs []int64, date time.Time) ([]models.Routine, error) {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	routines, err := s.routines.FindActiveForDay(rctx, dependentIDs, calendar.Weekday(date))
	return routines, apperror.Boundary(err, "failed to load routines")
}

// loadActive returns a routine only while both it and its dependent are active
func (s *RoutineService) loadActive(ctx context.Context, routineID int64) (*models.Routine, error) {
	routine, err := s.routines.GetByID(ctx, routineID)
	if err != nil {
		return nil, err
	}
	if routine == nil || !routine.Active {
		return nil, ErrRoutineNotFound
	}
	if _, err := requireActiveDependent(ctx, s.dependents, routine.DependentID); err != nil {
		return nil, err
	}
	return routine, nil
}

func routineSnapshot(r *models.Routine) map[string]interface{} {
	return map[string]interface{}{
		"dependentId": r.DependentID,
		"type":        string(r.Type),
		"title":       r.Title,
		"times":       r.Times,
		"daysOfWeek":  r.DaysOfWeek,
	}
}
