package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"carelog/internal/apperror"
	"carelog/internal/calendar"
	"carelog/internal/models"
	"carelog/internal/repository"
	"carelog/internal/validation"
)

var (
	ErrScheduleNotFound = apperror.NotFound("schedule not found")
	ErrNoLogToRemove    = apperror.Validation("no log to remove")
	ErrLogChanged       = apperror.Conflict("log was removed while saving, try again")
)

// LogService records what happened to schedule instances
type LogService struct {
	schedules  *repository.ScheduleRepository
	routines   *repository.RoutineRepository
	dependents *repository.DependentRepository
	logs       *repository.LogRepository
	access     *AccessService
	clock      calendar.Clock
	audit      AuditSink
	logger     *zap.Logger
	bounds     storeBounds
}

// NewLogService creates a new log service
func NewLogService(
	schedules *repository.ScheduleRepository,
	routines *repository.RoutineRepository,
	dependents *repository.DependentRepository,
	logs *repository.LogRepository,
	access *AccessService,
	clock calendar.Clock,
	audit AuditSink,
	logger *zap.Logger,
	storeTimeout time.Duration,
) *LogService {
	if clock == nil {
		clock = calendar.Real()
	}
	return &LogService{
		schedules:  schedules,
		routines:   routines,
		dependents: dependents,
		logs:       logs,
		access:     access,
		clock:      clock,
		audit:      audit,
		logger:     logger,
		bounds:     newStoreBounds(storeTimeout),
	}
}

// Upsert creates or overwrites the log of a schedule and returns it with the
// schedule's dependent ID, which callers use to target notifications
func (s *LogService) Upsert(ctx context.Context, userID, scheduleID int64, status string, notes *string) (*models.RoutineLog, int64, error) {
	log, dependentID, err := s.upsert(ctx, userID, scheduleID, status, notes)
	return log, dependentID, apperror.Boundary(err, "failed to save log")
}

func (s *LogService) upsert(ctx context.Context, userID, scheduleID int64, status string, notes *string) (*models.RoutineLog, int64, error) {
	schedule, err := s.authorize(ctx, userID, scheduleID)
	if err != nil {
		return nil, 0, err
	}

	logStatus, err := validation.ValidateLogStatus(status)
	if err != nil {
		return nil, 0, err
	}
	if notes, err = validation.ValidateNotes(notes); err != nil {
		return nil, 0, err
	}

	wctx, cancel := s.bounds.write(ctx)
	defer cancel()

	log, err := s.logs.Upsert(wctx, scheduleID, logStatus, notes, userID, s.clock.Now())
	if err != nil {
		return nil, 0, err
	}
	if log == nil {
		// A concurrent remove deleted it before the read back
		return nil, 0, ErrLogChanged
	}

	recordAudit(wctx, s.audit, s.logger, models.AuditEntry{
		UserID:   userID,
		Action:   models.AuditUpdate,
		Entity:   models.EntityRoutineLogs,
		EntityID: scheduleID,
		Details:  map[string]interface{}{"status": string(log.Status), "logId": log.ID},
	})
	return log, schedule.DependentID, nil
}

// Remove deletes the log of a schedule, returning the schedule to pending.
// It returns the removed status and the schedule's dependent ID.
func (s *LogService) Remove(ctx context.Context, userID, scheduleID int64) (models.LogStatus, int64, error) {
	status, dependentID, err := s.remove(ctx, userID, scheduleID)
	return status, dependentID, apperror.Boundary(err, "failed to remove log")
}

func (s *LogService) remove(ctx context.Context, userID, scheduleID int64) (models.LogStatus, int64, error) {
	schedule, err := s.authorize(ctx, userID, scheduleID)
	if err != nil {
		return "", 0, err
	}

	rctx, rcancel := s.bounds.read(ctx)
	defer rcancel()

	existing, err := s.logs.GetBySchedule(rctx, scheduleID)
	if err != nil {
		return "", 0, err
	}
	if existing == nil {
		return "", 0, ErrNoLogToRemove
	}

	wctx, cancel := s.bounds.write(ctx)
	defer cancel()

	removed, err := s.logs.DeleteBySchedule(wctx, scheduleID)
	if err != nil {
		return "", 0, err
	}
	if !removed {
		// Another caller reopened it first
		return "", 0, ErrNoLogToRemove
	}

	recordAudit(wctx, s.audit, s.logger, models.AuditEntry{
		UserID:   userID,
		Action:   models.AuditDelete,
		Entity:   models.EntityRoutineLogs,
		EntityID: scheduleID,
		Details:  map[string]interface{}{"previousStatus": string(existing.Status), "logId": existing.ID},
	})
	return existing.Status, schedule.DependentID, nil
}

// ListByRoutine returns every log of a routine, newest first
func (s *LogService) ListByRoutine(ctx context.Context, userID, routineID int64) ([]models.RoutineLogEntry, error) {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	routine, err := s.activeRoutine(rctx, routineID)
	if err != nil {
		return nil, apperror.Boundary(err, "failed to list logs")
	}
	if _, err := s.access.RequireLink(rctx, routine.DependentID, userID); err != nil {
		return nil, apperror.Boundary(err, "failed to list logs")
	}

	entries, err := s.logs.ListByRoutine(rctx, routineID)
	return entries, apperror.Boundary(err, "failed to list logs")
}

// authorize loads the schedule and requires an editor link to its dependent.
// Schedules kept as history of a deleted routine or dependent are read-only.
func (s *LogService) authorize(ctx context.Context, userID, scheduleID int64) (*models.RoutineSchedule, error) {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	schedule, err := s.schedules.GetByID(rctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, ErrScheduleNotFound
	}
	if _, err := s.activeRoutine(rctx, schedule.RoutineID); err != nil {
		return nil, err
	}
	if _, err := s.access.RequireEditor(rctx, schedule.DependentID, userID); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *LogService) activeRoutine(ctx context.Context, routineID int64) (*models.Routine, error) {
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
