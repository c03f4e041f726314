package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"carelog/internal/apperror"
	"carelog/internal/calendar"
	"carelog/internal/models"
	"carelog/internal/repository"
)

// ScheduleService materializes schedule instances lazily, at read time.
// It never deletes; purging belongs to routine updates and deletes.
type ScheduleService struct {
	schedules *repository.ScheduleRepository
	routines  *repository.RoutineRepository
	logger    *zap.Logger
	bounds    storeBounds
}

// NewScheduleService creates a new schedule service
func NewScheduleService(schedules *repository.ScheduleRepository, routines *repository.RoutineRepository, logger *zap.Logger, storeTimeout time.Duration) *ScheduleService {
	return &ScheduleService{
		schedules: schedules,
		routines:  routines,
		logger:    logger,
		bounds:    newStoreBounds(storeTimeout),
	}
}

// Ensure creates the missing instance of every (routine, time) pair on date.
// Existing instances are left alone, so redundant and concurrent calls are
// safe. It returns how many instances were created.
func (s *ScheduleService) Ensure(ctx context.Context, routines []models.Routine, date time.Time) (int64, error) {
	var keys []repository.ScheduleKey
	for _, r := range routines {
		for _, clock := range r.Times {
			keys = append(keys, repository.ScheduleKey{
				DependentID: r.DependentID,
				RoutineID:   r.ID,
				Date:        date,
				Time:        clock,
			})
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wctx, cancel := s.bounds.write(ctx)
	defer cancel()

	created, err := s.schedules.EnsureMany(wctx, keys)
	if err != nil {
		return 0, apperror.Boundary(err, "failed to materialize schedules")
	}
	if created > 0 {
		s.logger.Debug("materialized schedules",
			zap.String("date", calendar.FormatDate(date)),
			zap.Int64("created", created),
		)
	}
	return created, nil
}

// MaterializeAll ensures instances for every active routine of every active
// dependent that runs on date
func (s *ScheduleService) MaterializeAll(ctx context.Context, date time.Time) (int64, error) {
	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	routines, err := s.routines.FindAllActiveForDay(rctx, calendar.Weekday(date))
	if err != nil {
		return 0, apperror.Boundary(err, "failed to load routines")
	}
	return s.Ensure(ctx, routines, date)
}
