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

const overviewFailure = "failed to build today's overview"

// OverviewService assembles a user's schedule for today across every
// dependent they are linked to
type OverviewService struct {
	links     *repository.LinkRepository
	routines  *RoutineService
	schedules *ScheduleService
	views     *repository.ScheduleRepository
	resolver  *calendar.Resolver
	logger    *zap.Logger
	bounds    storeBounds
}

// NewOverviewService creates a new overview service
func NewOverviewService(
	links *repository.LinkRepository,
	routines *RoutineService,
	schedules *ScheduleService,
	views *repository.ScheduleRepository,
	resolver *calendar.Resolver,
	logger *zap.Logger,
	storeTimeout time.Duration,
) *OverviewService {
	return &OverviewService{
		links:     links,
		routines:  routines,
		schedules: schedules,
		views:     views,
		resolver:  resolver,
		logger:    logger,
		bounds:    newStoreBounds(storeTimeout),
	}
}

// GetTodayOverview returns one group per dependent with schedules today, as
// observed in timezone. Today's instances are materialized before they are read.
func (s *OverviewService) GetTodayOverview(ctx context.Context, userID int64, timezone string) ([]models.OverviewGroup, error) {
	groups, err := s.getTodayOverview(ctx, userID, timezone)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			s.logger.Error(overviewFailure, zap.Int64("user_id", userID), zap.String("timezone", timezone), zap.Error(err))
		}
		return nil, apperror.Boundary(err, overviewFailure)
	}
	return groups, nil
}

func (s *OverviewService) getTodayOverview(ctx context.Context, userID int64, timezone string) ([]models.OverviewGroup, error) {
	today := s.resolver.ResolveToday(timezone)

	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	dependents, err := s.links.ListDependentsForUser(rctx, userID)
	if err != nil {
		return nil, err
	}
	if len(dependents) == 0 {
		return []models.OverviewGroup{}, nil
	}

	ids := make([]int64, len(dependents))
	for i, d := range dependents {
		ids[i] = d.ID
	}

	routines, err := s.routines.FindActiveForDate(ctx, ids, today)
	if err != nil {
		return nil, err
	}
	if _, err := s.schedules.Ensure(ctx, routines, today); err != nil {
		return nil, err
	}

	views, err := s.views.ListForDate(rctx, ids, today)
	if err != nil {
		return nil, err
	}
	return GroupOverview(views), nil
}

// GroupOverview groups schedule views by dependent, keeping the input order
// of both groups and items
func GroupOverview(views []models.ScheduleView) []models.OverviewGroup {
	groups := []models.OverviewGroup{}
	index := make(map[int64]int)

	for _, v := range views {
		i, ok := index[v.Schedule.DependentID]
		if !ok {
			i = len(groups)
			index[v.Schedule.DependentID] = i
			groups = append(groups, models.OverviewGroup{
				DependentID:   v.Schedule.DependentID,
				DependentName: v.DependentName,
				Items:         []models.OverviewItem{},
			})
		}
		groups[i].Items = append(groups[i].Items, overviewItem(v))
	}
	return groups
}

func overviewItem(v models.ScheduleView) models.OverviewItem {
	item := models.OverviewItem{
		ScheduleID:  v.Schedule.ID,
		RoutineID:   v.Schedule.RoutineID,
		Title:       v.Routine.Title,
		Type:        v.Routine.Type,
		Description: v.Routine.Description,
		Time:        v.Schedule.ScheduledTime,
	}
	if v.Log != nil {
		status := v.Log.Status
		doneBy := v.Log.DoneBy
		item.Done = true
		item.Status = &status
		item.Notes = v.Log.Notes
		item.DoneBy = &doneBy
	}
	return item
}
