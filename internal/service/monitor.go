package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"carelog/internal/calendar"
	"carelog/internal/models"
	"carelog/internal/repository"
)

// DueMonitor periodically logs the routines that are due at the current minute
type DueMonitor struct {
	routines *repository.RoutineRepository
	resolver *calendar.Resolver
	timezone string
	interval time.Duration
	logger   *zap.Logger
}

// NewDueMonitor creates a monitor that evaluates "now" in timezone
func NewDueMonitor(routines *repository.RoutineRepository, resolver *calendar.Resolver, timezone string, interval time.Duration, logger *zap.Logger) *DueMonitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &DueMonitor{
		routines: routines,
		resolver: resolver,
		timezone: timezone,
		interval: interval,
		logger:   logger,
	}
}

// Run checks once per interval until ctx is done
func (m *DueMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("routine monitor started", zap.Duration("interval", m.interval), zap.String("timezone", m.timezone))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("routine monitor stopped")
			return
		case <-ticker.C:
			if _, err := m.Check(ctx); err != nil {
				m.logger.Error("routine monitor check failed", zap.Error(err))
			}
		}
	}
}

// Check logs and returns the routines due at the resolver's current minute
func (m *DueMonitor) Check(ctx context.Context) ([]models.Routine, error) {
	local := m.resolver.Now().In(m.resolver.Location(m.timezone))
	weekday := int(local.Weekday())
	clock := calendar.ClockOf(local)

	checkCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	due, err := m.routines.FindDueAt(checkCtx, weekday, clock)
	if err != nil {
		return nil, err
	}
	for _, r := range due {
		m.logger.Info("routine due",
			zap.Int64("routine_id", r.ID),
			zap.Int64("dependent_id", r.DependentID),
			zap.String("title", r.Title),
			zap.String("type", string(r.Type)),
			zap.String("time", clock),
		)
	}
	return due, nil
}
