package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"carelog/internal/calendar"
	"carelog/internal/database"
	"carelog/internal/models"
	"carelog/internal/repository"
	"carelog/internal/security"
	"carelog/internal/service"
	"carelog/internal/testutil"
)

const (
	familyID       int64 = 1
	caregiverID    int64 = 2
	professionalID int64 = 3
	strangerID     int64 = 4
)

// 12:00 in Sao Paulo on a Friday
var fixedNow = time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)

type mockAuditSink struct {
	mock.Mock
}

func (m *mockAuditSink) Record(ctx context.Context, entry models.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

var errAuditDown = errors.New("audit store unavailable")

type env struct {
	db         *database.DB
	resolver   *calendar.Resolver
	audit      *repository.AuditRepository
	routineRep *repository.RoutineRepository
	schedRep   *repository.ScheduleRepository
	logRep     *repository.LogRepository
	access     *service.AccessService
	dependents *service.DependentService
	routines   *service.RoutineService
	schedules  *service.ScheduleService
	logs       *service.LogService
	overview   *service.OverviewService
	auth       *service.AuthService
}

func newEnv(t *testing.T) *env {
	return buildEnv(t, fixedNow, nil)
}

func newEnvWithAudit(t *testing.T, sink service.AuditSink) *env {
	return buildEnv(t, fixedNow, sink)
}

// buildEnv wires every service over a fresh database with the clock stopped
// at now. A nil sink records audits in the database.
func buildEnv(t *testing.T, now time.Time, sink service.AuditSink) *env {
	t.Helper()

	db := testutil.NewTestDB(t)
	logger := zaptest.NewLogger(t)
	resolver := calendar.NewResolver(calendar.Fixed(now), calendar.DefaultTimezone)

	users := repository.NewUserRepository(db)
	dependentRep := repository.NewDependentRepository(db)
	links := repository.NewLinkRepository(db)
	routineRep := repository.NewRoutineRepository(db)
	schedRep := repository.NewScheduleRepository(db)
	logRep := repository.NewLogRepository(db)
	audit := repository.NewAuditRepository(db)
	if sink == nil {
		sink = audit
	}

	access := service.NewAccessService(links)
	routines := service.NewRoutineService(db, routineRep, schedRep, dependentRep, access, resolver, sink, logger, time.Second)
	schedules := service.NewScheduleService(schedRep, routineRep, logger, time.Second)

	return &env{
		db:         db,
		resolver:   resolver,
		audit:      audit,
		routineRep: routineRep,
		schedRep:   schedRep,
		logRep:     logRep,
		access:     access,
		dependents: service.NewDependentService(db, dependentRep, links, access, sink, logger, time.Second),
		routines:   routines,
		schedules:  schedules,
		logs:       service.NewLogService(schedRep, routineRep, dependentRep, logRep, access, calendar.Fixed(now), sink, logger, time.Second),
		overview:   service.NewOverviewService(links, routines, schedules, schedRep, resolver, logger, time.Second),
		auth:       service.NewAuthService(users, security.NewTokenManager("test-secret", time.Hour), time.Second),
	}
}

// household creates a dependent owned by familyID with a caregiver and a
// professional linked to it
func (e *env) household(t *testing.T, name string) int64 {
	t.Helper()
	ctx := context.Background()

	dep, err := e.dependents.Create(ctx, familyID, models.DependentInput{Name: name})
	require.NoError(t, err)

	links := repository.NewLinkRepository(e.db)
	require.NoError(t, links.Add(ctx, dep.ID, caregiverID, models.RoleCaregiver))
	require.NoError(t, links.Add(ctx, dep.ID, professionalID, models.RoleProfessional))
	return dep.ID
}

func everyDay() []int {
	return []int{0, 1, 2, 3, 4, 5, 6}
}

func (e *env) createRoutine(t *testing.T, dependentID int64, title string, times ...string) *models.Routine {
	t.Helper()
	routine, err := e.routines.Create(context.Background(), familyID, dependentID, models.RoutineInput{
		Type:       models.RoutineMedication,
		Title:      title,
		Times:      times,
		DaysOfWeek: everyDay(),
	})
	require.NoError(t, err)
	return routine
}

func (e *env) today(t *testing.T) []models.OverviewGroup {
	t.Helper()
	groups, err := e.overview.GetTodayOverview(context.Background(), familyID, calendar.DefaultTimezone)
	require.NoError(t, err)
	return groups
}

func findItem(t *testing.T, groups []models.OverviewGroup, title, clock string) models.OverviewItem {
	t.Helper()
	for _, g := range groups {
		for _, item := range g.Items {
			if item.Title == title && item.Time == clock {
				return item
			}
		}
	}
	t.Fatalf("no overview item %q at %s", title, clock)
	return models.OverviewItem{}
}

func strPtr(s string) *string {
	return &s
}
