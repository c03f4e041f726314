package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carelog/internal/apperror"
	"carelog/internal/calendar"
	"carelog/internal/models"
)

func TestRoutineService_CreateNormalizesInput(t *testing.T) {
	e := newEnv(t)
	dep := e.household(t, "Ana")

	routine, err := e.routines.Create(context.Background(), caregiverID, dep, models.RoutineInput{
		Type:       models.RoutineMedication,
		Title:      "Domperidona",
		Times:      []string{"20:00", "08:00", "08:00"},
		DaysOfWeek: []int{5, 1, 5},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"08:00", "20:00"}, routine.Times)
	assert.Equal(t, []int{1, 5}, routine.DaysOfWeek)
	assert.Equal(t, caregiverID, routine.CreatedBy)
	assert.True(t, routine.Active)

	count, err := e.audit.Count(context.Background(), models.EntityRoutine, routine.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRoutineService_CreateRejectsInvalidTime(t *testing.T) {
	e := newEnv(t)
	dep := e.household(t, "Ana")

	_, err := e.routines.Create(context.Background(), familyID, dep, models.RoutineInput{
		Type:       models.RoutineMedication,
		Title:      "Domperidona",
		Times:      []string{"25:00"},
		DaysOfWeek: everyDay(),
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	routines, err := e.routines.List(context.Background(), familyID, dep)
	require.NoError(t, err)
	assert.Empty(t, routines)
}

func TestRoutineService_RoleGating(t *testing.T) {
	e := newEnv(t)
	dep := e.household(t, "Ana")
	routine := e.createRoutine(t, dep, "Domperidona", "08:00")
	ctx := context.Background()

	input := models.RoutineInput{Type: models.RoutineFeeding, Title: "Lunch", Times: []string{"12:00"}, DaysOfWeek: everyDay()}

	t.Run("professional can read but not write", func(t *testing.T) {
		_, err := e.routines.List(ctx, professionalID, dep)
		assert.NoError(t, err)
		_, err = e.routines.Get(ctx, professionalID, routine.ID)
		assert.NoError(t, err)

		_, err = e.routines.Create(ctx, professionalID, dep, input)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
		_, err = e.routines.Update(ctx, professionalID, routine.ID, input)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
		err = e.routines.Delete(ctx, professionalID, routine.ID)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
	})

	t.Run("unlinked user is refused everything", func(t *testing.T) {
		_, err := e.routines.List(ctx, strangerID, dep)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
		_, err = e.routines.Get(ctx, strangerID, routine.ID)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
		_, err = e.routines.Create(ctx, strangerID, dep, input)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
	})

	t.Run("authorization is checked before validation", func(t *testing.T) {
		_, err := e.routines.Create(ctx, strangerID, dep, models.RoutineInput{Times: []string{"25:00"}})
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
	})

	t.Run("missing routine", func(t *testing.T) {
		_, err := e.routines.Get(ctx, familyID, 9999)
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})
}

func TestRoutineService_UpdatePreservesHistory(t *testing.T) {
	e := newEnv(t)
	dep := e.household(t, "Ana")
	routine := e.createRoutine(t, dep, "Domperidona", "08:00", "20:00")
	ctx := context.Background()

	groups := e.today(t)
	morning := findItem(t, groups, "Domperidona", "08:00")
	_, _, err := e.logs.Upsert(ctx, caregiverID, morning.ScheduleID, "DONE", nil)
	require.NoError(t, err)

	updated, err := e.routines.Update(ctx, familyID, routine.ID, models.RoutineInput{
		Type:       models.RoutineMedication,
		Title:      "Domperidona",
		Times:      []string{"09:00", "21:00"},
		DaysOfWeek: everyDay(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "21:00"}, updated.Times)

	groups = e.today(t)
	require.Len(t, groups, 1)
	var clocks []string
	for _, item := range groups[0].Items {
		clocks = append(clocks, item.Time)
	}
	assert.Equal(t, []string{"08:00", "09:00", "21:00"}, clocks)
	assert.True(t, findItem(t, groups, "Domperidona", "08:00").Done)
	assert.False(t, findItem(t, groups, "Domperidona", "09:00").Done)
}

func TestRoutineService_DeletePurgesFutureButKeepsDone(t *testing.T) {
	e := newEnv(t)
	dep := e.household(t, "Ana")
	routine := e.createRoutine(t, dep, "Domperidona", "08:00", "14:00", "20:00")
	ctx := context.Background()

	groups := e.today(t)
	_, _, err := e.logs.Upsert(ctx, familyID, findItem(t, groups, "Domperidona", "08:00").ScheduleID, "DONE", nil)
	require.NoError(t, err)
	skipped := findItem(t, groups, "Domperidona", "14:00").ScheduleID
	_, _, err = e.logs.Upsert(ctx, familyID, skipped, "SKIPPED", strPtr("vomited"))
	require.NoError(t, err)

	require.NoError(t, e.routines.Delete(ctx, familyID, routine.ID))

	count, err := e.schedRep.CountForRoutine(ctx, routine.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the DONE schedule survives")

	log, err := e.logRep.GetBySchedule(ctx, skipped)
	require.NoError(t, err)
	assert.Nil(t, log)

	_, err = e.routines.Get(ctx, familyID, routine.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Empty(t, e.today(t))

	for _, entity := range []string{models.EntityRoutine, models.EntityRoutineSchedules, models.EntityRoutineLogs} {
		n, err := e.audit.Count(ctx, entity, routine.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1, entity)
	}
}

func TestRoutineService_AuditFailureDoesNotFailMutation(t *testing.T) {
	sink := new(mockAuditSink)
	sink.On("Record", mock.Anything, mock.Anything).Return(errAuditDown)

	e := newEnvWithAudit(t, sink)
	dep := e.household(t, "Ana")

	routine, err := e.routines.Create(context.Background(), familyID, dep, models.RoutineInput{
		Type:       models.RoutineHygiene,
		Title:      "Bath",
		Times:      []string{"19:00"},
		DaysOfWeek: everyDay(),
	})
	require.NoError(t, err)

	stored, err := e.routineRep.GetByID(context.Background(), routine.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	sink.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(entry models.AuditEntry) bool {
		return entry.Entity == models.EntityRoutine && entry.EntityID == routine.ID
	}))
}

func TestScheduleService_ConcurrentEnsure(t *testing.T) {
	e := newEnv(t)
	dep := e.household(t, "Ana")
	e.createRoutine(t, dep, "Domperidona", "08:00", "20:00")
	today := e.resolver.ResolveToday(calendar.DefaultTimezone)

	routines, err := e.routines.FindActiveForDate(context.Background(), []int64{dep}, today)
	require.NoError(t, err)
	require.Len(t, routines, 1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var total int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := e.schedules.Ensure(context.Background(), routines, today)
			assert.NoError(t, err)
			mu.Lock()
			total += created
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2), total)
	count, err := e.schedRep.CountForRoutine(context.Background(), routines[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestScheduleService_MaterializeAll(t *testing.T) {
	e := newEnv(t)
	dep := e.household(t, "Ana")
	e.createRoutine(t, dep, "Domperidona", "08:00", "20:00")
	today := e.resolver.ServerToday()

	created, err := e.schedules.MaterializeAll(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)

	created, err = e.schedules.MaterializeAll(context.Background(), today)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestRoutineService_UpdateAuditsTimesAndDays(t *testing.T) {
	e := newEnv(t)
	dep := e.household(t, "Ana")
	routine := e.createRoutine(t, dep, "Domperidona", "08:00", "20:00")
	ctx := context.Background()

	_, err := e.routines.Update(ctx, familyID, routine.ID, models.RoutineInput{
		Type:       models.RoutineMedication,
		Title:      "Domperidona",
		Times:      []string{"09:00"},
		DaysOfWeek: []int{1, 3, 5},
	})
	require.NoError(t, err)

	for _, entity := range []string{models.EntityRoutineTimes, models.EntityRoutineDays} {
		n, err := e.audit.Count(ctx, entity, routine.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n, entity)
	}
}

func TestRoutineService_SoftDeletedIsNotFound(t *testing.T) {
	input := models.RoutineInput{Type: models.RoutineFeeding, Title: "Lunch", Times: []string{"12:00"}, DaysOfWeek: everyDay()}

	tests := []struct {
		name         string
		remove       func(t *testing.T, e *env, dep int64, routine *models.Routine)
		listNotFound bool
	}{
		{
			name: "dependent soft-deleted",
			remove: func(t *testing.T, e *env, dep int64, _ *models.Routine) {
				require.NoError(t, e.dependents.Delete(context.Background(), familyID, dep))
			},
			listNotFound: true,
		},
		{
			name: "routine soft-deleted",
			remove: func(t *testing.T, e *env, _ int64, routine *models.Routine) {
				require.NoError(t, e.routines.Delete(context.Background(), familyID, routine.ID))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			dep := e.household(t, "Ana")
			routine := e.createRoutine(t, dep, "Domperidona", "08:00")
			ctx := context.Background()

			tt.remove(t, e, dep, routine)

			routines, err := e.routines.List(ctx, caregiverID, dep)
			if tt.listNotFound {
				assert.True(t, apperror.Is(err, apperror.KindNotFound), "list: %v", err)
			} else {
				require.NoError(t, err)
				assert.Empty(t, routines)
			}

			_, err = e.routines.Get(ctx, caregiverID, routine.ID)
			assert.True(t, apperror.Is(err, apperror.KindNotFound), "get: %v", err)
			_, err = e.routines.Update(ctx, caregiverID, routine.ID, input)
			assert.True(t, apperror.Is(err, apperror.KindNotFound), "update: %v", err)
			err = e.routines.Delete(ctx, caregiverID, routine.ID)
			assert.True(t, apperror.Is(err, apperror.KindNotFound), "delete: %v", err)
			_, err = e.routines.Create(ctx, caregiverID, dep, input)
			if tt.listNotFound {
				assert.True(t, apperror.Is(err, apperror.KindNotFound), "create: %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
