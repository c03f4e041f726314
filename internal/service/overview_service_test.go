package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carelog/internal/apperror"
	"carelog/internal/calendar"
	"carelog/internal/models"
	"carelog/internal/service"
)

func TestOverviewService_Domperidona(t *testing.T) {
	e := newEnv(t)
	dep := e.household(t, "Ana")
	routine := e.createRoutine(t, dep, "Domperidona", "20:00", "08:00")

	groups := e.today(t)
	require.Len(t, groups, 1)
	assert.Equal(t, dep, groups[0].DependentID)
	assert.Equal(t, "Ana", groups[0].DependentName)
	require.Len(t, groups[0].Items, 2)

	for i, clock := range []string{"08:00", "20:00"} {
		item := groups[0].Items[i]
		assert.Equal(t, clock, item.Time)
		assert.Equal(t, routine.ID, item.RoutineID)
		assert.Equal(t, models.RoutineMedication, item.Type)
		assert.False(t, item.Done)
		assert.Nil(t, item.Status)
	}

	// reading again creates nothing new
	again := e.today(t)
	assert.Equal(t, groups[0].Items[0].ScheduleID, again[0].Items[0].ScheduleID)
	count, err := e.schedRep.CountForRoutine(context.Background(), routine.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOverviewService_GroupsByDependentName(t *testing.T) {
	e := newEnv(t)
	zeca := e.household(t, "Zeca")
	ana := e.household(t, "Ana")
	e.createRoutine(t, zeca, "Vitamin D", "09:00")
	e.createRoutine(t, ana, "Domperidona", "08:00")
	e.household(t, "Bia")

	groups := e.today(t)
	require.Len(t, groups, 2, "dependents without schedules are omitted")
	assert.Equal(t, ana, groups[0].DependentID)
	assert.Equal(t, zeca, groups[1].DependentID)
}

func TestOverviewService_UsesCallerTimezone(t *testing.T) {
	// Friday 02:30 UTC is still Thursday evening in Sao Paulo
	e := buildEnv(t, time.Date(2024, 3, 15, 2, 30, 0, 0, time.UTC), nil)
	dep := e.household(t, "Ana")
	ctx := context.Background()

	for title, day := range map[string]int{"Thursday walk": 4, "Friday walk": 5} {
		_, err := e.routines.Create(ctx, familyID, dep, models.RoutineInput{
			Type: models.RoutineExercise, Title: title, Times: []string{"10:00"}, DaysOfWeek: []int{day},
		})
		require.NoError(t, err)
	}

	groups, err := e.overview.GetTodayOverview(ctx, familyID, calendar.DefaultTimezone)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Items, 1)
	assert.Equal(t, "Thursday walk", groups[0].Items[0].Title)

	groups, err = e.overview.GetTodayOverview(ctx, familyID, "UTC")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Friday walk", groups[0].Items[0].Title)

	// an unknown zone falls back to the server default
	groups, err = e.overview.GetTodayOverview(ctx, familyID, "Mars/Olympus")
	require.NoError(t, err)
	assert.Equal(t, "Thursday walk", groups[0].Items[0].Title)
}

func TestOverviewService_NoLinks(t *testing.T) {
	e := newEnv(t)

	groups, err := e.overview.GetTodayOverview(context.Background(), strangerID, "")
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroupOverview(t *testing.T) {
	notes := "ok"
	views := []models.ScheduleView{
		{Schedule: models.RoutineSchedule{ID: 1, DependentID: 7, RoutineID: 1, ScheduledTime: "08:00"}, DependentName: "Ana",
			Routine: models.Routine{Title: "A", Type: models.RoutineMedication},
			Log:     &models.RoutineLog{Status: models.LogDone, Notes: &notes, DoneBy: 2}},
		{Schedule: models.RoutineSchedule{ID: 2, DependentID: 7, RoutineID: 1, ScheduledTime: "20:00"}, DependentName: "Ana",
			Routine: models.Routine{Title: "A", Type: models.RoutineMedication}},
		{Schedule: models.RoutineSchedule{ID: 3, DependentID: 9, RoutineID: 2, ScheduledTime: "07:00"}, DependentName: "Bia",
			Routine: models.Routine{Title: "B", Type: models.RoutineFeeding}},
	}

	groups := service.GroupOverview(views)
	require.Len(t, groups, 2)
	assert.Equal(t, int64(7), groups[0].DependentID)
	require.Len(t, groups[0].Items, 2)
	assert.True(t, groups[0].Items[0].Done)
	assert.Equal(t, &notes, groups[0].Items[0].Notes)
	assert.False(t, groups[0].Items[1].Done)
	assert.Equal(t, "Bia", groups[1].DependentName)

	assert.Empty(t, service.GroupOverview(nil))
}

func TestOverviewService_StoreFailureHasStableMessage(t *testing.T) {
	e := newEnv(t)
	dep := e.household(t, "Ana")
	e.createRoutine(t, dep, "Domperidona", "08:00")
	ctx := context.Background()

	_, err := e.db.ExecContext(ctx, "DROP TABLE routine_days")
	require.NoError(t, err)

	groups, err := e.overview.GetTodayOverview(ctx, familyID, calendar.DefaultTimezone)
	assert.Nil(t, groups)
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	assert.Equal(t, "failed to build today's overview", apperror.PublicMessage(err))
}
