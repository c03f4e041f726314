package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carelog/internal/calendar"
	"carelog/internal/database"
	"carelog/internal/models"
)

// ScheduleRepository handles materialized schedule instances
type ScheduleRepository struct {
	db database.DBTX
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db database.DBTX) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// WithTx returns a copy bound to tx
func (r *ScheduleRepository) WithTx(tx *database.Tx) *ScheduleRepository {
	return &ScheduleRepository{db: tx}
}

// ScheduleKey is the natural key of a schedule instance
type ScheduleKey struct {
	DependentID int64
	RoutineID   int64
	Date        time.Time
	Time        string
}

// EnsureMany inserts every key that does not exist yet and returns how many
// rows were created. Existing keys are skipped by the unique constraint, so
// concurrent callers racing on the same keys all succeed.
func (r *ScheduleRepository) EnsureMany(ctx context.Context, keys []ScheduleKey) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	var created int64
	err := inTx(ctx, r.db, func(q database.DBTX) error {
		query := q.GetDialect().InsertScheduleIgnore()
		now := time.Now().UTC()
		for _, key := range keys {
			res, err := q.ExecContext(ctx, query, key.DependentID, key.RoutineID,
				calendar.FormatDate(key.Date), key.Time, now)
			if err != nil {
				return fmt.Errorf("failed to insert schedule: %w", err)
			}
			n, _ := res.RowsAffected()
			created += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// GetByID retrieves a schedule instance, or nil when it does not exist
func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*models.RoutineSchedule, error) {
	query := `
		SELECT id, dependent_id, routine_id, scheduled_date, scheduled_time, created_at
		FROM routine_schedules WHERE id = ?
	`
	schedule := &models.RoutineSchedule{}
	var date string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&schedule.ID, &schedule.DependentID, &schedule.RoutineID, &date, &schedule.ScheduledTime, &schedule.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule.ScheduledDate, err = calendar.ParseDate(date); err != nil {
		return nil, fmt.Errorf("failed to parse schedule date: %w", err)
	}
	return schedule, nil
}

// ListForDate returns the schedules of the given dependents on date, each
// joined with its dependent name, its active routine and its log if any.
// Results are ordered by dependent then time of day.
func (r *ScheduleRepository) ListForDate(ctx context.Context, dependentIDs []int64, date time.Time) ([]models.ScheduleView, error) {
	if len(dependentIDs) == 0 {
		return []models.ScheduleView{}, nil
	}

	dialect := r.db.GetDialect()
	query := `
		SELECT s.id, s.dependent_id, s.routine_id, s.scheduled_date, s.scheduled_time, s.created_at,
		       d.name,
		       r.type, r.title, r.description,
		       l.id, l.status, l.notes, l.done_by, l.date_time
		FROM routine_schedules s
		INNER JOIN dependents d ON d.id = s.dependent_id
		INNER JOIN routines r ON r.id = s.routine_id
		LEFT JOIN routine_logs l ON l.schedule_id = s.id
		WHERE s.scheduled_date = ?
		  AND s.dependent_id IN (` + database.Placeholders(len(dependentIDs)) + `)
		  AND r.active = ` + dialect.BoolValue(true) + `
		ORDER BY d.name, s.dependent_id, s.scheduled_time, r.title, s.id
	`
	args := append([]interface{}{calendar.FormatDate(date)}, database.Int64Args(dependentIDs)...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	views := []models.ScheduleView{}
	for rows.Next() {
		var v models.ScheduleView
		var scheduledDate, routineType string
		var logID, doneBy sql.NullInt64
		var status sql.NullString
		var notes *string
		var loggedAt sql.NullTime

		if err := rows.Scan(
			&v.Schedule.ID, &v.Schedule.DependentID, &v.Schedule.RoutineID, &scheduledDate,
			&v.Schedule.ScheduledTime, &v.Schedule.CreatedAt,
			&v.DependentName,
			&routineType, &v.Routine.Title, &v.Routine.Description,
			&logID, &status, &notes, &doneBy, &loggedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}

		if v.Schedule.ScheduledDate, err = calendar.ParseDate(scheduledDate); err != nil {
			return nil, fmt.Errorf("failed to parse schedule date: %w", err)
		}
		v.Routine.ID = v.Schedule.RoutineID
		v.Routine.DependentID = v.Schedule.DependentID
		v.Routine.Type = models.RoutineType(routineType)
		v.Routine.Active = true

		if logID.Valid {
			v.Log = &models.RoutineLog{
				ID:         logID.Int64,
				ScheduleID: v.Schedule.ID,
				Status:     models.LogStatus(status.String),
				Notes:      notes,
				DoneBy:     doneBy.Int64,
				DateTime:   loggedAt.Time,
			}
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}
	return views, nil
}

// PurgeUnlogged deletes the routine's schedules dated on or after from that
// have no log, returning how many were removed
func (r *ScheduleRepository) PurgeUnlogged(ctx context.Context, routineID int64, from time.Time) (int64, error) {
	query := `
		DELETE FROM routine_schedules
		WHERE routine_id = ? AND scheduled_date >= ?
		  AND NOT EXISTS (SELECT 1 FROM routine_logs l WHERE l.schedule_id = routine_schedules.id)
	`
	res, err := r.db.ExecContext(ctx, query, routineID, calendar.FormatDate(from))
	if err != nil {
		return 0, fmt.Errorf("failed to purge schedules: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// PurgeSkippedLogs deletes SKIPPED logs of the routine's schedules dated on
// or after from. DONE logs are never touched.
func (r *ScheduleRepository) PurgeSkippedLogs(ctx context.Context, routineID int64, from time.Time) (int64, error) {
	query := `
		DELETE FROM routine_logs
		WHERE status = ?
		  AND schedule_id IN (
		      SELECT s.id FROM routine_schedules s
		      WHERE s.routine_id = ? AND s.scheduled_date >= ?
		  )
	`
	res, err := r.db.ExecContext(ctx, query, string(models.LogSkipped), routineID, calendar.FormatDate(from))
	if err != nil {
		return 0, fmt.Errorf("failed to purge skipped logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CountForRoutine returns the number of schedules a routine has
func (r *ScheduleRepository) CountForRoutine(ctx context.Context, routineID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM routine_schedules WHERE routine_id = ?", routineID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count schedules: %w", err)
	}
	return count, nil
}
