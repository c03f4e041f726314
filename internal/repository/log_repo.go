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

// LogRepository handles routine logs. A schedule has at most one log.
type LogRepository struct {
	db database.DBTX
}

// NewLogRepository creates a new log repository
func NewLogRepository(db database.DBTX) *LogRepository {
	return &LogRepository{db: db}
}

// WithTx returns a copy bound to tx
func (r *LogRepository) WithTx(tx *database.Tx) *LogRepository {
	return &LogRepository{db: tx}
}

// Upsert writes the log of a schedule in a single statement, creating it or
// overwriting status, notes, author and timestamp. Concurrent writers
// resolve to the last one committed. The log is read back after the write
// and is nil when a concurrent delete removed it in between.
func (r *LogRepository) Upsert(ctx context.Context, scheduleID int64, status models.LogStatus, notes *string, doneBy int64, at time.Time) (*models.RoutineLog, error) {
	query := r.db.GetDialect().UpsertRoutineLog()
	if _, err := r.db.ExecContext(ctx, query, scheduleID, string(status), notes, doneBy, at.UTC()); err != nil {
		return nil, fmt.Errorf("failed to upsert routine log: %w", err)
	}

	return r.GetBySchedule(ctx, scheduleID)
}

// GetBySchedule returns the log of a schedule, or nil when it has none
func (r *LogRepository) GetBySchedule(ctx context.Context, scheduleID int64) (*models.RoutineLog, error) {
	query := `
		SELECT id, schedule_id, status, notes, done_by, date_time
		FROM routine_logs WHERE schedule_id = ?
	`
	log := &models.RoutineLog{}
	var status string
	err := r.db.QueryRowContext(ctx, query, scheduleID).Scan(
		&log.ID, &log.ScheduleID, &status, &log.Notes, &log.DoneBy, &log.DateTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get routine log: %w", err)
	}
	log.Status = models.LogStatus(status)
	return log, nil
}

// DeleteBySchedule removes the log of a schedule and reports whether one existed
func (r *LogRepository) DeleteBySchedule(ctx context.Context, scheduleID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM routine_logs WHERE schedule_id = ?", scheduleID)
	if err != nil {
		return false, fmt.Errorf("failed to delete routine log: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListByRoutine returns every log of a routine's schedules, newest first
func (r *LogRepository) ListByRoutine(ctx context.Context, routineID int64) ([]models.RoutineLogEntry, error) {
	query := `
		SELECT l.id, l.schedule_id, l.status, l.notes, l.done_by, l.date_time,
		       s.scheduled_date, s.scheduled_time
		FROM routine_logs l
		INNER JOIN routine_schedules s ON s.id = l.schedule_id
		WHERE s.routine_id = ?
		ORDER BY l.date_time DESC, l.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, routineID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routine logs: %w", err)
	}
	defer rows.Close()

	entries := []models.RoutineLogEntry{}
	for rows.Next() {
		var entry models.RoutineLogEntry
		var status, date string
		if err := rows.Scan(&entry.ID, &entry.ScheduleID, &status, &entry.Notes, &entry.DoneBy, &entry.DateTime,
			&date, &entry.ScheduledTime); err != nil {
			return nil, fmt.Errorf("failed to scan routine log: %w", err)
		}
		entry.Status = models.LogStatus(status)
		if entry.ScheduledDate, err = calendar.ParseDate(date); err != nil {
			return nil, fmt.Errorf("failed to parse schedule date: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routine logs: %w", err)
	}
	return entries, nil
}
