package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"carelog/internal/database"
	"carelog/internal/models"
)

// RoutineRepository handles routines together with their times and days
type RoutineRepository struct {
	db database.DBTX
}

// NewRoutineRepository creates a new routine repository
func NewRoutineRepository(db database.DBTX) *RoutineRepository {
	return &RoutineRepository{db: db}
}

// WithTx returns a copy bound to tx
func (r *RoutineRepository) WithTx(tx *database.Tx) *RoutineRepository {
	return &RoutineRepository{db: tx}
}

const routineColumns = `r.id, r.dependent_id, r.type, r.title, r.description, r.active, r.created_by, r.created_at, r.updated_at`

// Create inserts a routine with its times and days atomically
func (r *RoutineRepository) Create(ctx context.Context, routine *models.Routine) (*models.Routine, error) {
	var id int64
	err := inTx(ctx, r.db, func(q database.DBTX) error {
		query := `
			INSERT INTO routines (dependent_id, type, title, description, active, created_by)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		var err error
		id, err = q.ExecReturningID(ctx, query, routine.DependentID, string(routine.Type),
			routine.Title, routine.Description, true, routine.CreatedBy)
		if err != nil {
			return fmt.Errorf("failed to create routine: %w", err)
		}
		return insertChildren(ctx, q, id, routine.Times, routine.DaysOfWeek)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func insertChildren(ctx context.Context, q database.DBTX, routineID int64, times []string, days []int) error {
	for _, clock := range times {
		if _, err := q.ExecContext(ctx, "INSERT INTO routine_times (routine_id, clock_time) VALUES (?, ?)", routineID, clock); err != nil {
			return fmt.Errorf("failed to add routine time %s: %w", clock, err)
		}
	}
	for _, day := range days {
		if _, err := q.ExecContext(ctx, "INSERT INTO routine_days (routine_id, day_of_week) VALUES (?, ?)", routineID, day); err != nil {
			return fmt.Errorf("failed to add routine day %d: %w", day, err)
		}
	}
	return nil
}

// ChildCounts reports how many child rows an update or delete replaced
type ChildCounts struct {
	Times int64
	Days  int64
}

// Update replaces the routine's fields and, wholesale, its times and days.
// The caller is expected to pass a transaction-bound repository.
func (r *RoutineRepository) Update(ctx context.Context, routine *models.Routine) (ChildCounts, error) {
	var counts ChildCounts
	err := inTx(ctx, r.db, func(q database.DBTX) error {
		query := `
			UPDATE routines SET type = ?, title = ?, description = ?, updated_at = ?
			WHERE id = ?
		`
		if _, err := q.ExecContext(ctx, query, string(routine.Type), routine.Title, routine.Description,
			time.Now().UTC(), routine.ID); err != nil {
			return fmt.Errorf("failed to update routine: %w", err)
		}

		var err error
		counts, err = deleteChildren(ctx, q, routine.ID)
		if err != nil {
			return err
		}
		return insertChildren(ctx, q, routine.ID, routine.Times, routine.DaysOfWeek)
	})
	return counts, err
}

func deleteChildren(ctx context.Context, q database.DBTX, routineID int64) (ChildCounts, error) {
	var counts ChildCounts

	res, err := q.ExecContext(ctx, "DELETE FROM routine_times WHERE routine_id = ?", routineID)
	if err != nil {
		return counts, fmt.Errorf("failed to delete routine times: %w", err)
	}
	counts.Times, _ = res.RowsAffected()

	res, err = q.ExecContext(ctx, "DELETE FROM routine_days WHERE routine_id = ?", routineID)
	if err != nil {
		return counts, fmt.Errorf("failed to delete routine days: %w", err)
	}
	counts.Days, _ = res.RowsAffected()

	return counts, nil
}

// Deactivate soft-deletes a routine. Times and days are kept so the
// routine's history can still be rendered.
func (r *RoutineRepository) Deactivate(ctx context.Context, id int64) error {
	query := "UPDATE routines SET active = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, false, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to deactivate routine: %w", err)
	}
	return nil
}

// GetByID retrieves a routine with its times and days, including inactive ones
func (r *RoutineRepository) GetByID(ctx context.Context, id int64) (*models.Routine, error) {
	query := "SELECT " + routineColumns + " FROM routines r WHERE r.id = ?"
	routine, err := scanRoutine(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get routine: %w", err)
	}

	routines := []models.Routine{*routine}
	if err := r.loadChildren(ctx, routines); err != nil {
		return nil, err
	}
	return &routines[0], nil
}

// ListByDependent returns the active routines of a dependent ordered by title
func (r *RoutineRepository) ListByDependent(ctx context.Context, dependentID int64) ([]models.Routine, error) {
	query := "SELECT " + routineColumns + `
		FROM routines r
		WHERE r.dependent_id = ? AND r.active = ?
		ORDER BY r.title, r.id
	`
	return r.queryRoutines(ctx, query, dependentID, true)
}

// FindActiveForDay returns the active routines of the given active
// dependents that run on weekday (0 = Sunday)
func (r *RoutineRepository) FindActiveForDay(ctx context.Context, dependentIDs []int64, weekday int) ([]models.Routine, error) {
	if len(dependentIDs) == 0 {
		return []models.Routine{}, nil
	}
	query := "SELECT " + routineColumns + `
		FROM routines r
		INNER JOIN dependents d ON d.id = r.dependent_id
		WHERE r.dependent_id IN (` + database.Placeholders(len(dependentIDs)) + `)
		  AND r.active = ? AND d.active = ?
		  AND EXISTS (SELECT 1 FROM routine_days rd WHERE rd.routine_id = r.id AND rd.day_of_week = ?)
		ORDER BY r.dependent_id, r.id
	`
	args := append(database.Int64Args(dependentIDs), true, true, weekday)
	return r.queryRoutines(ctx, query, args...)
}

// FindAllActiveForDay returns every active routine of every active dependent
// that runs on weekday
func (r *RoutineRepository) FindAllActiveForDay(ctx context.Context, weekday int) ([]models.Routine, error) {
	query := "SELECT " + routineColumns + `
		FROM routines r
		INNER JOIN dependents d ON d.id = r.dependent_id
		WHERE r.active = ? AND d.active = ?
		  AND EXISTS (SELECT 1 FROM routine_days rd WHERE rd.routine_id = r.id AND rd.day_of_week = ?)
		ORDER BY r.dependent_id, r.id
	`
	return r.queryRoutines(ctx, query, true, true, weekday)
}

// FindDueAt returns the active routines that run on weekday at clock (HH:mm)
func (r *RoutineRepository) FindDueAt(ctx context.Context, weekday int, clock string) ([]models.Routine, error) {
	query := "SELECT " + routineColumns + `
		FROM routines r
		INNER JOIN dependents d ON d.id = r.dependent_id
		WHERE r.active = ? AND d.active = ?
		  AND EXISTS (SELECT 1 FROM routine_days rd WHERE rd.routine_id = r.id AND rd.day_of_week = ?)
		  AND EXISTS (SELECT 1 FROM routine_times rt WHERE rt.routine_id = r.id AND rt.clock_time = ?)
		ORDER BY r.dependent_id, r.id
	`
	return r.queryRoutines(ctx, query, true, true, weekday, clock)
}

func (r *RoutineRepository) queryRoutines(ctx context.Context, query string, args ...interface{}) ([]models.Routine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query routines: %w", err)
	}
	defer rows.Close()

	routines := []models.Routine{}
	for rows.Next() {
		routine, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan routine: %w", err)
		}
		routines = append(routines, *routine)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routines: %w", err)
	}

	if err := r.loadChildren(ctx, routines); err != nil {
		return nil, err
	}
	return routines, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoutine(row rowScanner) (*models.Routine, error) {
	routine := &models.Routine{}
	var routineType string
	err := row.Scan(&routine.ID, &routine.DependentID, &routineType, &routine.Title, &routine.Description,
		&routine.Active, &routine.CreatedBy, &routine.CreatedAt, &routine.UpdatedAt)
	if err != nil {
		return nil, err
	}
	routine.Type = models.RoutineType(routineType)
	return routine, nil
}

// loadChildren fills times and days of every routine with one query per child table
func (r *RoutineRepository) loadChildren(ctx context.Context, routines []models.Routine) error {
	if len(routines) == 0 {
		return nil
	}

	index := make(map[int64]int, len(routines))
	ids := make([]int64, 0, len(routines))
	for i := range routines {
		routines[i].Times = []string{}
		routines[i].DaysOfWeek = []int{}
		index[routines[i].ID] = i
		ids = append(ids, routines[i].ID)
	}
	in := database.Placeholders(len(ids))

	rows, err := r.db.QueryContext(ctx,
		"SELECT routine_id, clock_time FROM routine_times WHERE routine_id IN ("+in+") ORDER BY clock_time",
		database.Int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("failed to query routine times: %w", err)
	}
	for rows.Next() {
		var routineID int64
		var clock string
		if err := rows.Scan(&routineID, &clock); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan routine time: %w", err)
		}
		i := index[routineID]
		routines[i].Times = append(routines[i].Times, clock)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate routine times: %w", err)
	}

	rows, err = r.db.QueryContext(ctx,
		"SELECT routine_id, day_of_week FROM routine_days WHERE routine_id IN ("+in+")",
		database.Int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("failed to query routine days: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var routineID int64
		var day int
		if err := rows.Scan(&routineID, &day); err != nil {
			return fmt.Errorf("failed to scan routine day: %w", err)
		}
		i := index[routineID]
		routines[i].DaysOfWeek = append(routines[i].DaysOfWeek, day)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate routine days: %w", err)
	}

	for i := range routines {
		sort.Ints(routines[i].DaysOfWeek)
	}
	return nil
}
