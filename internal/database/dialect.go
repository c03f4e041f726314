package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// BoolValue returns the SQL representation of a boolean value
	BoolValue(b bool) string

	// InsertScheduleIgnore inserts one schedule row and silently skips it
	// when the (dependent, routine, date, time) tuple already exists
	InsertScheduleIgnore() string

	// UpsertRoutineLog writes the log of a schedule, replacing any existing one
	UpsertRoutineLog() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders not inside quotes
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// Placeholders returns n comma separated ? placeholders for an IN clause
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Int64Args converts ids to query arguments
func Int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// appendDSNParams adds key=value pairs that are not already present in dsn
func appendDSNParams(dsn string, params ...string) string {
	for i := 0; i+1 < len(params); i += 2 {
		key := params[i]
		if strings.Contains(dsn, key+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + key + "=" + params[i+1]
	}
	return dsn
}

const insertScheduleColumns = `INSERT INTO routine_schedules (dependent_id, routine_id, scheduled_date, scheduled_time, created_at)
	VALUES (?, ?, ?, ?, ?)`

const upsertLogColumns = `INSERT INTO routine_logs (schedule_id, status, notes, done_by, date_time)
	VALUES (?, ?, ?, ?, ?)`

// onConflictStatements serve both SQLite and PostgreSQL, which share the syntax
const (
	onConflictInsertSchedule = insertScheduleColumns + `
	ON CONFLICT (dependent_id, routine_id, scheduled_date, scheduled_time) DO NOTHING`

	onConflictUpsertLog = upsertLogColumns + `
	ON CONFLICT (schedule_id) DO UPDATE SET
		status = excluded.status,
		notes = excluded.notes,
		done_by = excluded.done_by,
		date_time = excluded.date_time`
)
