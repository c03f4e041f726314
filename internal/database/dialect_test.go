package database

import (
	"strings"
	"testing"
)

func TestDialectBasics(t *testing.T) {
	tests := []struct {
		name                 string
		dialect              Dialect
		driver               string
		subdir               string
		supportsLastInsertID bool
	}{
		{"SQLite", NewSQLiteDialect(), "sqlite3", "sqlite", true},
		{"PostgreSQL", NewPostgresDialect(), "postgres", "postgres", false},
		{"MySQL", NewMySQLDialect(), "mysql", "mysql", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.subdir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.subdir)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.supportsLastInsertID {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.supportsLastInsertID)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM routines WHERE id = ?",
			expected: "SELECT * FROM routines WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM routines WHERE id = ?",
			expected: "SELECT * FROM routines WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO routine_times (routine_id, clock_time) VALUES (?, ?)",
			expected: "INSERT INTO routine_times (routine_id, clock_time) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE routines SET title = ?, type = ? WHERE id = ?",
			expected: "UPDATE routines SET title = ?, type = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestPostgresRewritesUpsertPlaceholders(t *testing.T) {
	d := NewPostgresDialect()

	got := d.RewriteQuery(d.UpsertRoutineLog())
	if !strings.Contains(got, "VALUES ($1, $2, $3, $4, $5)") {
		t.Errorf("upsert placeholders not rewritten: %s", got)
	}
	if strings.Contains(got, "?") {
		t.Errorf("upsert still contains ? placeholders: %s", got)
	}
}

func TestConflictClauses(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		schedule string
		log      string
	}{
		{"SQLite", NewSQLiteDialect(), "DO NOTHING", "ON CONFLICT (schedule_id) DO UPDATE"},
		{"PostgreSQL", NewPostgresDialect(), "DO NOTHING", "ON CONFLICT (schedule_id) DO UPDATE"},
		{"MySQL", NewMySQLDialect(), "ON DUPLICATE KEY UPDATE id = id", "status = VALUES(status)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.dialect.InsertScheduleIgnore(), tt.schedule) {
				t.Errorf("InsertScheduleIgnore() missing %q", tt.schedule)
			}
			if !strings.Contains(tt.dialect.UpsertRoutineLog(), tt.log) {
				t.Errorf("UpsertRoutineLog() missing %q", tt.log)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		config   DialectConfig
		expected string
	}{
		{
			name:     "SQLite adds pragmas",
			dialect:  NewSQLiteDialect(),
			config:   DialectConfig{Path: "./carelog.db"},
			expected: "./carelog.db?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on",
		},
		{
			name:     "SQLite keeps explicit options",
			dialect:  NewSQLiteDialect(),
			config:   DialectConfig{Path: "file:test.db?_busy_timeout=100"},
			expected: "file:test.db?_busy_timeout=100&_txlock=immediate&_foreign_keys=on",
		},
		{
			name:     "MySQL parses time",
			dialect:  NewMySQLDialect(),
			config:   DialectConfig{URL: "user:pass@tcp(localhost:3306)/carelog"},
			expected: "user:pass@tcp(localhost:3306)/carelog?parseTime=true",
		},
		{
			name:     "PostgreSQL unchanged",
			dialect:  NewPostgresDialect(),
			config:   DialectConfig{URL: "postgres://localhost/carelog?sslmode=disable"},
			expected: "postgres://localhost/carelog?sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DSN(tt.config); got != tt.expected {
				t.Errorf("DSN() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(3); got != "?, ?, ?" {
		t.Errorf("Placeholders(3) = %q", got)
	}
	if got := Placeholders(0); got != "" {
		t.Errorf("Placeholders(0) = %q", got)
	}
}

func TestSplitStatements(t *testing.T) {
	content := `-- header comment
CREATE TABLE a (
    id INTEGER
);

CREATE INDEX idx_a ON a(id);
`
	got := SplitStatements(content)
	if len(got) != 2 {
		t.Fatalf("SplitStatements() returned %d statements, want 2: %q", len(got), got)
	}
	if !strings.HasPrefix(got[0], "CREATE TABLE a") || strings.HasSuffix(got[0], ";") {
		t.Errorf("unexpected first statement %q", got[0])
	}
}

func TestDialectFor(t *testing.T) {
	if _, _, err := DialectFor("oracle", "", ""); err == nil {
		t.Error("expected error for unsupported database type")
	}
	d, cfg, err := DialectFor("", "", "x.db")
	if err != nil {
		t.Fatalf("DialectFor() error = %v", err)
	}
	if d.DriverName() != "sqlite3" || cfg.Path != "x.db" {
		t.Errorf("DialectFor(\"\") = %s %+v", d.DriverName(), cfg)
	}
}
