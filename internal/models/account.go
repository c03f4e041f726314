package models

import "time"

// User is a locally registered account
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AuditAction names what happened to an audited entity
type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// Audited entity names
const (
	EntityDependent        = "Dependent"
	EntityRoutine          = "Routine"
	EntityRoutineTimes     = "RoutineTimes"
	EntityRoutineDays      = "RoutineDays"
	EntityRoutineSchedules = "RoutineSchedules"
	EntityRoutineLogs      = "RoutineLogs"
)

// AuditEntry is an append-only record of a mutation
type AuditEntry struct {
	ID        int64                  `json:"id"`
	UserID    int64                  `json:"userId"`
	Action    AuditAction            `json:"action"`
	Entity    string                 `json:"entity"`
	EntityID  int64                  `json:"entityId"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}
