package models

import "time"

// RoutineType categorizes a routine
type RoutineType string

const (
	RoutineMedication RoutineType = "MEDICATION"
	RoutineFeeding    RoutineType = "FEEDING"
	RoutineTherapy    RoutineType = "THERAPY"
	RoutineHygiene    RoutineType = "HYGIENE"
	RoutineExercise   RoutineType = "EXERCISE"
	RoutineOther      RoutineType = "OTHER"
)

// RoutineTypes lists every accepted routine type
var RoutineTypes = []RoutineType{
	RoutineMedication, RoutineFeeding, RoutineTherapy, RoutineHygiene, RoutineExercise, RoutineOther,
}

// Valid reports whether t is a known routine type
func (t RoutineType) Valid() bool {
	for _, known := range RoutineTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Routine is a recurring care task. Times are HH:mm strings and
// DaysOfWeek are 0 (Sunday) through 6, both sorted and unique.
type Routine struct {
	ID          int64       `json:"id"`
	DependentID int64       `json:"dependentId"`
	Type        RoutineType `json:"type"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	Active      bool        `json:"active"`
	CreatedBy   int64       `json:"createdBy"`
	Times       []string    `json:"times"`
	DaysOfWeek  []int       `json:"daysOfWeek"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// RunsOn reports whether the routine is scheduled on weekday
func (r *Routine) RunsOn(weekday int) bool {
	for _, d := range r.DaysOfWeek {
		if d == weekday {
			return true
		}
	}
	return false
}

// RoutineInput carries the caller-supplied fields of a routine create or update
type RoutineInput struct {
	DependentID int64       `json:"dependentId" validate:"required,gt=0"`
	Type        RoutineType `json:"type" validate:"required,oneof=MEDICATION FEEDING THERAPY HYGIENE EXERCISE OTHER"`
	Title       string      `json:"title" validate:"required,max=200"`
	Description *string     `json:"description" validate:"omitempty,max=2000"`
	Times       []string    `json:"times" validate:"required,min=1,dive,hhmm"`
	DaysOfWeek  []int       `json:"daysOfWeek" validate:"required,min=1,dive,min=0,max=6"`
}

// RoutineSchedule is one concrete occurrence of a routine on a date at a time
type RoutineSchedule struct {
	ID            int64     `json:"id"`
	DependentID   int64     `json:"dependentId"`
	RoutineID     int64     `json:"routineId"`
	ScheduledDate time.Time `json:"scheduledDate"`
	ScheduledTime string    `json:"scheduledTime"`
	CreatedAt     time.Time `json:"createdAt"`
}
