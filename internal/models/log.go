package models

import "time"

// LogStatus is the outcome recorded for a schedule
type LogStatus string

const (
	LogDone    LogStatus = "DONE"
	LogSkipped LogStatus = "SKIPPED"
)

// Valid reports whether s is a known status
func (s LogStatus) Valid() bool {
	return s == LogDone || s == LogSkipped
}

// RoutineLog records what happened to one schedule. A schedule has at most one.
type RoutineLog struct {
	ID         int64     `json:"id"`
	ScheduleID int64     `json:"scheduleId"`
	Status     LogStatus `json:"status"`
	Notes      *string   `json:"notes"`
	DoneBy     int64     `json:"doneBy"`
	DateTime   time.Time `json:"dateTime"`
}

// RoutineLogEntry is a log together with the slot it belongs to
type RoutineLogEntry struct {
	RoutineLog
	ScheduledDate time.Time `json:"scheduledDate"`
	ScheduledTime string    `json:"scheduledTime"`
}

// OverviewItem is one schedule of today's overview
type OverviewItem struct {
	ScheduleID  int64       `json:"scheduleId"`
	RoutineID   int64       `json:"routineId"`
	Title       string      `json:"title"`
	Type        RoutineType `json:"type"`
	Description *string     `json:"description"`
	Time        string      `json:"time"`
	Done        bool        `json:"done"`
	Status      *LogStatus  `json:"status"`
	Notes       *string     `json:"notes"`
	DoneBy      *int64      `json:"doneBy"`
}

// OverviewGroup collects the overview items of one dependent
type OverviewGroup struct {
	DependentID   int64          `json:"dependentId"`
	DependentName string         `json:"dependentName"`
	Items         []OverviewItem `json:"items"`
}

// ScheduleView is a schedule joined with its routine, dependent and log
type ScheduleView struct {
	Schedule      RoutineSchedule
	DependentName string
	Routine       Routine
	Log           *RoutineLog
}
