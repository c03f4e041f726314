// Package realtime fans schedule change notifications out to observers.
// Delivery is best effort: a subscriber that misses an event is expected to
// refetch on its next refresh.
package realtime

import (
	"context"
	"fmt"
)

// EventScheduleUpdated tells observers of a dependent to refetch its schedule
const EventScheduleUpdated = "schedule-updated"

// Event is the payload carried on a dependent channel. It intentionally
// carries no schedule data.
type Event struct {
	Name        string `json:"event"`
	DependentID int64  `json:"dependentId"`
}

// Channel names the per-dependent channel
func Channel(dependentID int64) string {
	return fmt.Sprintf("dep-%d", dependentID)
}

// Notifier emits schedule change notifications
type Notifier interface {
	ScheduleUpdated(ctx context.Context, dependentID int64) error
}
