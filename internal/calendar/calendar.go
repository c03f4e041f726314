// Package calendar resolves calendar dates independently of the server
// clock's zone. Dates are represented as UTC-midnight time.Time values.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	// Embedded zone database so LoadLocation works in minimal containers
	_ "time/tzdata"
)

// DefaultTimezone is used when a caller sends no zone or an unknown one
const DefaultTimezone = "America/Sao_Paulo"

// DateLayout is the storage and wire format of a calendar date
const DateLayout = "2006-01-02"

// Clock abstracts the current time so tests can pin it
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns the wall clock
func Real() Clock { return realClock{} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// Fixed returns a clock frozen at t
func Fixed(t time.Time) Clock { return fixedClock{t: t} }

// Resolver computes "today" for a timezone
type Resolver struct {
	clock    Clock
	fallback *time.Location
}

// NewResolver creates a resolver. An unusable fallback zone degrades to
// DefaultTimezone and then to UTC.
func NewResolver(clock Clock, fallbackTimezone string) *Resolver {
	if clock == nil {
		clock = Real()
	}
	loc, err := loadLocation(fallbackTimezone)
	if err != nil {
		loc, err = loadLocation(DefaultTimezone)
		if err != nil {
			loc = time.UTC
		}
	}
	return &Resolver{clock: clock, fallback: loc}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("empty timezone")
	}
	// LoadLocation maps "Local" to the host zone, which is not an IANA name
	if strings.EqualFold(name, "Local") {
		return nil, fmt.Errorf("timezone %q is not an IANA name", name)
	}
	return time.LoadLocation(name)
}

// Location returns the zone for name, or the fallback if name is empty or invalid
func (r *Resolver) Location(name string) *time.Location {
	loc, err := loadLocation(name)
	if err != nil {
		return r.fallback
	}
	return loc
}

// Now returns the resolver's current instant
func (r *Resolver) Now() time.Time {
	return r.clock.Now()
}

// ResolveToday returns the calendar date currently observed in timezone
func (r *Resolver) ResolveToday(timezone string) time.Time {
	return DateOf(r.clock.Now().In(r.Location(timezone)))
}

// ServerToday returns the current UTC calendar date
func (r *Resolver) ServerToday() time.Time {
	return DateOf(r.clock.Now().UTC())
}

// DateOf drops the time of day of t, keeping its calendar fields as seen
// in t's own location
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Weekday returns 0 (Sunday) through 6 (Saturday) for a date
func Weekday(date time.Time) int {
	return int(date.Weekday())
}

// FormatDate renders a date as YYYY-MM-DD
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// ParseDate parses YYYY-MM-DD into a UTC-midnight date
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseClock parses a strict HH:mm clock time (00:00 to 23:59)
func ParseClock(s string) (hour, minute int, ok bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, 0, false
		}
	}
	hour, _ = strconv.Atoi(s[:2])
	minute, _ = strconv.Atoi(s[3:])
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// ValidClock reports whether s is a strict HH:mm clock time
func ValidClock(s string) bool {
	_, _, ok := ParseClock(s)
	return ok
}

// ClockOf renders the HH:mm of t in its own location
func ClockOf(t time.Time) string {
	return t.Format("15:04")
}
