package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveToday(t *testing.T) {
	instant := time.Date(2024, 3, 15, 2, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		timezone string
		want     string
	}{
		{name: "sao paulo is still the previous day", timezone: "America/Sao_Paulo", want: "2024-03-14"},
		{name: "utc", timezone: "UTC", want: "2024-03-15"},
		{name: "tokyo is ahead", timezone: "Asia/Tokyo", want: "2024-03-15"},
		{name: "empty falls back to default", timezone: "", want: "2024-03-14"},
		{name: "invalid falls back to default", timezone: "Mars/Olympus_Mons", want: "2024-03-14"},
		{name: "host zone falls back to default", timezone: "Local", want: "2024-03-14"},
	}

	resolver := NewResolver(Fixed(instant), DefaultTimezone)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.ResolveToday(tt.timezone)
			assert.Equal(t, tt.want, FormatDate(got))
			assert.Equal(t, time.UTC, got.Location())
			assert.Zero(t, got.Hour())
		})
	}
}

func TestLocationRejectsHostZone(t *testing.T) {
	resolver := NewResolver(Fixed(time.Now()), DefaultTimezone)

	for _, name := range []string{"Local", "local"} {
		loc := resolver.Location(name)
		assert.Equal(t, DefaultTimezone, loc.String(), name)
	}
	assert.Equal(t, "Asia/Tokyo", resolver.Location("Asia/Tokyo").String())
}

func TestServerTodayIgnoresCallerZone(t *testing.T) {
	instant := time.Date(2024, 3, 15, 2, 30, 0, 0, time.UTC)
	resolver := NewResolver(Fixed(instant), "Pacific/Honolulu")

	assert.Equal(t, "2024-03-15", FormatDate(resolver.ServerToday()))
	assert.Equal(t, "2024-03-14", FormatDate(resolver.ResolveToday("")))
}

func TestNewResolverWithBadFallback(t *testing.T) {
	instant := time.Date(2024, 3, 15, 2, 30, 0, 0, time.UTC)
	resolver := NewResolver(Fixed(instant), "Not/AZone")

	assert.Equal(t, "2024-03-14", FormatDate(resolver.ResolveToday("")))
}

func TestWeekday(t *testing.T) {
	date, err := ParseDate("2024-03-14")
	require.NoError(t, err)
	assert.Equal(t, 4, Weekday(date))

	sunday, err := ParseDate("2024-03-17")
	require.NoError(t, err)
	assert.Equal(t, 0, Weekday(sunday))
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("2024-02-30")
	assert.Error(t, err)

	_, err = ParseDate("14/03/2024")
	assert.Error(t, err)

	date, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, date.Location())
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input  string
		valid  bool
		hour   int
		minute int
	}{
		{"00:00", true, 0, 0},
		{"07:00", true, 7, 0},
		{"23:59", true, 23, 59},
		{"24:00", false, 0, 0},
		{"25:00", false, 0, 0},
		{"12:60", false, 0, 0},
		{"7:00", false, 0, 0},
		{"07:0", false, 0, 0},
		{"07-00", false, 0, 0},
		{"ab:cd", false, 0, 0},
		{"", false, 0, 0},
		{" 07:00", false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			hour, minute, ok := ParseClock(tt.input)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.hour, hour)
				assert.Equal(t, tt.minute, minute)
			}
			assert.Equal(t, tt.valid, ValidClock(tt.input))
		})
	}
}
