package utils

import (
	"time"
)

// time.go - time helpers shared by the expression evaluator's date/time
// conditions (isAfterDate, isBeforeTime, ...) and the aggressive-entry
// command's wall-clock time limit.

// ParseDateUTC parses a "YYYY-MM-DD" literal as a day-precision UTC instant
// (00:00:00). Used by the date conditions, which compare at day precision.
func ParseDateUTC(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

// ParseTimeOfDayUTC parses an "HH:mm" literal and anchors it to today's date
// in UTC. Used by the time-of-day conditions (isAfterTime/isBeforeTime),
// which always compare against "now" on the current UTC day.
func ParseTimeOfDayUTC(s string) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// DayStartUTC truncates t to 00:00:00 UTC of the same calendar day.
func DayStartUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDayUTC reports whether a and b fall on the same UTC calendar day.
func SameDayUTC(a, b time.Time) bool {
	return DayStartUTC(a).Equal(DayStartUTC(b))
}

// UnixMillis returns the current time in Unix milliseconds; used by
// aggressiveEntry to compare its timeLimit against epoch-ms wall clock time.
func UnixMillis() int64 {
	return time.Now().UnixMilli()
}

// FromUnixMillis converts Unix milliseconds back to a UTC time.Time.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatDuration renders a duration the way log lines and notifications
// display wait/poll intervals: the shortest unit-suffixed Go duration string.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	return d.String()
}
