package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical calendar-date layout used on the wire and in keys
const Layout = "2006-01-02"

// Date returns the civil date y-m-d at midnight UTC.
// All day records use UTC midnight so that dates compare and hash consistently.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns the civil date of t (its own location) as midnight UTC
func StartOfDay(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// StartOfMonth returns the first day of the month containing t
func StartOfMonth(year int, month time.Month) time.Time {
	return Date(year, month, 1)
}

// EndOfMonth returns the last day of the given month
func EndOfMonth(year int, month time.Month) time.Time {
	return Date(year, month+1, 0)
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	return EndOfMonth(year, month).Day()
}

// GetWeekNumber returns the ISO week number for the given date
func GetWeekNumber(date time.Time) (year int, week int) {
	year, week = date.ISOWeek()
	return
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// InMonth reports whether date falls in (year, month)
func InMonth(date time.Time, year int, month time.Month) bool {
	return date.Year() == year && date.Month() == month
}

// Format formats a date as YYYY-MM-DD
func Format(date time.Time) string {
	return date.Format(Layout)
}

// ParseDate parses a date string in the supported formats and returns it as
// midnight UTC. Time-of-day components are dropped.
func ParseDate(dateStr string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"02.01.2006",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}

	dateStr = strings.TrimSpace(dateStr)
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return StartOfDay(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", dateStr)
}

// ParseMonth parses "YYYY-MM" into a year and month
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("unrecognized month %q (want YYYY-MM)", s)
	}
	return t.Year(), t.Month(), nil
}

// Today returns today's civil date in the local zone, as midnight UTC
func Today() time.Time {
	return StartOfDay(time.Now())
}
