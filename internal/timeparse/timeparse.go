// Package timeparse is the only gateway through which free-form text from the
// conversational layer becomes timestamps and dates. Input is strict: a
// timezone-qualified ISO-8601 datetime or a plain ISO date. Ambiguous
// natural-language dates must be resolved by the agent before calling in.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/family-scheduler/internal/validation"
)

// Date is a civil calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the civil date of t in t's location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// String renders the date in ISO form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// After reports whether d is later than other.
func (d Date) After(other Date) bool {
	if d.Year != other.Year {
		return d.Year > other.Year
	}
	if d.Month != other.Month {
		return d.Month > other.Month
	}
	return d.Day > other.Day
}

// StartOfDay returns 00:00:00 of the date in loc.
func (d Date) StartOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999999 of the date in loc, the inclusive upper
// bound used for day and period windows.
func (d Date) EndOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 999999000, loc)
}

// ParseDateTime accepts only an ISO-8601 datetime string with an explicit
// offset ("Z" is treated as +00:00) and converts the result to loc. Anything
// else fails with a validation error naming the offending field.
func ParseDateTime(field, raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, datetimeError(field)
	}

	// time.Parse with RFC3339 already demands an explicit offset; a bare
	// local datetime like "2026-01-07T21:00:00" does not match the layout.
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, datetimeError(field)
	}
	return t.In(loc), nil
}

// ParseDate accepts only an ISO "YYYY-MM-DD" string.
func ParseDate(field, raw string) (Date, error) {
	value := strings.TrimSpace(raw)
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return Date{}, validation.NewErrorf(field,
			"must be an ISO date string, for example: %q", "2026-01-07")
	}
	return DateOf(t), nil
}

// ParseClock accepts only an "HH:MM" time-of-day string (00-23 / 00-59).
func ParseClock(field, raw string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, 0, clockError(field)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, clockError(field)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, clockError(field)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, clockError(field)
	}
	return hour, minute, nil
}

func datetimeError(field string) error {
	return validation.NewErrorf(field,
		"must be an ISO datetime string with a timezone offset, for example: %q",
		"2026-01-07T21:00:00+03:00")
}

func clockError(field string) error {
	return validation.NewError(field, `must be a time of day in "HH:MM" format`)
}
