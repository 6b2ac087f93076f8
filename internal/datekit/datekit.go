// Package datekit holds the calendar-date and clock-time helpers shared by the
// scheduling packages.
//
// Dates are naive: a "2024-01-05" key is a plain calendar day and is never
// converted across timezones. Internally dates are carried as midnight UTC so
// that day arithmetic is unaffected by daylight-saving transitions.
package datekit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical date key format. Lexical order equals chronological order.
const Layout = "2006-01-02"

var (
	// ErrInvalidTimeFormat is returned for clock strings that are not HH:MM.
	ErrInvalidTimeFormat = errors.New("invalid time format")
	// ErrInvalidDate is returned for strings that are not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
)

// WeekStart selects the first day of a week.
type WeekStart int

const (
	WeekStartSunday WeekStart = 0
	WeekStartMonday WeekStart = 1
)

// Clock supplies the current instant.
type Clock func() time.Time

// SystemClock reads the local wall clock.
func SystemClock() time.Time { return time.Now() }

// FormatDate returns the YYYY-MM-DD key for the wall-clock date of t.
func FormatDate(t time.Time) string {
	return t.Format(Layout)
}

// ParseDate parses a YYYY-MM-DD key into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Today returns the date key for now in now's own location.
func Today(now time.Time) string {
	return FormatDate(now)
}

// Midnight strips the clock from t, keeping its wall-clock date, in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseClockTime converts "HH:MM" to minutes since midnight.
func ParseClockTime(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 || !isDigits(hh) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 || !isDigits(mm) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return hour*60 + minute, nil
}

// FormatClockTime renders minutes since midnight as HH:MM. Values outside a
// single day wrap around.
func FormatClockTime(minutes int) string {
	minutes = ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// IsSameDate reports whether a and b fall on the same calendar date.
func IsSameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DayLabel returns "Today" or "Tomorrow" for date relative to today, and ""
// otherwise (including for unparsable input).
func DayLabel(date, today string) string {
	if date == today {
		return "Today"
	}
	if next, err := AddDays(today, 1); err == nil && date == next {
		return "Tomorrow"
	}
	return ""
}

// WeekOfYear returns the ISO-8601 week number.
func WeekOfYear(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

// StartOfWeek returns the first day of the week containing t.
func StartOfWeek(t time.Time, ws WeekStart) time.Time {
	d := Midnight(t)
	offset := (int(d.Weekday()) - int(ws) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// EndOfWeek returns the last day of the week containing t.
func EndOfWeek(t time.Time, ws WeekStart) time.Time {
	return StartOfWeek(t, ws).AddDate(0, 0, 6)
}

// StartOfMonth returns the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddDays shifts a date key by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to string) (int, error) {
	a, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	b, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	return int((b.Unix() - a.Unix()) / 86400), nil
}

// InRange reports whether start <= date <= end using key comparison. An
// inverted range contains nothing.
func InRange(date, start, end string) bool {
	if start > end {
		return false
	}
	return date >= start && date <= end
}

// Span lists every date key from start to end inclusive. It returns nil for an
// inverted or unparsable range.
func Span(start, end string) []string {
	from, err := ParseDate(start)
	if err != nil {
		return nil
	}
	to, err := ParseDate(end)
	if err != nil || from.After(to) {
		return nil
	}
	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, FormatDate(d))
	}
	return days
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
