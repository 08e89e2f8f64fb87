package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
	TimeLayout  = "15:04"
)

// LoadLocation resolves an IANA zone name. Offsets such as "UTC+3" or
// "+03:00" fall back to a fixed zone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc, nil
	}

	offset := strings.TrimPrefix(strings.ToUpper(name), "UTC")
	offset = strings.TrimPrefix(offset, "GMT")
	if offset == "" || (offset[0] != '+' && offset[0] != '-') {
		return nil, fmt.Errorf("unknown time zone %q", name)
	}
	sign := 1
	if offset[0] == '-' {
		sign = -1
	}
	hours, minutes := offset[1:], "0"
	if h, m, ok := strings.Cut(hours, ":"); ok {
		hours, minutes = h, m
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h > 14 {
		return nil, fmt.Errorf("unknown time zone %q", name)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m >= 60 {
		return nil, fmt.Errorf("unknown time zone %q", name)
	}
	return time.FixedZone(name, sign*(h*3600+m*60)), nil
}

// DayOf returns the calendar day of t in loc as a UTC midnight. All day
// arithmetic in the module is done on these values so that AddDate never
// crosses a DST transition.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight. A full
// timestamp is accepted too and truncated to its date part.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	return time.Parse(DateLayout, s)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseMonth accepts YYYY-MM and returns the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	return time.Parse(MonthLayout, strings.TrimSpace(s))
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MondayIndex maps Go's Sunday-first weekday to a Monday-first ordinal
// (Monday=0 ... Sunday=6).
func MondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

func StartOfWeek(day time.Time) time.Time {
	return day.AddDate(0, 0, -MondayIndex(day.Weekday()))
}

func StartOfMonth(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func EndOfMonth(day time.Time) time.Time {
	return StartOfMonth(day).AddDate(0, 1, -1)
}

func DaysInMonth(day time.Time) int {
	return EndOfMonth(day).Day()
}

// FormatDueTime trims a stored HH:MM[:SS] time to HH:MM.
func FormatDueTime(s *string) string {
	if s == nil {
		return ""
	}
	t := strings.TrimSpace(*s)
	if len(t) > len(TimeLayout) {
		t = t[:len(TimeLayout)]
	}
	return t
}

// FormatLongDate renders a stored date as "February 19, 2024", or "-" when
// the date is missing or malformed.
func FormatLongDate(s *string) string {
	if s == nil {
		return "-"
	}
	d, err := ParseDate(*s)
	if err != nil {
		return "-"
	}
	return d.Format("January 2, 2006")
}
