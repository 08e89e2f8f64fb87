package services

import (
	"time"

	"life-os/internal/utils"
)

// Clock defines "today" in the configured time zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// FixedClock always reports now. Used by tests and one-off CLI runs.
func FixedClock(now time.Time, loc *time.Location) *Clock {
	c := NewClock(loc)
	c.now = func() time.Time { return now }
	return c
}

func (c *Clock) Now() time.Time { return c.now() }

func (c *Clock) Location() *time.Location { return c.loc }

// Today is the current calendar day as a UTC midnight.
func (c *Clock) Today() time.Time {
	return utils.DayOf(c.now(), c.loc)
}

// Day parses an optional YYYY-MM-DD, defaulting to today.
func (c *Clock) Day(s string) (time.Time, error) {
	if s == "" {
		return c.Today(), nil
	}
	d, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, invalidDate("date", s)
	}
	return d, nil
}
