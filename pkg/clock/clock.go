// Package clock supplies civil wall-clock time in a fixed timezone.
// Every scan decision is made against this clock so tests can pin it.
package clock

import (
	"fmt"
	"time"
)

type Clock interface {
	// Now returns the current time already converted to the configured zone.
	Now() time.Time
}

type civilClock struct {
	loc *time.Location
}

func New(timezone string) (Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &civilClock{loc: loc}, nil
}

func (c *civilClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Minute formats t as the "HH:MM" string compared against medication
// schedules.
func Minute(t time.Time) string {
	return t.Format("15:04")
}

// Weekday returns the day-of-week index with 0=Sunday, matching the
// stored medication weekday sets.
func Weekday(t time.Time) int {
	return int(t.Weekday())
}

// DayBounds returns the start and end of the civil day containing t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}

// Fixed returns a clock pinned to a single instant, for tests.
func Fixed(t time.Time) Clock {
	return fixedClock{t: t}
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}
