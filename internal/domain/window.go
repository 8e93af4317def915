package domain

import (
	"fmt"
	"time"
)

// TimeWindow bounds a search or conflict check. Start must not be after End;
// a zero-length window yields no results rather than an error.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate checks the window invariant.
func (w TimeWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: window start and end are required", ErrInvalidInput)
	}
	if w.Start.After(w.End) {
		return fmt.Errorf("%w: window start %s is after end %s", ErrInvalidInput,
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// IsZeroLength reports whether the window covers no time at all.
func (w TimeWindow) IsZeroLength() bool {
	return !w.Start.Before(w.End)
}

// In returns the window rebased to loc.
func (w TimeWindow) In(loc *time.Location) TimeWindow {
	return TimeWindow{Start: w.Start.In(loc), End: w.End.In(loc)}
}

// Days returns the midnights of every civil day the window touches, in loc,
// in ascending order. An empty window yields no days.
func (w TimeWindow) Days(loc *time.Location) []time.Time {
	if w.IsZeroLength() {
		return nil
	}
	start := w.Start.In(loc)
	end := w.End.In(loc)

	var days []time.Time
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	for day.Before(end) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}

// ClockTime is a wall-clock time of day without a date, used for daily
// scheduling bounds such as "no meetings before 09:00".
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseClockTime parses "15:04" formatted input.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: invalid clock time %q", ErrInvalidInput, s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Minutes returns the offset from midnight in minutes.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// On anchors the clock time to the civil day containing day, in day's location.
func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// DayBounds restricts slot searches to a daily working window.
type DayBounds struct {
	Earliest ClockTime `json:"earliest"`
	Latest   ClockTime `json:"latest"`
}

// Validate checks that the bounds describe a non-empty daily window.
func (b DayBounds) Validate() error {
	if b.Earliest.Minutes() >= b.Latest.Minutes() {
		return fmt.Errorf("%w: daily bounds %s-%s are inverted or empty", ErrInvalidInput,
			b.Earliest, b.Latest)
	}
	return nil
}
