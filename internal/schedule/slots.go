package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dailyagent/scheduling/internal/domain"
)

// Preference ranks candidate slots by the time of day their midpoint lands in.
type Preference string

const (
	PreferenceNone      Preference = ""
	PreferenceMorning   Preference = "morning"
	PreferenceAfternoon Preference = "afternoon"
	PreferenceEvening   Preference = "evening"
)

// Band boundaries: morning runs until noon, afternoon until 17:00, evening
// after that.
const (
	noonHour    = 12
	eveningHour = 17
)

// Preference band scores. Any monotonic shape works as long as the preferred
// band outranks the others; exact values are not a compatibility surface.
const (
	scorePreferred   = 1.0
	scoreOther       = 0.25
	scoreIndifferent = 0.5
)

const defaultMaxResults = 10

// Slot is one bookable interval of exactly the requested duration, annotated
// with its nearest bounding events for caller display.
type Slot struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Score  float64   `json:"score"`
	Period string    `json:"period"`

	// Context only; never part of the ranking.
	Preceding *domain.Event `json:"preceding,omitempty"`
	Following *domain.Event `json:"following,omitempty"`
}

// SlotRequest describes a free-slot search.
type SlotRequest struct {
	Sources         []domain.CalendarID
	Window          domain.TimeWindow
	DurationMinutes int
	Bounds          domain.DayBounds
	Preference      Preference
	MaxResults      int
}

// FreeSlotFinder computes ranked open intervals from the aggregated timeline.
type FreeSlotFinder struct {
	agg *Aggregator
}

// NewFreeSlotFinder builds a finder over the aggregator.
func NewFreeSlotFinder(agg *Aggregator) *FreeSlotFinder {
	return &FreeSlotFinder{agg: agg}
}

// FindSlots searches the window for open intervals of the requested duration
// within the daily bounds, best first: preference-band score descending, then
// start ascending. Oversized gaps contribute their earliest sub-interval of
// exactly the requested duration. Identical inputs over an unchanged event
// set produce identical ordered output.
func (f *FreeSlotFinder) FindSlots(ctx context.Context, req SlotRequest) ([]Slot, error) {
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d minutes",
			domain.ErrInvalidInput, req.DurationMinutes)
	}
	if err := req.Bounds.Validate(); err != nil {
		return nil, err
	}
	if err := req.Window.Validate(); err != nil {
		return nil, err
	}
	switch req.Preference {
	case PreferenceNone, PreferenceMorning, PreferenceAfternoon, PreferenceEvening:
	default:
		return nil, fmt.Errorf("%w: unknown preference %q", domain.ErrInvalidInput, req.Preference)
	}
	if req.MaxResults <= 0 {
		req.MaxResults = defaultMaxResults
	}
	if req.Window.IsZeroLength() {
		return nil, nil
	}

	events, err := f.agg.ListEvents(ctx, req.Sources, req.Window)
	if err != nil {
		return nil, err
	}

	// All-day events never block slots.
	timed := events[:0:0]
	for _, event := range events {
		if !event.IsAllDay {
			timed = append(timed, event)
		}
	}

	window := req.Window.In(f.agg.Timezone())
	duration := time.Duration(req.DurationMinutes) * time.Minute

	var slots []Slot
	for _, day := range window.Days(f.agg.Timezone()) {
		slots = append(slots, f.daySlots(day, window, timed, duration, req.Preference, req.Bounds)...)
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Score != slots[j].Score {
			return slots[i].Score > slots[j].Score
		}
		return slots[i].Start.Before(slots[j].Start)
	})

	if len(slots) > req.MaxResults {
		slots = slots[:req.MaxResults]
	}
	return slots, nil
}

// daySlots sweeps one civil day for gaps of at least the requested duration
// between the daily bounds, clamped to the search window.
func (f *FreeSlotFinder) daySlots(day time.Time, window domain.TimeWindow, events []domain.Event, duration time.Duration, pref Preference, bounds domain.DayBounds) []Slot {
	dayStart := bounds.Earliest.On(day)
	dayEnd := bounds.Latest.On(day)
	if window.Start.After(dayStart) {
		dayStart = window.Start
	}
	if window.End.Before(dayEnd) {
		dayEnd = window.End
	}
	if !dayStart.Before(dayEnd) {
		return nil
	}

	var slots []Slot
	cursor := dayStart
	var preceding *domain.Event

	for i := range events {
		event := events[i]
		if !event.End.After(dayStart) || !event.Start.Before(dayEnd) {
			continue
		}

		if gapEnd := event.Start; cursor.Add(duration).Compare(gapEnd) <= 0 {
			slots = append(slots, f.newSlot(cursor, duration, pref, preceding, &events[i]))
		}
		if event.End.After(cursor) {
			cursor = event.End
			preceding = &events[i]
		}
	}

	if cursor.Add(duration).Compare(dayEnd) <= 0 {
		slots = append(slots, f.newSlot(cursor, duration, pref, preceding, nil))
	}
	return slots
}

func (f *FreeSlotFinder) newSlot(start time.Time, duration time.Duration, pref Preference, preceding, following *domain.Event) Slot {
	midpoint := start.Add(duration / 2)
	period := periodOf(midpoint)

	score := scoreIndifferent
	if pref != PreferenceNone {
		if string(pref) == period {
			score = scorePreferred
		} else {
			score = scoreOther
		}
	}

	slot := Slot{
		Start:  start,
		End:    start.Add(duration),
		Score:  score,
		Period: period,
	}
	if preceding != nil {
		p := *preceding
		slot.Preceding = &p
	}
	if following != nil {
		n := *following
		slot.Following = &n
	}
	return slot
}

// periodOf labels the time-of-day band containing t.
func periodOf(t time.Time) string {
	switch {
	case t.Hour() < noonHour:
		return string(PreferenceMorning)
	case t.Hour() < eveningHour:
		return string(PreferenceAfternoon)
	default:
		return string(PreferenceEvening)
	}
}
