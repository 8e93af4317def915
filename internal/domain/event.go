package domain

import "time"

// CalendarID identifies one aggregated calendar source, e.g. "primary" or "work".
type CalendarID string

// Event is a scheduled item on one source calendar. Start and End always carry
// an explicit location; the aggregator normalizes them to the reference
// timezone before any two events are compared.
type Event struct {
	ID             string     `json:"id"`
	SourceCalendar CalendarID `json:"source_calendar"`
	Title          string     `json:"title"`
	Start          time.Time  `json:"start"`
	End            time.Time  `json:"end"`
	IsAllDay       bool       `json:"is_all_day"`
	Location       string     `json:"location,omitempty"`
	Description    string     `json:"description,omitempty"`
	Attendees      []string   `json:"attendees,omitempty"`
}

// In returns a copy of the event with Start and End rebased to loc.
func (e Event) In(loc *time.Location) Event {
	e.Start = e.Start.In(loc)
	e.End = e.End.In(loc)
	return e
}

// Overlaps reports whether the event's interval overlaps [start, end).
// Touching intervals (event ending exactly at start, or starting exactly at
// end) do not overlap.
func (e Event) Overlaps(start, end time.Time) bool {
	return e.Start.Before(end) && e.End.After(start)
}

// EventPatch carries the fields of an update request. Nil fields are left
// unchanged on the target event.
type EventPatch struct {
	Title       *string
	Start       *time.Time
	End         *time.Time
	Location    *string
	Description *string
	Attendees   []string
	IsAllDay    *bool
}

// Fields lists the names of the fields the patch would change, for caller
// display.
func (p EventPatch) Fields() []string {
	var changed []string
	if p.Title != nil {
		changed = append(changed, "title")
	}
	if p.Start != nil {
		changed = append(changed, "start")
	}
	if p.End != nil {
		changed = append(changed, "end")
	}
	if p.Location != nil {
		changed = append(changed, "location")
	}
	if p.Description != nil {
		changed = append(changed, "description")
	}
	if p.Attendees != nil {
		changed = append(changed, "attendees")
	}
	if p.IsAllDay != nil {
		changed = append(changed, "all_day")
	}
	return changed
}
