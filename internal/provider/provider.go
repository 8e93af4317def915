// Package provider defines the calendar vendor port and its Google Calendar
// implementation. The rest of the engine only sees the CalendarProvider
// interface, so tests and alternative vendors can stand in for Google.
package provider

import (
	"context"

	"github.com/dailyagent/scheduling/internal/domain"
)

// CalendarProvider is the outbound port to an external calendar vendor.
// Timestamps it returns are authoritative but carry whatever offset the
// vendor chose; callers re-normalize before comparing events.
type CalendarProvider interface {
	// FetchEvents returns all events of source intersecting the window.
	FetchEvents(ctx context.Context, source domain.CalendarID, window domain.TimeWindow) ([]domain.Event, error)

	// CreateEvent writes a new event and returns it as stored by the vendor.
	CreateEvent(ctx context.Context, source domain.CalendarID, event domain.Event) (domain.Event, error)

	// UpdateEvent applies the non-nil patch fields to the identified event.
	UpdateEvent(ctx context.Context, source domain.CalendarID, id string, patch domain.EventPatch) (domain.Event, error)

	// DeleteEvent removes the identified event and returns its last state.
	DeleteEvent(ctx context.Context, source domain.CalendarID, id string) (domain.Event, error)
}
