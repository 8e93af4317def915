package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dailyagent/scheduling/internal/domain"
)

const (
	dateOnlyFormat = "2006-01-02"
	untitledEvent  = "(no title)"

	// maxEventsPerFetch bounds one list call; windows are at most a couple of
	// weeks, so this is comfortably above realistic event counts.
	maxEventsPerFetch = 250
)

// GoogleProvider implements CalendarProvider against the Google Calendar API.
type GoogleProvider struct {
	service  *calendar.Service
	timezone *time.Location
	logger   *slog.Logger
}

// NewGoogleProvider builds a provider from service-account credentials JSON.
// All returned event times are rebased into loc.
func NewGoogleProvider(ctx context.Context, credentialsJSON []byte, loc *time.Location, logger *slog.Logger) (*GoogleProvider, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to load Google credentials: %v", err)
	}

	service, err := calendar.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Calendar service: %v", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleProvider{service: service, timezone: loc, logger: logger}, nil
}

// FetchEvents lists single (recurrence-expanded) events of source that
// intersect the window, ordered by start time.
func (g *GoogleProvider) FetchEvents(ctx context.Context, source domain.CalendarID, window domain.TimeWindow) ([]domain.Event, error) {
	call := g.service.Events.List(string(source)).
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxEventsPerFetch).
		Context(ctx)

	result, err := call.Do()
	if err != nil {
		return nil, g.classify("list", source, err)
	}

	events := make([]domain.Event, 0, len(result.Items))
	for _, item := range result.Items {
		event, err := g.convertEvent(item, source)
		if err != nil {
			g.logger.Warn("skipping unconvertible event", "source", source, "event_id", item.Id, "err", err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// CreateEvent inserts a new event into source.
func (g *GoogleProvider) CreateEvent(ctx context.Context, source domain.CalendarID, event domain.Event) (domain.Event, error) {
	payload := &calendar.Event{
		Summary:     event.Title,
		Location:    event.Location,
		Description: event.Description,
		Start:       g.toEventDateTime(event.Start, event.IsAllDay),
		End:         g.toEventDateTime(event.End, event.IsAllDay),
	}
	for _, email := range event.Attendees {
		payload.Attendees = append(payload.Attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := g.service.Events.Insert(string(source), payload).Context(ctx).Do()
	if err != nil {
		return domain.Event{}, g.classify("insert", source, err)
	}
	return g.convertEvent(created, source)
}

// UpdateEvent patches only the fields the request sets.
func (g *GoogleProvider) UpdateEvent(ctx context.Context, source domain.CalendarID, id string, patch domain.EventPatch) (domain.Event, error) {
	payload := &calendar.Event{}
	allDay := patch.IsAllDay != nil && *patch.IsAllDay

	if patch.Title != nil {
		payload.Summary = *patch.Title
	}
	if patch.Location != nil {
		payload.Location = *patch.Location
	}
	if patch.Description != nil {
		payload.Description = *patch.Description
	}
	if patch.Start != nil {
		payload.Start = g.toEventDateTime(*patch.Start, allDay)
	}
	if patch.End != nil {
		payload.End = g.toEventDateTime(*patch.End, allDay)
	}
	for _, email := range patch.Attendees {
		payload.Attendees = append(payload.Attendees, &calendar.EventAttendee{Email: email})
	}

	updated, err := g.service.Events.Patch(string(source), id, payload).Context(ctx).Do()
	if err != nil {
		return domain.Event{}, g.classify("patch", source, err)
	}
	return g.convertEvent(updated, source)
}

// DeleteEvent removes the event and returns its final state for caller
// display.
func (g *GoogleProvider) DeleteEvent(ctx context.Context, source domain.CalendarID, id string) (domain.Event, error) {
	existing, err := g.service.Events.Get(string(source), id).Context(ctx).Do()
	if err != nil {
		return domain.Event{}, g.classify("get", source, err)
	}

	deleted, err := g.convertEvent(existing, source)
	if err != nil {
		return domain.Event{}, err
	}

	if err := g.service.Events.Delete(string(source), id).Context(ctx).Do(); err != nil {
		return domain.Event{}, g.classify("delete", source, err)
	}
	return deleted, nil
}

// classify maps vendor errors onto the engine's error taxonomy.
func (g *GoogleProvider) classify(op string, source domain.CalendarID, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 404 || apiErr.Code == 410) {
		return fmt.Errorf("%w: %s on calendar %s: %v", domain.ErrNotFound, op, source, err)
	}
	return fmt.Errorf("%w: %s on calendar %s: %v", domain.ErrUpstreamUnavailable, op, source, err)
}

// toEventDateTime renders a timestamp in the wire shape Google expects:
// a date for all-day events, RFC3339 otherwise.
func (g *GoogleProvider) toEventDateTime(t time.Time, allDay bool) *calendar.EventDateTime {
	if allDay {
		return &calendar.EventDateTime{Date: t.In(g.timezone).Format(dateOnlyFormat)}
	}
	return &calendar.EventDateTime{DateTime: t.Format(time.RFC3339)}
}

// convertEvent maps a Google API event into the domain model with times
// rebased into the provider timezone.
func (g *GoogleProvider) convertEvent(item *calendar.Event, source domain.CalendarID) (domain.Event, error) {
	event := domain.Event{
		ID:             item.Id,
		SourceCalendar: source,
		Title:          item.Summary,
		Location:       item.Location,
		Description:    item.Description,
	}
	if event.Title == "" {
		event.Title = untitledEvent
	}
	for _, attendee := range item.Attendees {
		if attendee.Email != "" {
			event.Attendees = append(event.Attendees, attendee.Email)
		}
	}

	start, allDay, err := g.parseEventTime(item.Start)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %s has no usable start: %v", item.Id, err)
	}
	end, _, err := g.parseEventTime(item.End)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %s has no usable end: %v", item.Id, err)
	}

	event.Start = start
	event.End = end
	event.IsAllDay = allDay
	return event, nil
}

// parseEventTime handles the two wire shapes of Google event times: timed
// events carry an RFC3339 DateTime, all-day events carry a bare Date.
func (g *GoogleProvider) parseEventTime(t *calendar.EventDateTime) (time.Time, bool, error) {
	if t == nil {
		return time.Time{}, false, fmt.Errorf("missing time field")
	}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return parsed.In(g.timezone), false, nil
	}
	if t.Date != "" {
		parsed, err := time.ParseInLocation(dateOnlyFormat, t.Date, g.timezone)
		if err != nil {
			return time.Time{}, false, err
		}
		return parsed, true, nil
	}
	return time.Time{}, false, fmt.Errorf("neither dateTime nor date set")
}
