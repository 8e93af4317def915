// Package schedule implements the scheduling engine: multi-calendar
// aggregation, conflict detection, and free-slot search.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dailyagent/scheduling/internal/cache"
	"github.com/dailyagent/scheduling/internal/domain"
	"github.com/dailyagent/scheduling/internal/provider"
)

const (
	eventsKeyPrefix = "calendar_events"
	dayKeyFormat    = "2006-01-02"

	// recentInvalidationDays bounds the conservative sweep used when a write
	// may have moved an event away from a day we cannot see anymore.
	recentInvalidationDays = 7
)

// Aggregator merges events from several calendar sources into one normalized,
// sorted timeline. Reads go through the cache in per-day buckets so write
// invalidation can target exactly the affected days.
type Aggregator struct {
	provider provider.CalendarProvider
	cache    *cache.Service // nil disables read caching
	cacheTTL time.Duration
	timezone *time.Location
	logger   *slog.Logger
	clock    func() time.Time
}

// NewAggregator wires the aggregator. Pass a nil cache (or non-positive ttl)
// to fetch every listing fresh from the provider.
func NewAggregator(p provider.CalendarProvider, c *cache.Service, cacheTTL time.Duration, loc *time.Location, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheTTL <= 0 {
		c = nil
	}
	return &Aggregator{
		provider: p,
		cache:    c,
		cacheTTL: cacheTTL,
		timezone: loc,
		logger:   logger,
		clock:    time.Now,
	}
}

// Timezone returns the reference timezone all results are normalized into.
func (a *Aggregator) Timezone() *time.Location {
	return a.timezone
}

type sourceResult struct {
	source domain.CalendarID
	events []domain.Event
	err    error
}

// ListEvents fetches every requested source concurrently and merges the
// results into one timeline sorted by start, then end, then source name.
// A failing source is logged and skipped; only when every source fails does
// the call return an error.
func (a *Aggregator) ListEvents(ctx context.Context, sources []domain.CalendarID, window domain.TimeWindow) ([]domain.Event, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if window.IsZeroLength() || len(sources) == 0 {
		return nil, nil
	}
	window = window.In(a.timezone)

	results := make([]sourceResult, len(sources))
	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(i int, source domain.CalendarID) {
			defer wg.Done()
			events, err := a.fetchSource(ctx, source, window)
			results[i] = sourceResult{source: source, events: events, err: err}
		}(i, source)
	}
	wg.Wait()

	var merged []domain.Event
	var failures []error
	for _, res := range results {
		if res.err != nil {
			a.logger.Warn("calendar source fetch failed, continuing without it",
				"source", res.source, "err", res.err)
			failures = append(failures, res.err)
			continue
		}
		merged = append(merged, res.events...)
	}

	if len(failures) == len(sources) {
		return nil, fmt.Errorf("%w: all %d calendar sources failed: %v",
			domain.ErrUpstreamUnavailable, len(sources), errors.Join(failures...))
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].Start.Equal(merged[j].Start) {
			return merged[i].Start.Before(merged[j].Start)
		}
		if !merged[i].End.Equal(merged[j].End) {
			return merged[i].End.Before(merged[j].End)
		}
		return merged[i].SourceCalendar < merged[j].SourceCalendar
	})
	return merged, nil
}

// fetchSource loads one source's events for the window, through the cache
// when enabled, and normalizes them into the reference timezone.
func (a *Aggregator) fetchSource(ctx context.Context, source domain.CalendarID, window domain.TimeWindow) ([]domain.Event, error) {
	var fetched []domain.Event

	if a.cache == nil {
		events, err := a.provider.FetchEvents(ctx, source, window)
		if err != nil {
			return nil, err
		}
		fetched = events
	} else {
		// Cache per (source, day) bucket. An event spanning midnight shows up
		// in two buckets and is de-duplicated below.
		for _, day := range window.Days(a.timezone) {
			events, err := a.fetchDay(ctx, source, day)
			if err != nil {
				return nil, err
			}
			fetched = append(fetched, events...)
		}
	}

	seen := make(map[string]bool, len(fetched))
	var out []domain.Event
	for _, event := range fetched {
		normalized := event.In(a.timezone)
		if !normalized.Overlaps(window.Start, window.End) && !normalized.IsAllDay {
			continue
		}
		if seen[normalized.ID] {
			continue
		}
		seen[normalized.ID] = true
		out = append(out, normalized)
	}
	return out, nil
}

// fetchDay resolves one (source, day) bucket, read-through.
func (a *Aggregator) fetchDay(ctx context.Context, source domain.CalendarID, day time.Time) ([]domain.Event, error) {
	key := a.dayKey(source, day)

	var cached []domain.Event
	if a.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	dayWindow := domain.TimeWindow{Start: day, End: day.AddDate(0, 0, 1)}
	events, err := a.provider.FetchEvents(ctx, source, dayWindow)
	if err != nil {
		return nil, err
	}
	if events == nil {
		// Cache the empty day too; an eventless day is still an answer.
		events = []domain.Event{}
	}

	a.cache.Set(ctx, key, events, a.cacheTTL)
	return events, nil
}

// CreateEvent writes a new event through the provider and invalidates the
// cached listings its interval could appear in. Write failures propagate.
func (a *Aggregator) CreateEvent(ctx context.Context, source domain.CalendarID, event domain.Event) (domain.Event, error) {
	created, err := a.provider.CreateEvent(ctx, source, event)
	if err != nil {
		return domain.Event{}, err
	}

	a.invalidateWindow(ctx, source, domain.TimeWindow{Start: created.Start, End: created.End})
	return created, nil
}

// UpdateEvent patches an existing event. Because the event's prior interval is
// not known here, invalidation covers the new interval plus a recent-days
// sweep so a moved event cannot linger in a stale listing.
func (a *Aggregator) UpdateEvent(ctx context.Context, source domain.CalendarID, id string, patch domain.EventPatch) (domain.Event, error) {
	updated, err := a.provider.UpdateEvent(ctx, source, id, patch)
	if err != nil {
		return domain.Event{}, err
	}

	a.invalidateWindow(ctx, source, domain.TimeWindow{Start: updated.Start, End: updated.End})
	if patch.Start != nil || patch.End != nil {
		a.invalidateRecent(ctx, source)
	}
	return updated, nil
}

// DeleteEvent removes an event and invalidates the listings for the days it
// occupied.
func (a *Aggregator) DeleteEvent(ctx context.Context, source domain.CalendarID, id string) (domain.Event, error) {
	deleted, err := a.provider.DeleteEvent(ctx, source, id)
	if err != nil {
		return domain.Event{}, err
	}

	a.invalidateWindow(ctx, source, domain.TimeWindow{Start: deleted.Start, End: deleted.End})
	return deleted, nil
}

func (a *Aggregator) dayKey(source domain.CalendarID, day time.Time) string {
	return cache.Key(eventsKeyPrefix, string(source), day.Format(dayKeyFormat))
}

func (a *Aggregator) invalidateWindow(ctx context.Context, source domain.CalendarID, window domain.TimeWindow) {
	if a.cache == nil {
		return
	}
	for _, day := range window.In(a.timezone).Days(a.timezone) {
		a.cache.Delete(ctx, a.dayKey(source, day))
	}
}

func (a *Aggregator) invalidateRecent(ctx context.Context, source domain.CalendarID) {
	if a.cache == nil {
		return
	}
	now := a.clock().In(a.timezone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.timezone)
	for offset := -recentInvalidationDays; offset <= recentInvalidationDays; offset++ {
		a.cache.Delete(ctx, a.dayKey(source, today.AddDate(0, 0, offset)))
	}
}
