package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/dailyagent/scheduling/internal/cache"
	"github.com/dailyagent/scheduling/internal/config"
	"github.com/dailyagent/scheduling/internal/domain"
	"github.com/dailyagent/scheduling/internal/provider"
	"github.com/dailyagent/scheduling/internal/schedule"
	"github.com/dailyagent/scheduling/internal/usecase"
)

// Request is the Lambda event for one scheduling operation. Fields beyond
// Operation are read per operation; unused ones are ignored.
type Request struct {
	Operation string `json:"operation"`

	Source  string     `json:"source,omitempty"`
	EventID string     `json:"event_id,omitempty"`
	Window  timeWindow `json:"window,omitempty"`

	// create_event
	Event *eventPayload `json:"event,omitempty"`

	// update_event
	Patch *patchPayload `json:"patch,omitempty"`

	// check_conflicts
	ExcludeEventID string `json:"exclude_event_id,omitempty"`

	// find_free_slots
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	EarliestTime    string `json:"earliest_time,omitempty"`
	LatestTime      string `json:"latest_time,omitempty"`
	Preference      string `json:"preference,omitempty"`
	MaxResults      int    `json:"max_results,omitempty"`
}

type timeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type eventPayload struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	IsAllDay    bool      `json:"is_all_day,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
}

type patchPayload struct {
	Title       *string    `json:"title,omitempty"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Description *string    `json:"description,omitempty"`
	Attendees   []string   `json:"attendees,omitempty"`
	IsAllDay    *bool      `json:"is_all_day,omitempty"`
}

// Response is the Lambda result envelope.
type Response struct {
	StatusCode int                  `json:"statusCode"`
	Message    string               `json:"message,omitempty"`
	Events     []domain.Event       `json:"events,omitempty"`
	Slots      []schedule.Slot      `json:"slots,omitempty"`
	Write      *usecase.WriteResult `json:"write,omitempty"`
	CacheStats *cache.Stats         `json:"cache_stats,omitempty"`
}

// application holds the wired engine; built once per Lambda container.
type application struct {
	scheduling *usecase.SchedulingUseCase
	cache      *cache.Service
	sources    []domain.CalendarID
}

var (
	appOnce sync.Once
	app     *application
	appErr  error
)

func initApp(ctx context.Context) (*application, error) {
	appOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			appErr = fmt.Errorf("failed to load configuration: %v", err)
			return
		}

		logger := newLogger(cfg.LogLevel)
		slog.SetDefault(logger)

		loc, err := cfg.Location()
		if err != nil {
			appErr = err
			return
		}

		// A dead Redis at startup is only a degradation; the fallback store
		// carries cached reads for this container.
		var primary cache.Store
		if cfg.RedisURL != "" {
			redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL)
			if err != nil {
				logger.Warn("primary cache unavailable, using in-process fallback only", "err", err)
			} else {
				primary = redisStore
			}
		}
		cacheService := cache.NewService(primary, logger)

		googleProvider, err := provider.NewGoogleProvider(ctx, []byte(cfg.GoogleCredentials), loc, logger)
		if err != nil {
			appErr = err
			return
		}

		readCache := cacheService
		if !cfg.CalendarCacheEnabled {
			readCache = nil
		}
		aggregator := schedule.NewAggregator(googleProvider, readCache, cfg.CalendarCacheTTL, loc, logger)

		sources := make([]domain.CalendarID, 0, len(cfg.CalendarIDs))
		for _, id := range cfg.CalendarIDs {
			sources = append(sources, domain.CalendarID(id))
		}

		app = &application{
			scheduling: usecase.NewSchedulingUseCase(
				aggregator,
				schedule.NewConflictDetector(aggregator),
				schedule.NewFreeSlotFinder(aggregator),
				sources,
				logger,
			),
			cache:   cacheService,
			sources: sources,
		}
	})
	return app, appErr
}

func handler(ctx context.Context, req Request) (Response, error) {
	a, err := initApp(ctx)
	if err != nil {
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	window := domain.TimeWindow{Start: req.Window.Start, End: req.Window.End}

	switch req.Operation {
	case "list_events":
		events, err := a.scheduling.ListEvents(ctx, window)
		if err != nil {
			return errorResponse(err), nil
		}
		return Response{StatusCode: 200, Events: events}, nil

	case "check_conflicts":
		conflicts, err := a.scheduling.CheckConflicts(ctx, window, req.ExcludeEventID)
		if err != nil {
			return errorResponse(err), nil
		}
		message := fmt.Sprintf("found %d conflicting events", len(conflicts))
		return Response{StatusCode: 200, Events: conflicts, Message: message}, nil

	case "find_free_slots":
		bounds, err := parseBounds(req.EarliestTime, req.LatestTime)
		if err != nil {
			return errorResponse(err), nil
		}
		slots, err := a.scheduling.FindFreeSlots(ctx, window, req.DurationMinutes,
			bounds, schedule.Preference(req.Preference), req.MaxResults)
		if err != nil {
			return errorResponse(err), nil
		}
		return Response{StatusCode: 200, Slots: slots}, nil

	case "create_event":
		if req.Event == nil {
			return errorResponse(fmt.Errorf("%w: create_event requires an event", domain.ErrInvalidInput)), nil
		}
		result, err := a.scheduling.CreateEvent(ctx, domain.CalendarID(defaultSource(req.Source)), domain.Event{
			Title:       req.Event.Title,
			Start:       req.Event.Start,
			End:         req.Event.End,
			IsAllDay:    req.Event.IsAllDay,
			Location:    req.Event.Location,
			Description: req.Event.Description,
			Attendees:   req.Event.Attendees,
		})
		if err != nil {
			return errorResponse(err), nil
		}
		return Response{StatusCode: 200, Write: &result}, nil

	case "update_event":
		if req.Patch == nil || req.EventID == "" {
			return errorResponse(fmt.Errorf("%w: update_event requires event_id and patch", domain.ErrInvalidInput)), nil
		}
		result, err := a.scheduling.UpdateEvent(ctx, domain.CalendarID(defaultSource(req.Source)), req.EventID, domain.EventPatch{
			Title:       req.Patch.Title,
			Start:       req.Patch.Start,
			End:         req.Patch.End,
			Location:    req.Patch.Location,
			Description: req.Patch.Description,
			Attendees:   req.Patch.Attendees,
			IsAllDay:    req.Patch.IsAllDay,
		})
		if err != nil {
			return errorResponse(err), nil
		}
		return Response{StatusCode: 200, Write: &result}, nil

	case "delete_event":
		if req.EventID == "" {
			return errorResponse(fmt.Errorf("%w: delete_event requires event_id", domain.ErrInvalidInput)), nil
		}
		deleted, err := a.scheduling.DeleteEvent(ctx, domain.CalendarID(defaultSource(req.Source)), req.EventID)
		if err != nil {
			return errorResponse(err), nil
		}
		return Response{
			StatusCode: 200,
			Events:     []domain.Event{deleted},
			Message:    fmt.Sprintf("event %s deleted", req.EventID),
		}, nil

	case "cache_stats":
		stats := a.cache.Stats(ctx)
		return Response{StatusCode: 200, CacheStats: &stats}, nil

	default:
		err := fmt.Errorf("%w: unknown operation %q", domain.ErrInvalidInput, req.Operation)
		return errorResponse(err), nil
	}
}

func parseBounds(earliest, latest string) (domain.DayBounds, error) {
	if earliest == "" {
		earliest = "09:00"
	}
	if latest == "" {
		latest = "18:00"
	}
	from, err := domain.ParseClockTime(earliest)
	if err != nil {
		return domain.DayBounds{}, err
	}
	to, err := domain.ParseClockTime(latest)
	if err != nil {
		return domain.DayBounds{}, err
	}
	return domain.DayBounds{Earliest: from, Latest: to}, nil
}

func defaultSource(source string) string {
	if source == "" {
		return "primary"
	}
	return source
}

// errorResponse maps the engine's error taxonomy onto HTTP-ish status codes
// for the caller.
func errorResponse(err error) Response {
	status := 500
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = 400
	case errors.Is(err, domain.ErrNotFound):
		status = 404
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status = 502
	}
	return Response{StatusCode: status, Message: err.Error()}
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		slogLevel = slog.LevelDebug
	case "WARN":
		slogLevel = slog.LevelWarn
	case "ERROR":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel}))
}

func main() {
	lambda.Start(handler)
}
