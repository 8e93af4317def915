package usecase

import (
	"context"
	"log/slog"

	"github.com/dailyagent/scheduling/internal/domain"
	"github.com/dailyagent/scheduling/internal/schedule"
)

// EventRepository is the aggregated calendar port.
type EventRepository interface {
	ListEvents(ctx context.Context, sources []domain.CalendarID, window domain.TimeWindow) ([]domain.Event, error)
	CreateEvent(ctx context.Context, source domain.CalendarID, event domain.Event) (domain.Event, error)
	UpdateEvent(ctx context.Context, source domain.CalendarID, id string, patch domain.EventPatch) (domain.Event, error)
	DeleteEvent(ctx context.Context, source domain.CalendarID, id string) (domain.Event, error)
}

// ConflictFinder reports overlaps for a candidate interval.
type ConflictFinder interface {
	FindConflicts(ctx context.Context, candidate domain.TimeWindow, sources []domain.CalendarID, excludeEventID string) ([]domain.Event, error)
}

// SlotFinder searches for open intervals.
type SlotFinder interface {
	FindSlots(ctx context.Context, req schedule.SlotRequest) ([]schedule.Slot, error)
}

// WriteResult bundles a committed write with the conflicts found beforehand.
// Conflicts are advisory data, never an error: the caller decides whether to
// hard-block or merely warn, so the write has already happened when conflicts
// are returned here.
type WriteResult struct {
	Event         domain.Event   `json:"event"`
	Conflicts     []domain.Event `json:"conflicts,omitempty"`
	ChangedFields []string       `json:"changed_fields,omitempty"`
}

// SchedulingUseCase exposes the caller-facing scheduling operations over the
// engine components. The configured sources are the default calendar set for
// every read.
type SchedulingUseCase struct {
	repo      EventRepository
	conflicts ConflictFinder
	slots     SlotFinder
	sources   []domain.CalendarID
	logger    *slog.Logger
}

// NewSchedulingUseCase wires the use case.
func NewSchedulingUseCase(repo EventRepository, conflicts ConflictFinder, slots SlotFinder, sources []domain.CalendarID, logger *slog.Logger) *SchedulingUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchedulingUseCase{
		repo:      repo,
		conflicts: conflicts,
		slots:     slots,
		sources:   sources,
		logger:    logger,
	}
}

// ListEvents returns the merged timeline of all configured sources.
func (uc *SchedulingUseCase) ListEvents(ctx context.Context, window domain.TimeWindow) ([]domain.Event, error) {
	return uc.repo.ListEvents(ctx, uc.sources, window)
}

// CheckConflicts reports events overlapping the candidate interval across all
// configured sources.
func (uc *SchedulingUseCase) CheckConflicts(ctx context.Context, candidate domain.TimeWindow, excludeEventID string) ([]domain.Event, error) {
	return uc.conflicts.FindConflicts(ctx, candidate, uc.sources, excludeEventID)
}

// FindFreeSlots returns ranked open intervals across all configured sources.
func (uc *SchedulingUseCase) FindFreeSlots(ctx context.Context, window domain.TimeWindow, durationMinutes int, bounds domain.DayBounds, pref schedule.Preference, maxResults int) ([]schedule.Slot, error) {
	return uc.slots.FindSlots(ctx, schedule.SlotRequest{
		Sources:         uc.sources,
		Window:          window,
		DurationMinutes: durationMinutes,
		Bounds:          bounds,
		Preference:      pref,
		MaxResults:      maxResults,
	})
}

// CreateEvent checks for conflicts, commits the write, and returns both. The
// conflict check is best-effort: a read failure there is logged and absorbed,
// while the write itself fails hard.
func (uc *SchedulingUseCase) CreateEvent(ctx context.Context, source domain.CalendarID, event domain.Event) (WriteResult, error) {
	var conflicts []domain.Event
	if !event.IsAllDay {
		candidate := domain.TimeWindow{Start: event.Start, End: event.End}
		found, err := uc.conflicts.FindConflicts(ctx, candidate, uc.sources, "")
		if err != nil {
			uc.logger.Warn("conflict check failed, creating without it", "source", source, "err", err)
		} else {
			conflicts = found
		}
	}

	created, err := uc.repo.CreateEvent(ctx, source, event)
	if err != nil {
		return WriteResult{}, err
	}

	if len(conflicts) > 0 {
		uc.logger.Info("event created with conflicts", "event_id", created.ID, "conflicts", len(conflicts))
	}
	return WriteResult{Event: created, Conflicts: conflicts}, nil
}

// UpdateEvent checks conflicts for the new interval (excluding the event's own
// prior position), commits the patch, and reports which fields changed.
func (uc *SchedulingUseCase) UpdateEvent(ctx context.Context, source domain.CalendarID, id string, patch domain.EventPatch) (WriteResult, error) {
	var conflicts []domain.Event
	if patch.Start != nil && patch.End != nil {
		candidate := domain.TimeWindow{Start: *patch.Start, End: *patch.End}
		found, err := uc.conflicts.FindConflicts(ctx, candidate, uc.sources, id)
		if err != nil {
			uc.logger.Warn("conflict check failed, updating without it", "event_id", id, "err", err)
		} else {
			conflicts = found
		}
	}

	updated, err := uc.repo.UpdateEvent(ctx, source, id, patch)
	if err != nil {
		return WriteResult{}, err
	}

	return WriteResult{Event: updated, Conflicts: conflicts, ChangedFields: patch.Fields()}, nil
}

// DeleteEvent removes the event and returns its final state.
func (uc *SchedulingUseCase) DeleteEvent(ctx context.Context, source domain.CalendarID, id string) (domain.Event, error) {
	return uc.repo.DeleteEvent(ctx, source, id)
}
