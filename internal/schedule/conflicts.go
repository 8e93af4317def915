package schedule

import (
	"context"

	"github.com/dailyagent/scheduling/internal/domain"
)

// ConflictDetector reports existing events that overlap a candidate interval.
// It is a pure read; callers decide whether a conflict blocks the write or
// only warns.
type ConflictDetector struct {
	agg *Aggregator
}

// NewConflictDetector builds a detector over the aggregator.
func NewConflictDetector(agg *Aggregator) *ConflictDetector {
	return &ConflictDetector{agg: agg}
}

// FindConflicts returns the non-all-day events of the given sources that
// strictly overlap the candidate window, sorted by start. Back-to-back events
// sharing a boundary instant do not conflict. When excludeEventID is set, the
// matching event is dropped from the result; an id that matches nothing is
// not an error (update flows pass the id of the event being moved).
func (d *ConflictDetector) FindConflicts(ctx context.Context, candidate domain.TimeWindow, sources []domain.CalendarID, excludeEventID string) ([]domain.Event, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if candidate.IsZeroLength() {
		return nil, nil
	}

	events, err := d.agg.ListEvents(ctx, sources, candidate)
	if err != nil {
		return nil, err
	}

	candidate = candidate.In(d.agg.Timezone())

	var conflicts []domain.Event
	for _, event := range events {
		if event.IsAllDay {
			// Holidays and day markers never block scheduling.
			continue
		}
		if excludeEventID != "" && event.ID == excludeEventID {
			continue
		}
		if event.Overlaps(candidate.Start, candidate.End) {
			conflicts = append(conflicts, event)
		}
	}
	return conflicts, nil
}
