package schedule

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dailyagent/scheduling/internal/domain"
)

// detectorWith returns a detector whose single "primary" source serves the
// given events.
func detectorWith(events []domain.Event) *ConflictDetector {
	mockProvider := new(MockProvider)
	mockProvider.On("FetchEvents", mock.Anything, mock.Anything, mock.Anything).
		Return(events, nil)
	agg := NewAggregator(mockProvider, nil, 0, pacific, slog.Default())
	return NewConflictDetector(agg)
}

var primaryOnly = []domain.CalendarID{"primary"}

func TestFindConflictsOverlap(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, pacific)
	detector := detectorWith([]domain.Event{
		timedEvent("morning", "primary", at(day, 9, 0), at(day, 10, 0)),
		timedEvent("late", "primary", at(day, 11, 0), at(day, 12, 0)),
	})

	// 09:30-10:30 overlaps only the 09:00-10:00 event.
	conflicts, err := detector.FindConflicts(context.Background(),
		domain.TimeWindow{Start: at(day, 9, 30), End: at(day, 10, 30)}, primaryOnly, "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "morning", conflicts[0].ID)
}

func TestFindConflictsTouchingIsNotConflict(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, pacific)
	detector := detectorWith([]domain.Event{
		timedEvent("morning", "primary", at(day, 9, 0), at(day, 10, 0)),
		timedEvent("late", "primary", at(day, 11, 0), at(day, 12, 0)),
	})

	// 10:00-11:00 touches both neighbors at a single instant each.
	conflicts, err := detector.FindConflicts(context.Background(),
		domain.TimeWindow{Start: at(day, 10, 0), End: at(day, 11, 0)}, primaryOnly, "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflictsIgnoresAllDayEvents(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, pacific)
	holiday := domain.Event{
		ID:             "holiday",
		SourceCalendar: "primary",
		Title:          "Public holiday",
		Start:          day,
		End:            day.AddDate(0, 0, 1),
		IsAllDay:       true,
	}
	detector := detectorWith([]domain.Event{holiday})

	conflicts, err := detector.FindConflicts(context.Background(),
		domain.TimeWindow{Start: at(day, 9, 0), End: at(day, 17, 0)}, primaryOnly, "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflictsExcludesEventByID(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, pacific)
	detector := detectorWith([]domain.Event{
		timedEvent("self", "primary", at(day, 9, 0), at(day, 10, 0)),
		timedEvent("other", "primary", at(day, 9, 30), at(day, 10, 30)),
	})

	candidate := domain.TimeWindow{Start: at(day, 9, 0), End: at(day, 10, 0)}

	conflicts, err := detector.FindConflicts(context.Background(), candidate, primaryOnly, "self")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "other", conflicts[0].ID)
}

func TestFindConflictsUnknownExcludeIDIsNotAnError(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, pacific)
	detector := detectorWith([]domain.Event{
		timedEvent("busy", "primary", at(day, 9, 0), at(day, 10, 0)),
	})

	conflicts, err := detector.FindConflicts(context.Background(),
		domain.TimeWindow{Start: at(day, 9, 0), End: at(day, 10, 0)}, primaryOnly, "no-such-id")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "busy", conflicts[0].ID)
}

func TestFindConflictsSortedByStart(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, pacific)
	detector := detectorWith([]domain.Event{
		timedEvent("second", "primary", at(day, 10, 0), at(day, 11, 0)),
		timedEvent("first", "primary", at(day, 9, 0), at(day, 10, 30)),
	})

	conflicts, err := detector.FindConflicts(context.Background(),
		domain.TimeWindow{Start: at(day, 9, 30), End: at(day, 10, 30)}, primaryOnly, "")
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	assert.Equal(t, "first", conflicts[0].ID)
	assert.Equal(t, "second", conflicts[1].ID)
}

func TestFindConflictsZeroLengthCandidate(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, pacific)
	detector := detectorWith([]domain.Event{
		timedEvent("busy", "primary", at(day, 9, 0), at(day, 17, 0)),
	})

	conflicts, err := detector.FindConflicts(context.Background(),
		domain.TimeWindow{Start: at(day, 10, 0), End: at(day, 10, 0)}, primaryOnly, "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflictsInvalidCandidate(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, pacific)
	detector := detectorWith(nil)

	_, err := detector.FindConflicts(context.Background(),
		domain.TimeWindow{Start: at(day, 11, 0), End: at(day, 10, 0)}, primaryOnly, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
