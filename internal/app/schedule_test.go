package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSchedule struct {
	windows map[string][]TimeWindow
}

func (f *fakeSchedule) StaffWindows(_ context.Context, staffID string) ([]TimeWindow, error) {
	return f.windows[staffID], nil
}

func TestConflictDetector_HasConflict(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	detector := NewConflictDetector(&fakeSchedule{
		windows: map[string][]TimeWindow{
			"staff-1": {
				{TicketID: "TK-2026-AAAAAA", Start: at(10, 0), End: at(11, 0)},
			},
		},
	})
	ctx := context.Background()

	t.Run("overlapping window conflicts", func(t *testing.T) {
		conflict, err := detector.HasConflict(ctx, "staff-1", at(10, 30), at(11, 30), "")
		require.NoError(t, err)
		require.True(t, conflict)
	})

	t.Run("touching boundary does not conflict", func(t *testing.T) {
		conflict, err := detector.HasConflict(ctx, "staff-1", at(11, 0), at(12, 0), "")
		require.NoError(t, err)
		require.False(t, conflict)
	})

	t.Run("different staff does not conflict", func(t *testing.T) {
		conflict, err := detector.HasConflict(ctx, "staff-2", at(10, 30), at(11, 30), "")
		require.NoError(t, err)
		require.False(t, conflict)
	})

	t.Run("own ticket is excluded", func(t *testing.T) {
		conflict, err := detector.HasConflict(ctx, "staff-1", at(10, 0), at(11, 0), "TK-2026-AAAAAA")
		require.NoError(t, err)
		require.False(t, conflict)
	})

	t.Run("contained window conflicts", func(t *testing.T) {
		conflict, err := detector.HasConflict(ctx, "staff-1", at(10, 15), at(10, 45), "")
		require.NoError(t, err)
		require.True(t, conflict)
	})
}
