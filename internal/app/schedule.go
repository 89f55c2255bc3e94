package app

import (
	"context"
	"time"
)

// TimeWindow is an existing booked window for a staff member.
type TimeWindow struct {
	TicketID string
	Start    time.Time
	End      time.Time
}

type StaffScheduleReader interface {
	StaffWindows(ctx context.Context, staffID string) ([]TimeWindow, error)
}

// ConflictDetector flags overlapping staff bookings. The check is
// advisory: reads are not locked against concurrent writes, and whether a
// conflict blocks the write is decided by the caller.
type ConflictDetector struct {
	schedule StaffScheduleReader
}

func NewConflictDetector(schedule StaffScheduleReader) *ConflictDetector {
	return &ConflictDetector{schedule: schedule}
}

// HasConflict reports whether [start, end) overlaps any existing window
// for the staff member, half-open: a window ending exactly at start does
// not conflict. excludeTicketID skips a ticket's own prior booking so an
// update never conflicts with itself.
func (d *ConflictDetector) HasConflict(ctx context.Context, staffID string, start, end time.Time, excludeTicketID string) (bool, error) {
	windows, err := d.schedule.StaffWindows(ctx, staffID)
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		if excludeTicketID != "" && w.TicketID == excludeTicketID {
			continue
		}
		if w.Start.Before(end) && start.Before(w.End) {
			return true, nil
		}
	}
	return false, nil
}
