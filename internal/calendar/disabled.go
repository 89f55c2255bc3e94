package calendar

import (
	"context"

	"github.com/jimz159753/omnia-api/internal/app"
)

// Disabled is wired when no calendar bridge is configured. CreateEvent
// returns an empty id, so tickets never get a calendar event to keep in
// sync.
type Disabled struct{}

func (Disabled) CreateEvent(context.Context, app.CalendarEvent) (string, error) { return "", nil }

func (Disabled) UpdateEvent(context.Context, string, app.CalendarEvent) error { return nil }

func (Disabled) DeleteEvent(context.Context, string) error { return nil }
