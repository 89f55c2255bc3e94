package domain

import "time"

type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusConfirmed TicketStatus = "confirmed"
	TicketStatusCompleted TicketStatus = "completed"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// ValidStatus reports whether s is one of the known ticket statuses.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusPending, TicketStatusConfirmed, TicketStatusCompleted, TicketStatusCancelled:
		return true
	}
	return false
}

// Ticket is a commercial/appointment record composed of line items.
// StartTime and EndTime are either both set or both nil; DurationMin is
// recomputed whenever either changes.
type Ticket struct {
	ID              string
	ClientID        string
	StaffID         string
	Quantity        int
	Total           float64
	Status          TicketStatus
	Notes           string
	StartTime       *time.Time
	EndTime         *time.Time
	DurationMin     *int
	CalendarEventID string
	CreatedAt       time.Time
	Items           []LineItem
}

// HasWindow reports whether the ticket carries a complete time window.
func (t Ticket) HasWindow() bool {
	return t.StartTime != nil && t.EndTime != nil
}
