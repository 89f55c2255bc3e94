package app

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jimz159753/omnia-api/internal/clock"
	"github.com/jimz159753/omnia-api/internal/domain"
)

type TicketRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateTicket(ctx context.Context, t domain.Ticket) error
	InsertItems(ctx context.Context, ticketID string, items []domain.LineItem) error
	GetTicket(ctx context.Context, id string) (domain.Ticket, error)
	ListTickets(ctx context.Context, f ListQuery) ([]domain.Ticket, int, error)
	UpdateTicket(ctx context.Context, t domain.Ticket) error
	DeleteItems(ctx context.Context, ticketID string) error
	DeleteTicket(ctx context.Context, id string) error
	SetCalendarEventID(ctx context.Context, ticketID, eventID string) error
}

// InventoryReserver validates and decrements stock for every product in
// the map. It must run inside the transaction carried by ctx; partial
// decrements are never visible.
type InventoryReserver interface {
	Reserve(ctx context.Context, required map[string]int) error
}

// CalendarEvent is the payload mirrored to the external calendar.
type CalendarEvent struct {
	Title string
	Notes string
	Start time.Time
	End   time.Time
}

// CalendarSync mirrors tickets with a time window to an external
// calendar. Every call is best-effort: errors are logged by the caller
// and never affect the ticket write.
type CalendarSync interface {
	CreateEvent(ctx context.Context, ev CalendarEvent) (string, error)
	UpdateEvent(ctx context.Context, eventID string, ev CalendarEvent) error
	DeleteEvent(ctx context.Context, eventID string) error
}

const defaultSyncTimeout = 5 * time.Second

// TicketService composes ordering, inventory reservation, id generation,
// conflict detection, persistence, and calendar sync into the ticket
// operations exposed at the boundary.
type TicketService struct {
	repo             TicketRepository
	inventory        InventoryReserver
	composer         *Composer
	ids              *TicketIDGenerator
	conflicts        *ConflictDetector
	calendar         CalendarSync
	clock            clock.Clock
	logger           *log.Logger
	enforceConflicts bool
	syncTimeout      time.Duration
}

type TicketServiceOption func(*TicketService)

// WithConflictEnforcement makes an overlapping staff window reject the
// write. Disabled by default so a staff member can serve concurrent
// appointments.
func WithConflictEnforcement(enabled bool) TicketServiceOption {
	return func(s *TicketService) {
		s.enforceConflicts = enabled
	}
}

// WithSyncTimeout bounds each calendar-sync call.
func WithSyncTimeout(d time.Duration) TicketServiceOption {
	return func(s *TicketService) {
		if d > 0 {
			s.syncTimeout = d
		}
	}
}

func WithLogger(l *log.Logger) TicketServiceOption {
	return func(s *TicketService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewTicketService(
	repo TicketRepository,
	inventory InventoryReserver,
	composer *Composer,
	ids *TicketIDGenerator,
	conflicts *ConflictDetector,
	calendar CalendarSync,
	clk clock.Clock,
	opts ...TicketServiceOption,
) *TicketService {
	svc := &TicketService{
		repo:        repo,
		inventory:   inventory,
		composer:    composer,
		ids:         ids,
		conflicts:   conflicts,
		calendar:    calendar,
		clock:       clk,
		logger:      log.Default(),
		syncTimeout: defaultSyncTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CreateTicketInput struct {
	ClientID    string
	StaffID     string
	Status      domain.TicketStatus
	Items       []LineItemRequest
	Notes       string
	StartTime   *time.Time
	EndTime     *time.Time
	DurationMin *int
}

func (s *TicketService) CreateTicket(ctx context.Context, in CreateTicketInput) (domain.Ticket, error) {
	if in.ClientID == "" {
		return domain.Ticket{}, domain.ErrClientRequired
	}
	if in.StaffID == "" {
		return domain.Ticket{}, domain.ErrStaffRequired
	}
	if in.Status == "" {
		return domain.Ticket{}, domain.ErrStatusRequired
	}
	if !domain.ValidStatus(in.Status) {
		return domain.Ticket{}, domain.ErrInvalidStatus
	}
	if (in.StartTime == nil) != (in.EndTime == nil) {
		return domain.Ticket{}, domain.ErrIncompleteWindow
	}

	order, err := s.composer.Compose(ctx, in.Items)
	if err != nil {
		return domain.Ticket{}, err
	}

	id, err := s.ids.Generate(ctx)
	if err != nil {
		return domain.Ticket{}, err
	}

	if s.enforceConflicts && in.StartTime != nil {
		conflict, err := s.conflicts.HasConflict(ctx, in.StaffID, *in.StartTime, *in.EndTime, "")
		if err != nil {
			return domain.Ticket{}, err
		}
		if conflict {
			return domain.Ticket{}, domain.ErrScheduleConflict
		}
	}

	ticket := domain.Ticket{
		ID:          id,
		ClientID:    in.ClientID,
		StaffID:     in.StaffID,
		Quantity:    order.TotalQuantity,
		Total:       order.Total,
		Status:      in.Status,
		Notes:       in.Notes,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		DurationMin: resolveDuration(in.DurationMin, in.StartTime, in.EndTime),
		CreatedAt:   s.clock.Now(),
		Items:       attachItems(id, order.Items),
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if len(order.RequiredStock) > 0 {
			if err := s.inventory.Reserve(txCtx, order.RequiredStock); err != nil {
				return err
			}
		}
		if err := s.repo.CreateTicket(txCtx, ticket); err != nil {
			return err
		}
		return s.repo.InsertItems(txCtx, ticket.ID, ticket.Items)
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	if ticket.HasWindow() {
		s.syncCreate(ctx, &ticket)
	}
	return ticket, nil
}

type UpdateTicketInput struct {
	ClientID    *string
	StaffID     *string
	Status      *domain.TicketStatus
	Notes       *string
	StartTime   *time.Time
	EndTime     *time.Time
	DurationMin *int
	// Items replaces the full line-item set when non-nil; an empty slice
	// clears all items, nil leaves them untouched.
	Items *[]LineItemRequest
}

func (s *TicketService) UpdateTicket(ctx context.Context, id string, in UpdateTicketInput) (domain.Ticket, error) {
	ticket, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return domain.Ticket{}, err
	}

	if in.ClientID != nil {
		if *in.ClientID == "" {
			return domain.Ticket{}, domain.ErrClientRequired
		}
		ticket.ClientID = *in.ClientID
	}
	if in.StaffID != nil {
		if *in.StaffID == "" {
			return domain.Ticket{}, domain.ErrStaffRequired
		}
		ticket.StaffID = *in.StaffID
	}
	if in.Status != nil {
		if !domain.ValidStatus(*in.Status) {
			return domain.Ticket{}, domain.ErrInvalidStatus
		}
		ticket.Status = *in.Status
	}
	if in.Notes != nil {
		ticket.Notes = *in.Notes
	}

	timeChanged := in.StartTime != nil || in.EndTime != nil
	if in.StartTime != nil {
		ticket.StartTime = in.StartTime
	}
	if in.EndTime != nil {
		ticket.EndTime = in.EndTime
	}
	if (ticket.StartTime == nil) != (ticket.EndTime == nil) {
		return domain.Ticket{}, domain.ErrIncompleteWindow
	}
	if in.DurationMin != nil {
		ticket.DurationMin = in.DurationMin
	} else if timeChanged {
		ticket.DurationMin = resolveDuration(nil, ticket.StartTime, ticket.EndTime)
	}

	// Moving the window or reassigning the staff member can both land the
	// ticket on an already-booked window.
	if s.enforceConflicts && (timeChanged || in.StaffID != nil) && ticket.HasWindow() {
		conflict, err := s.conflicts.HasConflict(ctx, ticket.StaffID, *ticket.StartTime, *ticket.EndTime, ticket.ID)
		if err != nil {
			return domain.Ticket{}, err
		}
		if conflict {
			return domain.Ticket{}, domain.ErrScheduleConflict
		}
	}

	if in.Items != nil {
		if len(*in.Items) == 0 {
			ticket.Items = nil
			ticket.Quantity = 0
			ticket.Total = 0
		} else {
			order, err := s.composer.Compose(ctx, *in.Items)
			if err != nil {
				return domain.Ticket{}, err
			}
			ticket.Items = attachItems(ticket.ID, order.Items)
			ticket.Quantity = order.TotalQuantity
			ticket.Total = order.Total
		}
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if in.Items != nil {
			if err := s.repo.DeleteItems(txCtx, ticket.ID); err != nil {
				return err
			}
			if len(ticket.Items) > 0 {
				if err := s.repo.InsertItems(txCtx, ticket.ID, ticket.Items); err != nil {
					return err
				}
			}
		}
		return s.repo.UpdateTicket(txCtx, ticket)
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	if ticket.CalendarEventID != "" {
		s.syncUpdate(ctx, ticket)
	} else if ticket.HasWindow() {
		s.syncCreate(ctx, &ticket)
	}
	return ticket, nil
}

func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	ticket, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return err
	}

	// Stock reserved by this ticket is intentionally not restored.
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteItems(txCtx, id); err != nil {
			return err
		}
		return s.repo.DeleteTicket(txCtx, id)
	})
	if err != nil {
		return err
	}

	if ticket.CalendarEventID != "" {
		syncCtx, cancel := s.syncContext(ctx)
		defer cancel()
		if err := s.calendar.DeleteEvent(syncCtx, ticket.CalendarEventID); err != nil {
			s.logger.Printf("calendar sync: delete event %s for ticket %s: %v", ticket.CalendarEventID, id, err)
		}
	}
	return nil
}

func (s *TicketService) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	return s.repo.GetTicket(ctx, id)
}

// syncCreate mirrors the ticket to the calendar and persists the returned
// event id for later updates. Failures are logged only.
func (s *TicketService) syncCreate(ctx context.Context, ticket *domain.Ticket) {
	syncCtx, cancel := s.syncContext(ctx)
	defer cancel()

	eventID, err := s.calendar.CreateEvent(syncCtx, calendarEventFor(*ticket))
	if err != nil {
		s.logger.Printf("calendar sync: create event for ticket %s: %v", ticket.ID, err)
		return
	}
	if eventID == "" {
		return
	}
	if err := s.repo.SetCalendarEventID(syncCtx, ticket.ID, eventID); err != nil {
		s.logger.Printf("calendar sync: persist event id for ticket %s: %v", ticket.ID, err)
		return
	}
	ticket.CalendarEventID = eventID
}

func (s *TicketService) syncUpdate(ctx context.Context, ticket domain.Ticket) {
	syncCtx, cancel := s.syncContext(ctx)
	defer cancel()

	if err := s.calendar.UpdateEvent(syncCtx, ticket.CalendarEventID, calendarEventFor(ticket)); err != nil {
		s.logger.Printf("calendar sync: update event %s for ticket %s: %v", ticket.CalendarEventID, ticket.ID, err)
	}
}

// syncContext detaches from the request so an abandoned request does not
// cancel an in-flight sync, while still bounding it with a timeout.
func (s *TicketService) syncContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.syncTimeout)
}

func calendarEventFor(t domain.Ticket) CalendarEvent {
	ev := CalendarEvent{
		Title: "Ticket " + t.ID,
		Notes: t.Notes,
	}
	if t.StartTime != nil {
		ev.Start = *t.StartTime
	}
	if t.EndTime != nil {
		ev.End = *t.EndTime
	}
	return ev
}

func attachItems(ticketID string, items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	for i, it := range items {
		it.ID = uuid.NewString()
		it.TicketID = ticketID
		out[i] = it
	}
	return out
}

// resolveDuration picks an explicit duration over one derived from the
// window, in rounded minutes.
func resolveDuration(explicit *int, start, end *time.Time) *int {
	if explicit != nil {
		return explicit
	}
	if start == nil || end == nil {
		return nil
	}
	minutes := int(math.Round(end.Sub(*start).Minutes()))
	return &minutes
}
