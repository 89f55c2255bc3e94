package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jimz159753/omnia-api/internal/app"
	"github.com/jimz159753/omnia-api/internal/domain"
	"github.com/jimz159753/omnia-api/internal/testutil"
)

func insertTicket(t *testing.T, ctx context.Context, repo *TicketRepository, ticket domain.Ticket) {
	t.Helper()
	err := repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := repo.CreateTicket(txCtx, ticket); err != nil {
			return err
		}
		return repo.InsertItems(txCtx, ticket.ID, ticket.Items)
	})
	if err != nil {
		t.Fatalf("insert ticket: %v", err)
	}
}

func TestTicketRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewTicketRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("CreateTicket and GetTicket round-trip with items", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		clientID, staffID := testutil.InsertClientAndStaff(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, "Shampoo", 10, 25, 5)
		serviceID := testutil.InsertService(t, ctx, pool, "Haircut", 50, 30)

		start := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
		end := start.Add(time.Hour)
		duration := 60

		product := domain.ProductItem(productID, 2, 10, 20)
		product.ID = uuid.NewString()
		service := domain.ServiceItem(serviceID, 1, 50, 50)
		service.ID = uuid.NewString()

		ticket := domain.Ticket{
			ID:          "TK-2026-AAAAAA",
			ClientID:    clientID,
			StaffID:     staffID,
			Quantity:    3,
			Total:       70,
			Status:      domain.TicketStatusPending,
			Notes:       "walk-in",
			StartTime:   &start,
			EndTime:     &end,
			DurationMin: &duration,
			CreatedAt:   time.Now().UTC(),
			Items:       []domain.LineItem{product, service},
		}
		insertTicket(t, ctx, repo, ticket)

		got, err := repo.GetTicket(ctx, ticket.ID)
		if err != nil {
			t.Fatalf("get ticket: %v", err)
		}
		if got.ClientID != clientID || got.StaffID != staffID {
			t.Fatalf("unexpected references: %+v", got)
		}
		if got.Quantity != 3 || got.Total != 70 || got.Notes != "walk-in" {
			t.Fatalf("unexpected fields: %+v", got)
		}
		if got.StartTime == nil || !got.StartTime.Equal(start) {
			t.Fatalf("unexpected start time: %v", got.StartTime)
		}
		if got.DurationMin == nil || *got.DurationMin != 60 {
			t.Fatalf("unexpected duration: %v", got.DurationMin)
		}
		if len(got.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(got.Items))
		}
		if got.Items[0].Kind != domain.ItemKindProduct || got.Items[0].RefID != productID {
			t.Fatalf("unexpected first item: %+v", got.Items[0])
		}
		if got.Items[1].Kind != domain.ItemKindService || got.Items[1].RefID != serviceID {
			t.Fatalf("unexpected second item: %+v", got.Items[1])
		}
	})

	t.Run("GetTicket missing returns ErrTicketNotFound", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		_, err := repo.GetTicket(ctx, "TK-2026-ZZZZZZ")
		if err != domain.ErrTicketNotFound {
			t.Fatalf("expected ErrTicketNotFound, got %v", err)
		}
	})

	t.Run("CreateTicket with unknown client returns ErrInvalidID", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		_, staffID := testutil.InsertClientAndStaff(t, ctx, pool)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.CreateTicket(txCtx, domain.Ticket{
				ID:        "TK-2026-BBBBBB",
				ClientID:  "00000000-0000-0000-0000-000000000001",
				StaffID:   staffID,
				Status:    domain.TicketStatusPending,
				CreatedAt: time.Now().UTC(),
			})
		})
		if err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}

		err = repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.CreateTicket(txCtx, domain.Ticket{
				ID:        "TK-2026-CCCCCC",
				ClientID:  "not-a-uuid",
				StaffID:   staffID,
				Status:    domain.TicketStatusPending,
				CreatedAt: time.Now().UTC(),
			})
		})
		if err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID for malformed uuid, got %v", err)
		}
	})

	t.Run("TicketIDExists", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		clientID, staffID := testutil.InsertClientAndStaff(t, ctx, pool)

		insertTicket(t, ctx, repo, domain.Ticket{
			ID: "TK-2026-DDDDDD", ClientID: clientID, StaffID: staffID,
			Status: domain.TicketStatusPending, CreatedAt: time.Now().UTC(),
		})

		exists, err := repo.TicketIDExists(ctx, "TK-2026-DDDDDD")
		if err != nil || !exists {
			t.Fatalf("expected exists=true, got %v %v", exists, err)
		}
		exists, err = repo.TicketIDExists(ctx, "TK-2026-EEEEEE")
		if err != nil || exists {
			t.Fatalf("expected exists=false, got %v %v", exists, err)
		}
	})

	t.Run("UpdateTicket rewrites fields and reports missing rows", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		clientID, staffID := testutil.InsertClientAndStaff(t, ctx, pool)

		ticket := domain.Ticket{
			ID: "TK-2026-FFFFFF", ClientID: clientID, StaffID: staffID,
			Status: domain.TicketStatusPending, CreatedAt: time.Now().UTC(),
		}
		insertTicket(t, ctx, repo, ticket)

		ticket.Status = domain.TicketStatusCompleted
		ticket.Notes = "settled"
		ticket.Total = 130
		if err := repo.UpdateTicket(ctx, ticket); err != nil {
			t.Fatalf("update ticket: %v", err)
		}

		got, err := repo.GetTicket(ctx, ticket.ID)
		if err != nil {
			t.Fatalf("get ticket: %v", err)
		}
		if got.Status != domain.TicketStatusCompleted || got.Notes != "settled" || got.Total != 130 {
			t.Fatalf("update not applied: %+v", got)
		}

		missing := ticket
		missing.ID = "TK-2026-GGGGGG"
		if err := repo.UpdateTicket(ctx, missing); err != domain.ErrTicketNotFound {
			t.Fatalf("expected ErrTicketNotFound, got %v", err)
		}
	})

	t.Run("DeleteTicket removes the row after its items", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		clientID, staffID := testutil.InsertClientAndStaff(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, "Wax", 4, 12, 10)

		item := domain.ProductItem(productID, 1, 4, 4)
		item.ID = uuid.NewString()
		ticket := domain.Ticket{
			ID: "TK-2026-HHHHHH", ClientID: clientID, StaffID: staffID,
			Status: domain.TicketStatusPending, CreatedAt: time.Now().UTC(),
			Items: []domain.LineItem{item},
		}
		insertTicket(t, ctx, repo, ticket)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := repo.DeleteItems(txCtx, ticket.ID); err != nil {
				return err
			}
			return repo.DeleteTicket(txCtx, ticket.ID)
		})
		if err != nil {
			t.Fatalf("delete: %v", err)
		}

		if _, err := repo.GetTicket(ctx, ticket.ID); err != domain.ErrTicketNotFound {
			t.Fatalf("expected ErrTicketNotFound after delete, got %v", err)
		}
		if err := repo.DeleteTicket(ctx, ticket.ID); err != domain.ErrTicketNotFound {
			t.Fatalf("expected ErrTicketNotFound on second delete, got %v", err)
		}
	})

	t.Run("SetCalendarEventID", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		clientID, staffID := testutil.InsertClientAndStaff(t, ctx, pool)

		insertTicket(t, ctx, repo, domain.Ticket{
			ID: "TK-2026-IIIIII", ClientID: clientID, StaffID: staffID,
			Status: domain.TicketStatusPending, CreatedAt: time.Now().UTC(),
		})

		if err := repo.SetCalendarEventID(ctx, "TK-2026-IIIIII", "ev-1"); err != nil {
			t.Fatalf("set calendar event id: %v", err)
		}
		got, err := repo.GetTicket(ctx, "TK-2026-IIIIII")
		if err != nil {
			t.Fatalf("get ticket: %v", err)
		}
		if got.CalendarEventID != "ev-1" {
			t.Fatalf("expected event id ev-1, got %q", got.CalendarEventID)
		}

		if err := repo.SetCalendarEventID(ctx, "TK-2026-JJJJJJ", "ev-2"); err != domain.ErrTicketNotFound {
			t.Fatalf("expected ErrTicketNotFound, got %v", err)
		}
	})

	t.Run("StaffWindows returns windowed tickets for the staff member", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		clientID, staffID := testutil.InsertClientAndStaff(t, ctx, pool)

		start := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
		end := start.Add(time.Hour)
		insertTicket(t, ctx, repo, domain.Ticket{
			ID: "TK-2026-KKKKKK", ClientID: clientID, StaffID: staffID,
			Status: domain.TicketStatusPending, CreatedAt: time.Now().UTC(),
			StartTime: &start, EndTime: &end,
		})
		insertTicket(t, ctx, repo, domain.Ticket{
			ID: "TK-2026-LLLLLL", ClientID: clientID, StaffID: staffID,
			Status: domain.TicketStatusPending, CreatedAt: time.Now().UTC(),
		})

		windows, err := repo.StaffWindows(ctx, staffID)
		if err != nil {
			t.Fatalf("staff windows: %v", err)
		}
		if len(windows) != 1 {
			t.Fatalf("expected 1 window, got %d", len(windows))
		}
		if windows[0].TicketID != "TK-2026-KKKKKK" || !windows[0].Start.Equal(start) || !windows[0].End.Equal(end) {
			t.Fatalf("unexpected window: %+v", windows[0])
		}
	})
}

func TestTicketRepository_ListTickets(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewTicketRepository(pool)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	clientID, staffID := testutil.InsertClientAndStaff(t, ctx, pool)
	productID := testutil.InsertProduct(t, ctx, pool, "Keratin Mask", 8, 22, 10)

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	appointment := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	appointmentEnd := appointment.Add(time.Hour)

	statuses := []domain.TicketStatus{
		domain.TicketStatusPending,
		domain.TicketStatusConfirmed,
		domain.TicketStatusCompleted,
	}
	ids := []string{"TK-2026-LSAAAA", "TK-2026-LSBBBB", "TK-2026-LSCCCC"}
	for i, id := range ids {
		ticket := domain.Ticket{
			ID: id, ClientID: clientID, StaffID: staffID,
			Status:    statuses[i],
			CreatedAt: base.AddDate(0, 0, i),
		}
		if i == 2 {
			ticket.StartTime = &appointment
			ticket.EndTime = &appointmentEnd
			item := domain.ProductItem(productID, 1, 8, 8)
			item.ID = uuid.NewString()
			ticket.Items = []domain.LineItem{item}
		}
		insertTicket(t, ctx, repo, ticket)
	}

	t.Run("orders newest first with the full match count", func(t *testing.T) {
		tickets, total, err := repo.ListTickets(ctx, app.ListQuery{Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 3 || len(tickets) != 3 {
			t.Fatalf("expected 3/3, got %d/%d", total, len(tickets))
		}
		if tickets[0].ID != "TK-2026-LSCCCC" || tickets[2].ID != "TK-2026-LSAAAA" {
			t.Fatalf("unexpected order: %s .. %s", tickets[0].ID, tickets[2].ID)
		}
		if len(tickets[0].Items) != 1 {
			t.Fatalf("expected items attached, got %d", len(tickets[0].Items))
		}
	})

	t.Run("limit and offset page through the full total", func(t *testing.T) {
		tickets, total, err := repo.ListTickets(ctx, app.ListQuery{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 3 {
			t.Fatalf("expected total 3, got %d", total)
		}
		if len(tickets) != 1 || tickets[0].ID != "TK-2026-LSAAAA" {
			t.Fatalf("unexpected page: %+v", tickets)
		}
	})

	t.Run("offset past the last row still reports the full total", func(t *testing.T) {
		tickets, total, err := repo.ListTickets(ctx, app.ListQuery{Limit: 5, Offset: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 3 {
			t.Fatalf("expected total 3 on an empty page, got %d", total)
		}
		if len(tickets) != 0 {
			t.Fatalf("expected empty page, got %+v", tickets)
		}
	})

	t.Run("filters by status", func(t *testing.T) {
		tickets, total, err := repo.ListTickets(ctx, app.ListQuery{Status: "confirmed", Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 1 || len(tickets) != 1 || tickets[0].ID != "TK-2026-LSBBBB" {
			t.Fatalf("unexpected result: total=%d %+v", total, tickets)
		}
	})

	t.Run("search matches client name case-insensitively", func(t *testing.T) {
		_, total, err := repo.ListTickets(ctx, app.ListQuery{Search: "ana tor", Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 3 {
			t.Fatalf("expected all 3 tickets for the client, got %d", total)
		}
	})

	t.Run("search matches product name through items", func(t *testing.T) {
		tickets, total, err := repo.ListTickets(ctx, app.ListQuery{Search: "keratin", Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 1 || tickets[0].ID != "TK-2026-LSCCCC" {
			t.Fatalf("unexpected result: total=%d %+v", total, tickets)
		}
	})

	t.Run("search with no hits returns an empty page", func(t *testing.T) {
		tickets, total, err := repo.ListTickets(ctx, app.ListQuery{Search: "nonexistent", Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 0 || len(tickets) != 0 {
			t.Fatalf("expected empty result, got total=%d %+v", total, tickets)
		}
	})

	t.Run("bounds created_at as a half-open interval", func(t *testing.T) {
		from := base.AddDate(0, 0, 1)
		to := base.AddDate(0, 0, 2)
		tickets, total, err := repo.ListTickets(ctx, app.ListQuery{CreatedFrom: &from, CreatedTo: &to, Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		// TK-2026-LSCCCC is created exactly at the upper bound and belongs
		// to the next window, not this one.
		if total != 1 || tickets[0].ID != "TK-2026-LSBBBB" {
			t.Fatalf("expected only the middle ticket, got total=%d %+v", total, tickets)
		}
	})

	t.Run("day-of targets the appointment day", func(t *testing.T) {
		day := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
		tickets, total, err := repo.ListTickets(ctx, app.ListQuery{DayOf: &day, Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 1 || tickets[0].ID != "TK-2026-LSCCCC" {
			t.Fatalf("unexpected result: total=%d %+v", total, tickets)
		}

		empty := day.AddDate(0, 0, 1)
		_, total, err = repo.ListTickets(ctx, app.ListQuery{DayOf: &empty, Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 0 {
			t.Fatalf("expected no tickets the day after, got %d", total)
		}
	})
}
