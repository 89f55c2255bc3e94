package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jimz159753/omnia-api/internal/app"
	"github.com/jimz159753/omnia-api/internal/domain"
)

type TicketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func (r *TicketRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *TicketRepository) TicketIDExists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM tickets WHERE id = $1)`
	var exists bool
	if err := queryRow(ctx, r.pool, q, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check ticket id: %w", err)
	}
	return exists, nil
}

func (r *TicketRepository) CreateTicket(ctx context.Context, t domain.Ticket) error {
	const stmt = `
INSERT INTO tickets (id, client_id, staff_id, quantity, total, status, notes,
	start_time, end_time, duration_min, calendar_event_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, NULLIF($11, ''), $12)`

	_, err := exec(ctx, r.pool, stmt,
		t.ID,
		t.ClientID,
		t.StaffID,
		t.Quantity,
		t.Total,
		t.Status,
		t.Notes,
		t.StartTime,
		t.EndTime,
		t.DurationMin,
		t.CalendarEventID,
		t.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			// Lost a collision race after the pre-transaction uniqueness
			// check; the caller's transaction rolls back.
			return fmt.Errorf("create ticket: id %s already taken: %w", t.ID, err)
		}
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

func (r *TicketRepository) InsertItems(ctx context.Context, ticketID string, items []domain.LineItem) error {
	const stmt = `
INSERT INTO ticket_items (id, ticket_id, product_id, service_id, quantity, unit_price, discount_pct, total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, it := range items {
		var productID, serviceID *string
		refID := it.RefID
		if it.Kind == domain.ItemKindProduct {
			productID = &refID
		} else {
			serviceID = &refID
		}
		_, err := exec(ctx, r.pool, stmt,
			it.ID, ticketID, productID, serviceID, it.Quantity, it.UnitPrice, it.DiscountPct, it.Total)
		if err != nil {
			if isInvalidUUID(err) || isForeignKeyViolation(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("insert ticket item: %w", err)
		}
	}
	return nil
}

const ticketColumns = `t.id, t.client_id, t.staff_id, t.quantity, t.total, t.status,
	COALESCE(t.notes, ''), t.start_time, t.end_time, t.duration_min,
	COALESCE(t.calendar_event_id, ''), t.created_at`

func (r *TicketRepository) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id = $1`

	t, err := scanTicket(queryRow(ctx, r.pool, q, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}

	items, err := r.itemsFor(ctx, []string{t.ID})
	if err != nil {
		return domain.Ticket{}, err
	}
	t.Items = items[t.ID]
	return t, nil
}

func (r *TicketRepository) ListTickets(ctx context.Context, f app.ListQuery) ([]domain.Ticket, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf(`(
			c.name ILIKE %[1]s
			OR t.status ILIKE %[1]s
			OR EXISTS (SELECT 1 FROM ticket_items ti JOIN products p ON p.id = ti.product_id
				WHERE ti.ticket_id = t.id AND p.name ILIKE %[1]s)
			OR EXISTS (SELECT 1 FROM ticket_items ti JOIN services s ON s.id = ti.service_id
				WHERE ti.ticket_id = t.id AND s.name ILIKE %[1]s))`, p))
	}
	if f.Status != "" {
		where = append(where, "t.status = "+arg(f.Status))
	}
	if f.CreatedFrom != nil {
		where = append(where, "t.created_at >= "+arg(*f.CreatedFrom))
	}
	if f.CreatedTo != nil {
		where = append(where, "t.created_at < "+arg(*f.CreatedTo))
	}
	if f.DayOf != nil {
		from := arg(*f.DayOf)
		to := arg(f.DayOf.AddDate(0, 0, 1))
		where = append(where, fmt.Sprintf("t.start_time >= %s AND t.start_time < %s", from, to))
	}

	from := ` FROM tickets t JOIN clients c ON c.id = t.client_id`
	if len(where) > 0 {
		from += " WHERE " + strings.Join(where, " AND ")
	}

	// The count runs against the same WHERE but without paging, so an
	// offset past the last matching row still reports the full total.
	var total int
	if err := queryRow(ctx, r.pool, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	q := `SELECT ` + ticketColumns + from +
		" ORDER BY t.created_at DESC, t.id" +
		" LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset)

	rows, err := query(ctx, r.pool, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var (
		tickets []domain.Ticket
		ids     []string
	)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}

	if len(ids) > 0 {
		items, err := r.itemsFor(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range tickets {
			tickets[i].Items = items[tickets[i].ID]
		}
	}
	return tickets, total, nil
}

func (r *TicketRepository) UpdateTicket(ctx context.Context, t domain.Ticket) error {
	const stmt = `
UPDATE tickets
SET client_id = $2, staff_id = $3, quantity = $4, total = $5, status = $6,
	notes = NULLIF($7, ''), start_time = $8, end_time = $9, duration_min = $10,
	calendar_event_id = NULLIF($11, '')
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt,
		t.ID, t.ClientID, t.StaffID, t.Quantity, t.Total, t.Status, t.Notes,
		t.StartTime, t.EndTime, t.DurationMin, t.CalendarEventID)
	if err != nil {
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) DeleteItems(ctx context.Context, ticketID string) error {
	if _, err := exec(ctx, r.pool, `DELETE FROM ticket_items WHERE ticket_id = $1`, ticketID); err != nil {
		return fmt.Errorf("delete ticket items: %w", err)
	}
	return nil
}

func (r *TicketRepository) DeleteTicket(ctx context.Context, id string) error {
	tag, err := exec(ctx, r.pool, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) SetCalendarEventID(ctx context.Context, ticketID, eventID string) error {
	const stmt = `UPDATE tickets SET calendar_event_id = NULLIF($2, '') WHERE id = $1`
	tag, err := exec(ctx, r.pool, stmt, ticketID, eventID)
	if err != nil {
		return fmt.Errorf("set calendar event id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) StaffWindows(ctx context.Context, staffID string) ([]app.TimeWindow, error) {
	const q = `
SELECT id, start_time, end_time
FROM tickets
WHERE staff_id = $1 AND start_time IS NOT NULL AND end_time IS NOT NULL`

	rows, err := query(ctx, r.pool, q, staffID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("staff windows: %w", err)
	}
	defer rows.Close()

	var windows []app.TimeWindow
	for rows.Next() {
		var w app.TimeWindow
		if err := rows.Scan(&w.TicketID, &w.Start, &w.End); err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("staff windows: %w", err)
	}
	return windows, nil
}

// itemsFor loads line items for the given tickets in insertion order,
// keyed by ticket id.
func (r *TicketRepository) itemsFor(ctx context.Context, ticketIDs []string) (map[string][]domain.LineItem, error) {
	const q = `
SELECT id, ticket_id, product_id, service_id, quantity, unit_price, discount_pct, total
FROM ticket_items
WHERE ticket_id = ANY($1)
ORDER BY inserted_at, id`

	rows, err := query(ctx, r.pool, q, ticketIDs)
	if err != nil {
		return nil, fmt.Errorf("load ticket items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]domain.LineItem)
	for rows.Next() {
		var (
			it                   domain.LineItem
			productID, serviceID *string
		)
		if err := rows.Scan(&it.ID, &it.TicketID, &productID, &serviceID,
			&it.Quantity, &it.UnitPrice, &it.DiscountPct, &it.Total); err != nil {
			return nil, fmt.Errorf("scan ticket item: %w", err)
		}
		if productID != nil {
			it.Kind = domain.ItemKindProduct
			it.RefID = *productID
		} else if serviceID != nil {
			it.Kind = domain.ItemKindService
			it.RefID = *serviceID
		}
		items[it.TicketID] = append(items[it.TicketID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load ticket items: %w", err)
	}
	return items, nil
}

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.ID, &t.ClientID, &t.StaffID, &t.Quantity, &t.Total, &t.Status,
		&t.Notes, &t.StartTime, &t.EndTime, &t.DurationMin, &t.CalendarEventID, &t.CreatedAt)
	return t, err
}
