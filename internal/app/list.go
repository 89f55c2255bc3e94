package app

import (
	"context"
	"time"

	"github.com/jimz159753/omnia-api/internal/domain"
)

type DateFilter string

const (
	DateFilterAll       DateFilter = "all"
	DateFilterToday     DateFilter = "today"
	DateFilterThisMonth DateFilter = "thisMonth"
	DateFilterCalendar  DateFilter = "calendar"
	DateFilterCustom    DateFilter = "custom"
)

const defaultPageSize = 5

// ListFilter is the boundary-level ticket listing request.
type ListFilter struct {
	Search       string
	Status       domain.TicketStatus
	DateFilter   DateFilter
	SpecificDate *time.Time
	StartDate    *time.Time
	Page         int
	PageSize     int
}

// ListQuery is the storage-level query after date-mode resolution.
// CreatedFrom/CreatedTo bound created_at as a half-open interval
// [from, to); DayOf selects tickets whose appointment falls on that
// calendar day.
type ListQuery struct {
	Search      string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	DayOf       *time.Time
	Limit       int
	Offset      int
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type TicketPage struct {
	Tickets    []domain.Ticket
	Pagination Pagination
}

func (s *TicketService) ListTickets(ctx context.Context, f ListFilter) (TicketPage, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	q := ListQuery{
		Search: f.Search,
		Status: string(f.Status),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}

	now := s.clock.Now()
	switch f.DateFilter {
	case DateFilterToday:
		from := startOfDay(now)
		to := from.AddDate(0, 0, 1)
		q.CreatedFrom, q.CreatedTo = &from, &to
	case DateFilterThisMonth:
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		to := from.AddDate(0, 1, 0)
		q.CreatedFrom, q.CreatedTo = &from, &to
	case DateFilterCalendar:
		if f.SpecificDate != nil {
			day := startOfDay(*f.SpecificDate)
			q.DayOf = &day
		}
	case DateFilterCustom:
		if f.StartDate != nil {
			from := *f.StartDate
			q.CreatedFrom, q.CreatedTo = &from, &now
		}
	}

	tickets, total, err := s.repo.ListTickets(ctx, q)
	if err != nil {
		return TicketPage{}, err
	}

	return TicketPage{
		Tickets: tickets,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: (total + pageSize - 1) / pageSize,
		},
	}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
