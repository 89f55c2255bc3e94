package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jimz159753/omnia-api/internal/app"
	"github.com/jimz159753/omnia-api/internal/domain"
)

// TicketLister is the minimal interface needed to list tickets.
type TicketLister interface {
	ListTickets(ctx context.Context, f app.ListFilter) (app.TicketPage, error)
}

// TicketCreator is the minimal interface needed to create a ticket.
type TicketCreator interface {
	CreateTicket(ctx context.Context, in app.CreateTicketInput) (domain.Ticket, error)
}

// TicketManager is the minimal interface needed for single-ticket
// endpoints.
type TicketManager interface {
	GetTicket(ctx context.Context, id string) (domain.Ticket, error)
	UpdateTicket(ctx context.Context, id string, in app.UpdateTicketInput) (domain.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
}

// HandleTickets returns an HTTP handler for the ticket collection.
func HandleTickets(lister TicketLister, creator TicketCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listTickets(w, r, lister)
		case http.MethodPost:
			createTicket(w, r, creator)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleTicketByID returns an HTTP handler for /tickets/{id}.
func HandleTicketByID(svc TicketManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseTicketPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			ticket, err := svc.GetTicket(r.Context(), id)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, ticketResponseFor(ticket))
		case http.MethodPatch:
			updateTicket(w, r, svc, id)
		case http.MethodDelete:
			if err := svc.DeleteTicket(r.Context(), id); err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

func listTickets(w http.ResponseWriter, r *http.Request, svc TicketLister) {
	q := r.URL.Query()

	filter := app.ListFilter{
		Search:     q.Get("search"),
		Status:     domain.TicketStatus(q.Get("status")),
		DateFilter: app.DateFilter(q.Get("date_filter")),
	}
	if raw := q.Get("page"); raw != "" {
		filter.Page, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("page_size"); raw != "" {
		filter.PageSize, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("specific_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTime, "invalid specific_date")
			return
		}
		filter.SpecificDate = &t
	}
	if raw := q.Get("start_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTime, "invalid start_date")
			return
		}
		filter.StartDate = &t
	}

	page, err := svc.ListTickets(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data := make([]ticketResponse, 0, len(page.Tickets))
	for _, t := range page.Tickets {
		data = append(data, ticketResponseFor(t))
	}
	writeJSON(w, http.StatusOK, listTicketsResponse{
		Data:       data,
		Pagination: page.Pagination,
	})
}

func createTicket(w http.ResponseWriter, r *http.Request, svc TicketCreator) {
	var req createTicketRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	in := app.CreateTicketInput{
		ClientID:    req.ClientID,
		StaffID:     req.StaffID,
		Status:      domain.TicketStatus(req.Status),
		Items:       itemRequests(req.normalizedItems()),
		Notes:       req.Notes,
		DurationMin: req.DurationMin,
	}

	var err error
	if in.StartTime, err = parseOptionalTime(req.StartTime); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidTime, "invalid start_time")
		return
	}
	if in.EndTime, err = parseOptionalTime(req.EndTime); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidTime, "invalid end_time")
		return
	}

	ticket, err := svc.CreateTicket(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticketResponseFor(ticket))
}

func updateTicket(w http.ResponseWriter, r *http.Request, svc TicketManager, id string) {
	var req updateTicketRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	in := app.UpdateTicketInput{
		ClientID:    req.ClientID,
		StaffID:     req.StaffID,
		Notes:       req.Notes,
		DurationMin: req.DurationMin,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		in.Status = &status
	}

	var err error
	if req.StartTime != nil {
		if in.StartTime, err = parseOptionalTime(*req.StartTime); err != nil || in.StartTime == nil {
			writeError(w, http.StatusBadRequest, codeInvalidTime, "invalid start_time")
			return
		}
	}
	if req.EndTime != nil {
		if in.EndTime, err = parseOptionalTime(*req.EndTime); err != nil || in.EndTime == nil {
			writeError(w, http.StatusBadRequest, codeInvalidTime, "invalid end_time")
			return
		}
	}
	if req.Items != nil {
		items := itemRequests(*req.Items)
		in.Items = &items
	}

	ticket, err := svc.UpdateTicket(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticketResponseFor(ticket))
}

func writeDomainError(w http.ResponseWriter, err error) {
	var stock *domain.InsufficientStockError
	if errors.As(err, &stock) {
		writeError(w, http.StatusBadRequest, codeInsufficientStock, stock.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrTicketNotFound):
		writeError(w, http.StatusNotFound, codeTicketNotFound, err.Error())
	case errors.Is(err, domain.ErrClientRequired):
		writeError(w, http.StatusBadRequest, codeClientRequired, err.Error())
	case errors.Is(err, domain.ErrStaffRequired):
		writeError(w, http.StatusBadRequest, codeStaffRequired, err.Error())
	case errors.Is(err, domain.ErrStatusRequired):
		writeError(w, http.StatusBadRequest, codeStatusRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	case errors.Is(err, domain.ErrNoItems):
		writeError(w, http.StatusBadRequest, codeNoItems, err.Error())
	case errors.Is(err, domain.ErrItemReferenceRequired):
		writeError(w, http.StatusBadRequest, codeItemRefRequired, err.Error())
	case errors.Is(err, domain.ErrIncompleteWindow):
		writeError(w, http.StatusBadRequest, codeIncompleteWindow, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidProductRef):
		writeError(w, http.StatusBadRequest, codeProductNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidServiceRef):
		writeError(w, http.StatusBadRequest, codeServiceNotFound, err.Error())
	case errors.Is(err, domain.ErrTicketIDExhausted):
		writeError(w, http.StatusBadRequest, codeTicketIDExhausted, err.Error())
	case errors.Is(err, domain.ErrScheduleConflict):
		writeError(w, http.StatusConflict, codeScheduleConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseTicketPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "tickets" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func parseOptionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

type itemRequest struct {
	ProductID   string   `json:"product_id"`
	ServiceID   string   `json:"service_id"`
	Quantity    int      `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	Total       *float64 `json:"total"`
	DiscountPct float64  `json:"discount_pct"`
}

type createTicketRequest struct {
	ClientID    string        `json:"client_id"`
	StaffID     string        `json:"staff_id"`
	Status      string        `json:"status"`
	Items       []itemRequest `json:"items"`
	Notes       string        `json:"notes"`
	StartTime   string        `json:"start_time"`
	EndTime     string        `json:"end_time"`
	DurationMin *int          `json:"duration_min"`

	// Legacy single-item fields, kept for older dashboard clients.
	ProductID string   `json:"product_id"`
	ServiceID string   `json:"service_id"`
	Quantity  int      `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
}

// normalizedItems folds the legacy top-level single-item fields into the
// items list when no list is given.
func (r createTicketRequest) normalizedItems() []itemRequest {
	if len(r.Items) > 0 || (r.ProductID == "" && r.ServiceID == "") {
		return r.Items
	}
	return []itemRequest{{
		ProductID: r.ProductID,
		ServiceID: r.ServiceID,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
	}}
}

type updateTicketRequest struct {
	ClientID    *string        `json:"client_id"`
	StaffID     *string        `json:"staff_id"`
	Status      *string        `json:"status"`
	Notes       *string        `json:"notes"`
	StartTime   *string        `json:"start_time"`
	EndTime     *string        `json:"end_time"`
	DurationMin *int           `json:"duration_min"`
	Items       *[]itemRequest `json:"items"`
}

func itemRequests(items []itemRequest) []app.LineItemRequest {
	out := make([]app.LineItemRequest, len(items))
	for i, it := range items {
		out[i] = app.LineItemRequest{
			ProductID:   it.ProductID,
			ServiceID:   it.ServiceID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
			DiscountPct: it.DiscountPct,
		}
	}
	return out
}

type itemResponse struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	ProductID   string  `json:"product_id,omitempty"`
	ServiceID   string  `json:"service_id,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	DiscountPct float64 `json:"discount_pct"`
	Total       float64 `json:"total"`
}

type ticketResponse struct {
	ID              string         `json:"id"`
	ClientID        string         `json:"client_id"`
	StaffID         string         `json:"staff_id"`
	Quantity        int            `json:"quantity"`
	Total           float64        `json:"total"`
	Status          string         `json:"status"`
	Notes           string         `json:"notes,omitempty"`
	StartTime       *time.Time     `json:"start_time,omitempty"`
	EndTime         *time.Time     `json:"end_time,omitempty"`
	DurationMin     *int           `json:"duration_min,omitempty"`
	CalendarEventID string         `json:"calendar_event_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	Items           []itemResponse `json:"items"`
}

type listTicketsResponse struct {
	Data       []ticketResponse `json:"data"`
	Pagination app.Pagination   `json:"pagination"`
}

func ticketResponseFor(t domain.Ticket) ticketResponse {
	items := make([]itemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		item := itemResponse{
			ID:          it.ID,
			Kind:        string(it.Kind),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			DiscountPct: it.DiscountPct,
			Total:       it.Total,
		}
		if it.Kind == domain.ItemKindProduct {
			item.ProductID = it.RefID
		} else {
			item.ServiceID = it.RefID
		}
		items = append(items, item)
	}
	return ticketResponse{
		ID:              t.ID,
		ClientID:        t.ClientID,
		StaffID:         t.StaffID,
		Quantity:        t.Quantity,
		Total:           t.Total,
		Status:          string(t.Status),
		Notes:           t.Notes,
		StartTime:       t.StartTime,
		EndTime:         t.EndTime,
		DurationMin:     t.DurationMin,
		CalendarEventID: t.CalendarEventID,
		CreatedAt:       t.CreatedAt,
		Items:           items,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
