package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeClientRequired     = "client_required"
	codeStaffRequired      = "staff_required"
	codeStatusRequired     = "status_required"
	codeInvalidStatus      = "invalid_status"
	codeNoItems            = "no_items"
	codeItemRefRequired    = "item_reference_required"
	codeInvalidTime        = "invalid_time"
	codeIncompleteWindow   = "incomplete_window"
	codeInvalidID          = "invalid_id"
	codeProductNotFound    = "product_not_found"
	codeServiceNotFound    = "service_not_found"
	codeInsufficientStock  = "insufficient_stock"
	codeTicketIDExhausted  = "ticket_id_exhausted"
	codeScheduleConflict   = "schedule_conflict"
	codeTicketNotFound     = "ticket_not_found"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
