package domain

import (
	"errors"
	"fmt"
)

var (
	ErrClientRequired        = errors.New("client is required")
	ErrStaffRequired         = errors.New("staff is required")
	ErrStatusRequired        = errors.New("status is required")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrNoItems               = errors.New("at least one item is required")
	ErrItemReferenceRequired = errors.New("item needs a product or service reference")
	ErrInvalidProductRef     = errors.New("product not found")
	ErrInvalidServiceRef     = errors.New("service not found")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrTicketIDExhausted     = errors.New("ticket id generation exhausted")
	ErrScheduleConflict      = errors.New("staff already booked for this time window")
	ErrIncompleteWindow      = errors.New("start and end time must be provided together")
	ErrInvalidID             = errors.New("invalid id")
)

// InsufficientStockError reports a failed reservation for one product.
type InsufficientStockError struct {
	ProductID string
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: required %d, available %d",
		e.ProductID, e.Required, e.Available)
}

// IsBusinessRule reports whether err is recoverable by fixing the request,
// as opposed to an unexpected storage failure.
func IsBusinessRule(err error) bool {
	var stock *InsufficientStockError
	if errors.As(err, &stock) {
		return true
	}
	return errors.Is(err, ErrInvalidProductRef) ||
		errors.Is(err, ErrInvalidServiceRef) ||
		errors.Is(err, ErrTicketIDExhausted) ||
		errors.Is(err, ErrScheduleConflict)
}
