package orders

import (
	"errors"
	"strings"
)

var (
	// ErrNoActiveOrder is returned by mutators that need a current open order
	ErrNoActiveOrder = errors.New("no active order")
	// ErrOrderNotFound is returned when an order id is unknown
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned when the status does not allow the operation
	ErrInvalidTransition = errors.New("invalid order transition")
)

// ValidationError is a caller-facing input error that blocks the action
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateCustomerName requires a full name: at least two whitespace-separated tokens
func ValidateCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "customer_name", Message: "customer name is required"}
	}
	if len(strings.Fields(name)) < 2 {
		return &ValidationError{Field: "customer_name", Message: "customer name must include first and last name"}
	}
	return nil
}
