package core

import (
	"errors"
	"fmt"
)

// ErrPaymentNotFound is returned when a lookup by id finds nothing.
var ErrPaymentNotFound = errors.New("payment not found")

// InvalidTransitionError describes a status change outside the allowed
// edge set. The payment it was attempted on is left unmodified.
type InvalidTransitionError struct {
	From PaymentStatus
	To   PaymentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
