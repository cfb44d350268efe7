package output

import (
	"github.com/google/uuid"
	"github.com/payflow/payment-service/internal/core"
)

// SortOrder controls the direction of a paginated listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListQuery describes a filtered, sorted, paginated read. CustomerID and
// Status are mutually exclusive filters; both empty means no filter.
type ListQuery struct {
	Page       int
	Limit      int
	SortBy     string
	SortOrder  SortOrder
	CustomerID string
	Status     core.PaymentStatus
}

// PaymentRepository is an output port (secondary port) for payment data access
// Secondary adapters (storage implementations) will implement this
type PaymentRepository interface {
	// Create inserts a new payment by id and persists it before returning
	Create(payment *core.Payment) error

	// GetByID retrieves a copy of a payment, or core.ErrPaymentNotFound
	GetByID(id uuid.UUID) (*core.Payment, error)

	// Update overwrites a payment by id without validation and persists it
	Update(payment *core.Payment) error

	// Transition applies fn to the stored payment as one atomic
	// read-modify-write. An error from fn aborts with no mutation;
	// on success the result is persisted and a copy returned.
	Transition(id uuid.UUID, fn func(*core.Payment) error) (*core.Payment, error)

	// List returns one page of payments plus the total count matching
	// the filter before pagination
	List(q ListQuery) ([]*core.Payment, int, error)
}
