package input

import (
	"github.com/google/uuid"
	"github.com/payflow/payment-service/internal/core"
	"github.com/payflow/payment-service/internal/port/output"
)

// PaymentService is an input port (primary port) for payment operations
// Primary adapters (HTTP handlers) will use this
type PaymentService interface {
	// CreatePayment creates a new pending payment and schedules its
	// background processing; it returns before any processing runs
	CreatePayment(req CreatePaymentRequest) (*core.Payment, error)

	// GetPayment retrieves a payment by ID
	GetPayment(id uuid.UUID) (*core.Payment, error)

	// UpdatePayment applies a validated status transition and/or a
	// metadata merge. An invalid transition rejects the whole patch.
	UpdatePayment(id uuid.UUID, req UpdatePaymentRequest) (*core.Payment, error)

	// ListPayments returns one page of all payments
	ListPayments(q ListQuery) (*PaymentPage, error)

	// ListByCustomer returns one page of a single customer's payments
	ListByCustomer(customerID string, q ListQuery) (*PaymentPage, error)

	// ListByStatus returns one page of payments in a given status
	ListByStatus(status core.PaymentStatus, q ListQuery) (*PaymentPage, error)
}

// CreatePaymentRequest represents the request to create a payment
type CreatePaymentRequest struct {
	Amount        int64
	Currency      string
	PaymentMethod core.PaymentMethod
	CustomerID    string
	Description   string
	Metadata      map[string]any
}

// UpdatePaymentRequest represents a partial update to a payment. A nil
// Status means no transition is requested.
type UpdatePaymentRequest struct {
	Status        *core.PaymentStatus
	Metadata      map[string]any
	FailureReason string
}

// ListQuery carries pagination and sorting options from the boundary.
// Zero values fall back to page 1, limit 10, createdAt descending.
type ListQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder output.SortOrder
}

// PaymentPage is one page of payments plus pagination metadata.
type PaymentPage struct {
	Data        []*core.Payment
	Page        int
	Limit       int
	Total       int
	TotalPages  int
	HasNext     bool
	HasPrevious bool
}
