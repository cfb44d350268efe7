package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"

	"github.com/payflow/payment-service/internal/core"
	"github.com/payflow/payment-service/internal/port/input"
	"github.com/payflow/payment-service/internal/port/output"
)

const (
	defaultPage  = 1
	defaultLimit = 10

	maxDescriptionLen   = 500
	maxFailureReasonLen = 1000
)

// PaymentServiceImpl implements the PaymentService input port
type PaymentServiceImpl struct {
	paymentRepo output.PaymentRepository
	events      output.PaymentEvents
	processor   *PaymentProcessor
	clock       clockz.Clock
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo output.PaymentRepository,
	events output.PaymentEvents,
	processor *PaymentProcessor,
) input.PaymentService {
	return &PaymentServiceImpl{
		paymentRepo: paymentRepo,
		events:      events,
		processor:   processor,
		clock:       clockz.RealClock,
	}
}

// CreatePayment creates a new pending payment, persists it and schedules
// the background processor for it. It returns before any processing runs.
func (s *PaymentServiceImpl) CreatePayment(req input.CreatePaymentRequest) (*core.Payment, error) {
	// Validate amount
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	// Validate currency
	req.Currency = strings.TrimSpace(req.Currency)
	if req.Currency == "" || len(req.Currency) > 3 {
		return nil, fmt.Errorf("currency must be 1 to 3 characters")
	}

	// Validate payment method
	if !core.ValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("unknown payment method %q", req.PaymentMethod)
	}

	// Validate customer
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		return nil, fmt.Errorf("customer id is required")
	}

	if len(req.Description) > maxDescriptionLen {
		return nil, fmt.Errorf("description must be at most %d characters", maxDescriptionLen)
	}

	payment := core.NewPayment(req.Amount, req.Currency, req.PaymentMethod,
		req.CustomerID, req.Description, req.Metadata, s.clock.Now())

	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.events.PaymentCreated(context.Background(), payment)
	s.processor.Schedule(payment.ID)

	return payment, nil
}

// GetPayment retrieves a payment by ID
func (s *PaymentServiceImpl) GetPayment(id uuid.UUID) (*core.Payment, error) {
	return s.paymentRepo.GetByID(id)
}

// UpdatePayment applies a status transition and/or metadata merge as one
// atomic store operation. An invalid transition rejects the entire patch,
// metadata included.
func (s *PaymentServiceImpl) UpdatePayment(id uuid.UUID, req input.UpdatePaymentRequest) (*core.Payment, error) {
	if req.Status != nil && !core.ValidPaymentStatus(*req.Status) {
		return nil, fmt.Errorf("unknown payment status %q", *req.Status)
	}
	if len(req.FailureReason) > maxFailureReasonLen {
		return nil, fmt.Errorf("failure reason must be at most %d characters", maxFailureReasonLen)
	}

	now := s.clock.Now()
	return s.paymentRepo.Transition(id, func(p *core.Payment) error {
		if req.Status != nil {
			if err := p.TransitionTo(*req.Status, now); err != nil {
				return err
			}
			if *req.Status == core.PaymentStatusFailed && req.FailureReason != "" {
				p.FailureReason = req.FailureReason
			}
		}
		p.MergeMetadata(req.Metadata, now)
		return nil
	})
}

// ListPayments returns one page of all payments
func (s *PaymentServiceImpl) ListPayments(q input.ListQuery) (*input.PaymentPage, error) {
	return s.list(output.ListQuery{}, q)
}

// ListByCustomer returns one page of a single customer's payments
func (s *PaymentServiceImpl) ListByCustomer(customerID string, q input.ListQuery) (*input.PaymentPage, error) {
	return s.list(output.ListQuery{CustomerID: customerID}, q)
}

// ListByStatus returns one page of payments in a given status
func (s *PaymentServiceImpl) ListByStatus(status core.PaymentStatus, q input.ListQuery) (*input.PaymentPage, error) {
	if !core.ValidPaymentStatus(status) {
		return nil, fmt.Errorf("unknown payment status %q", status)
	}
	return s.list(output.ListQuery{Status: status}, q)
}

func (s *PaymentServiceImpl) list(filter output.ListQuery, q input.ListQuery) (*input.PaymentPage, error) {
	page := q.Page
	if page < 1 {
		page = defaultPage
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	order := q.SortOrder
	if order != output.SortAsc {
		order = output.SortDesc
	}

	filter.Page = page
	filter.Limit = limit
	filter.SortBy = q.SortBy
	filter.SortOrder = order

	data, total, err := s.paymentRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	totalPages := (total + limit - 1) / limit
	return &input.PaymentPage{
		Data:        data,
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}, nil
}
