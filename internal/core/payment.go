package core

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// PaymentMethod represents how a payment is funded
type PaymentMethod string

const (
	MethodCreditCard    PaymentMethod = "credit_card"
	MethodDebitCard     PaymentMethod = "debit_card"
	MethodBankTransfer  PaymentMethod = "bank_transfer"
	MethodDigitalWallet PaymentMethod = "digital_wallet"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodBankTransfer, MethodDigitalWallet:
		return true
	default:
		return false
	}
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// CanTransitionTo returns true if the status can move to the target status.
//
// Allowed edges:
//   - PENDING    → PROCESSING, CANCELLED
//   - PROCESSING → COMPLETED, FAILED
//   - COMPLETED  → REFUNDED
//   - FAILED     → PENDING (retry)
//
// CANCELLED and REFUNDED are terminal.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return target == PaymentStatusProcessing || target == PaymentStatusCancelled
	case PaymentStatusProcessing:
		return target == PaymentStatusCompleted || target == PaymentStatusFailed
	case PaymentStatusCompleted:
		return target == PaymentStatusRefunded
	case PaymentStatusFailed:
		return target == PaymentStatusPending
	default:
		return false
	}
}

// IsTerminal checks if the status allows no further transitions.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCancelled || s == PaymentStatusRefunded
}

// Payment represents a payment domain entity
type Payment struct {
	ID            uuid.UUID
	Amount        int64 // smallest currency unit
	Currency      string
	PaymentMethod PaymentMethod
	Status        PaymentStatus
	CustomerID    string
	Description   string
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ProcessedAt   *time.Time
	FailureReason string
}

// NewPayment constructs a pending payment with both timestamps set to now.
func NewPayment(amount int64, currency string, method PaymentMethod, customerID, description string, metadata map[string]any, now time.Time) *Payment {
	p := &Payment{
		ID:            uuid.New(),
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: method,
		Status:        PaymentStatusPending,
		CustomerID:    customerID,
		Description:   description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if len(metadata) > 0 {
		p.Metadata = make(map[string]any, len(metadata))
		for k, v := range metadata {
			p.Metadata[k] = v
		}
	}
	return p
}

// TransitionTo moves the payment to the target status, stamping UpdatedAt
// and, on the first COMPLETED or FAILED transition, ProcessedAt. The entity
// is left unmodified when the transition is not allowed.
func (p *Payment) TransitionTo(target PaymentStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(target) {
		return &InvalidTransitionError{From: p.Status, To: target}
	}
	p.Status = target
	p.UpdatedAt = now
	if p.ProcessedAt == nil && (target == PaymentStatusCompleted || target == PaymentStatusFailed) {
		t := now
		p.ProcessedAt = &t
	}
	return nil
}

// MergeMetadata overlays patch onto the payment's metadata. Keys absent
// from the patch keep their prior values.
func (p *Payment) MergeMetadata(patch map[string]any, now time.Time) {
	if len(patch) == 0 {
		return
	}
	if p.Metadata == nil {
		p.Metadata = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		p.Metadata[k] = v
	}
	p.UpdatedAt = now
}

// Clone returns a deep copy of the payment. The store hands out clones so
// callers never alias its in-memory state.
func (p *Payment) Clone() *Payment {
	c := *p
	if p.ProcessedAt != nil {
		t := *p.ProcessedAt
		c.ProcessedAt = &t
	}
	if p.Metadata != nil {
		c.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
