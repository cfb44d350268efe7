package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/payflow/payment-service/internal/core"
	"github.com/payflow/payment-service/internal/port/output"
)

// FileStore is a secondary adapter that implements the PaymentRepository
// output port. The in-memory map is authoritative; the JSON file is a
// best-effort mirror rewritten wholesale after every mutation. Persistence
// failures are logged and never surfaced to callers.
type FileStore struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*core.Payment
	path     string
}

// paymentRecord is the persisted form of a payment. Timestamps serialize
// as RFC 3339 strings.
type paymentRecord struct {
	ID            uuid.UUID          `json:"id"`
	Amount        int64              `json:"amount"`
	Currency      string             `json:"currency"`
	PaymentMethod core.PaymentMethod `json:"payment_method"`
	Status        core.PaymentStatus `json:"status"`
	CustomerID    string             `json:"customer_id"`
	Description   string             `json:"description,omitempty"`
	Metadata      map[string]any     `json:"metadata,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	ProcessedAt   *time.Time         `json:"processed_at,omitempty"`
	FailureReason string             `json:"failure_reason,omitempty"`
}

// toCore converts a persisted record to a core.Payment
func toCore(r *paymentRecord) *core.Payment {
	return &core.Payment{
		ID:            r.ID,
		Amount:        r.Amount,
		Currency:      r.Currency,
		PaymentMethod: r.PaymentMethod,
		Status:        r.Status,
		CustomerID:    r.CustomerID,
		Description:   r.Description,
		Metadata:      r.Metadata,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		ProcessedAt:   r.ProcessedAt,
		FailureReason: r.FailureReason,
	}
}

// fromCore converts a core.Payment to its persisted record
func fromCore(p *core.Payment) *paymentRecord {
	return &paymentRecord{
		ID:            p.ID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentMethod: p.PaymentMethod,
		Status:        p.Status,
		CustomerID:    p.CustomerID,
		Description:   p.Description,
		Metadata:      p.Metadata,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		ProcessedAt:   p.ProcessedAt,
		FailureReason: p.FailureReason,
	}
}

// NewFileStore creates a file-backed payment store. An existing file at
// path is loaded; a missing file starts an empty store; a malformed file
// is logged and ignored so the process still comes up.
func NewFileStore(path string) *FileStore {
	s := &FileStore{
		payments: make(map[uuid.UUID]*core.Payment),
		path:     path,
	}
	s.load()
	return s
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("failed to read payment file %s: %v", s.path, err)
		}
		return
	}

	var records []*paymentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("malformed payment file %s, starting empty: %v", s.path, err)
		return
	}

	for _, r := range records {
		s.payments[r.ID] = toCore(r)
	}
}

// persist rewrites the whole collection to the mirror file. Must be
// called with the write lock held. Failures are logged, not returned:
// the in-memory map stays authoritative for the process lifetime.
func (s *FileStore) persist() {
	records := make([]*paymentRecord, 0, len(s.payments))
	for _, p := range s.payments {
		records = append(records, fromCore(p))
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID.String() < records[j].ID.String()
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		log.Printf("failed to marshal payments: %v", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		log.Printf("failed to write payment file %s: %v", s.path, err)
	}
}

// Create inserts a new payment by id and mirrors the collection to disk
// before returning. Ids are generated internally, so duplicates are not
// checked for.
func (s *FileStore) Create(payment *core.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payments[payment.ID] = payment.Clone()
	s.persist()
	return nil
}

// GetByID retrieves a copy of a payment by its ID
func (s *FileStore) GetByID(id uuid.UUID) (*core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, core.ErrPaymentNotFound
	}
	return p.Clone(), nil
}

// Update overwrites a payment by id and mirrors the collection to disk.
// Validation is the caller's job.
func (s *FileStore) Update(payment *core.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[payment.ID]; !ok {
		return core.ErrPaymentNotFound
	}
	s.payments[payment.ID] = payment.Clone()
	s.persist()
	return nil
}

// Transition applies fn to the stored payment under the store lock so a
// re-fetch-then-update sequence cannot race a concurrent writer on the
// same id. An error from fn aborts with no mutation.
func (s *FileStore) Transition(id uuid.UUID, fn func(*core.Payment) error) (*core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, core.ErrPaymentNotFound
	}

	next := p.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	s.payments[id] = next
	s.persist()
	return next.Clone(), nil
}

// List returns one page of payments matching the query filter, plus the
// total filtered count before pagination. Out-of-range pages return an
// empty slice with the correct total.
func (s *FileStore) List(q output.ListQuery) ([]*core.Payment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*core.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if q.CustomerID != "" && p.CustomerID != q.CustomerID {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		matched = append(matched, p.Clone())
	}

	sortPayments(matched, q.SortBy, q.SortOrder)

	total := len(matched)
	start := (q.Page - 1) * q.Limit
	if start < 0 || start >= total {
		return []*core.Payment{}, total, nil
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// sortPayments orders payments by the requested field, descending by
// default. Unknown sort keys fall back to createdAt. Equal keys break
// ties by id so paging is deterministic.
func sortPayments(payments []*core.Payment, sortBy string, order output.SortOrder) {
	less := lessFunc(sortBy)
	asc := order == output.SortAsc

	sort.Slice(payments, func(i, j int) bool {
		a, b := payments[i], payments[j]
		if !asc {
			a, b = b, a
		}
		switch {
		case less(a, b):
			return true
		case less(b, a):
			return false
		default:
			return a.ID.String() < b.ID.String()
		}
	})
}

func lessFunc(sortBy string) func(a, b *core.Payment) bool {
	switch sortBy {
	case "amount":
		return func(a, b *core.Payment) bool { return a.Amount < b.Amount }
	case "status":
		return func(a, b *core.Payment) bool { return a.Status < b.Status }
	case "customerId":
		return func(a, b *core.Payment) bool { return strings.Compare(a.CustomerID, b.CustomerID) < 0 }
	case "paymentMethod":
		return func(a, b *core.Payment) bool { return a.PaymentMethod < b.PaymentMethod }
	case "currency":
		return func(a, b *core.Payment) bool { return strings.Compare(a.Currency, b.Currency) < 0 }
	case "updatedAt":
		return func(a, b *core.Payment) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	default: // createdAt and unknown keys
		return func(a, b *core.Payment) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

var _ output.PaymentRepository = (*FileStore)(nil)

// String identifies the store in startup logs.
func (s *FileStore) String() string {
	return fmt.Sprintf("file store (%s)", s.path)
}
