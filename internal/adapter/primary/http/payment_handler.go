package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/payflow/payment-service/internal/core"
	"github.com/payflow/payment-service/internal/port/input"
	"github.com/payflow/payment-service/internal/port/output"
)

// PaymentHandler is a primary adapter (HTTP handler)
type PaymentHandler struct {
	paymentService input.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService input.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// CreatePaymentRequest represents the HTTP request to create a payment
type CreatePaymentRequest struct {
	Amount        int64          `json:"amount"`
	Currency      string         `json:"currency"`
	PaymentMethod string         `json:"payment_method"`
	CustomerID    string         `json:"customer_id"`
	Description   string         `json:"description"`
	Metadata      map[string]any `json:"metadata"`
}

// UpdatePaymentRequest represents the HTTP request to update a payment
type UpdatePaymentRequest struct {
	Status        *string        `json:"status"`
	Metadata      map[string]any `json:"metadata"`
	FailureReason string         `json:"failure_reason"`
}

// PaymentResponse represents the HTTP response for a payment
type PaymentResponse struct {
	ID            string         `json:"id"`
	Amount        int64          `json:"amount"`
	Currency      string         `json:"currency"`
	PaymentMethod string         `json:"payment_method"`
	Status        string         `json:"status"`
	CustomerID    string         `json:"customer_id"`
	Description   string         `json:"description,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
	ProcessedAt   *string        `json:"processed_at,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
}

// ListPaymentsResponse represents one page of payments
type ListPaymentsResponse struct {
	Data       []PaymentResponse `json:"data"`
	Pagination PaginationMeta    `json:"pagination"`
}

// PaginationMeta describes the page that was returned
type PaginationMeta struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

func toResponse(p *core.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:            p.ID.String(),
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentMethod: string(p.PaymentMethod),
		Status:        string(p.Status),
		CustomerID:    p.CustomerID,
		Description:   p.Description,
		Metadata:      p.Metadata,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339Nano),
		FailureReason: p.FailureReason,
	}
	if p.ProcessedAt != nil {
		s := p.ProcessedAt.Format(time.RFC3339Nano)
		resp.ProcessedAt = &s
	}
	return resp
}

// CreatePayment handles payment creation
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	serviceReq := input.CreatePaymentRequest{
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: core.PaymentMethod(req.PaymentMethod),
		CustomerID:    req.CustomerID,
		Description:   req.Description,
		Metadata:      req.Metadata,
	}

	payment, err := h.paymentService.CreatePayment(serviceReq)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, toResponse(payment))
}

// GetPayment handles payment retrieval by ID
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid payment ID",
		})
	}

	payment, err := h.paymentService.GetPayment(id)
	if err != nil {
		if errors.Is(err, core.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "Payment not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to retrieve payment",
		})
	}

	return c.JSON(http.StatusOK, toResponse(payment))
}

// UpdatePayment handles partial payment updates (status and/or metadata)
func (h *PaymentHandler) UpdatePayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid payment ID",
		})
	}

	var req UpdatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	serviceReq := input.UpdatePaymentRequest{
		Metadata:      req.Metadata,
		FailureReason: req.FailureReason,
	}
	if req.Status != nil {
		status := core.PaymentStatus(*req.Status)
		serviceReq.Status = &status
	}

	payment, err := h.paymentService.UpdatePayment(id, serviceReq)
	if err != nil {
		if errors.Is(err, core.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "Payment not found",
			})
		}
		var invalid *core.InvalidTransitionError
		if errors.As(err, &invalid) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": invalid.Error(),
			})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, toResponse(payment))
}

// ListPayments handles paginated listing with optional customer_id XOR
// status filter
func (h *PaymentHandler) ListPayments(c echo.Context) error {
	q := input.ListQuery{
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: output.SortOrder(c.QueryParam("sort_order")),
	}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid page",
			})
		}
		q.Page = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid limit",
			})
		}
		q.Limit = n
	}

	customerID := c.QueryParam("customer_id")
	status := c.QueryParam("status")
	if customerID != "" && status != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "customer_id and status filters are mutually exclusive",
		})
	}

	var (
		page *input.PaymentPage
		err  error
	)
	switch {
	case customerID != "":
		page, err = h.paymentService.ListByCustomer(customerID, q)
	case status != "":
		page, err = h.paymentService.ListByStatus(core.PaymentStatus(status), q)
	default:
		page, err = h.paymentService.ListPayments(q)
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	data := make([]PaymentResponse, 0, len(page.Data))
	for _, p := range page.Data {
		data = append(data, toResponse(p))
	}

	return c.JSON(http.StatusOK, ListPaymentsResponse{
		Data: data,
		Pagination: PaginationMeta{
			Page:        page.Page,
			Limit:       page.Limit,
			Total:       page.Total,
			TotalPages:  page.TotalPages,
			HasNext:     page.HasNext,
			HasPrevious: page.HasPrevious,
		},
	})
}
