package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/payflow/payment-service/internal/core"
	"github.com/payflow/payment-service/internal/port/input"
)

// stubService implements input.PaymentService with function fields.
type stubService struct {
	createFn func(input.CreatePaymentRequest) (*core.Payment, error)
	getFn    func(uuid.UUID) (*core.Payment, error)
	updateFn func(uuid.UUID, input.UpdatePaymentRequest) (*core.Payment, error)
	listFn   func(input.ListQuery) (*input.PaymentPage, error)
}

func (s *stubService) CreatePayment(req input.CreatePaymentRequest) (*core.Payment, error) {
	return s.createFn(req)
}

func (s *stubService) GetPayment(id uuid.UUID) (*core.Payment, error) {
	return s.getFn(id)
}

func (s *stubService) UpdatePayment(id uuid.UUID, req input.UpdatePaymentRequest) (*core.Payment, error) {
	return s.updateFn(id, req)
}

func (s *stubService) ListPayments(q input.ListQuery) (*input.PaymentPage, error) {
	return s.listFn(q)
}

func (s *stubService) ListByCustomer(_ string, q input.ListQuery) (*input.PaymentPage, error) {
	return s.listFn(q)
}

func (s *stubService) ListByStatus(_ core.PaymentStatus, q input.ListQuery) (*input.PaymentPage, error) {
	return s.listFn(q)
}

func samplePayment() *core.Payment {
	now := time.Now()
	return &core.Payment{
		ID:            uuid.New(),
		Amount:        1000,
		Currency:      "USD",
		PaymentMethod: core.MethodCreditCard,
		Status:        core.PaymentStatusPending,
		CustomerID:    "c1",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func doRequest(handler echo.HandlerFunc, req *http.Request, pathParam ...string) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(pathParam) == 2 {
		c.SetParamNames(pathParam[0])
		c.SetParamValues(pathParam[1])
	}
	_ = handler(c)
	return rec
}

func TestCreatePayment_Returns201WithPendingStatus(t *testing.T) {
	p := samplePayment()
	h := NewPaymentHandler(&stubService{
		createFn: func(req input.CreatePaymentRequest) (*core.Payment, error) {
			require.Equal(t, int64(1000), req.Amount)
			require.Equal(t, core.MethodCreditCard, req.PaymentMethod)
			return p, nil
		},
	})

	body := `{"amount":1000,"currency":"USD","payment_method":"credit_card","customer_id":"c1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(h.CreatePayment, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, p.ID.String(), resp.ID)
	require.Equal(t, "PENDING", resp.Status)
	require.Empty(t, resp.ProcessedAt)
}

func TestGetPayment_InvalidID(t *testing.T) {
	h := NewPaymentHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/oops", nil)
	rec := doRequest(h.GetPayment, req, "id", "oops")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPayment_NotFound(t *testing.T) {
	h := NewPaymentHandler(&stubService{
		getFn: func(uuid.UUID) (*core.Payment, error) {
			return nil, core.ErrPaymentNotFound
		},
	})

	id := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+id, nil)
	rec := doRequest(h.GetPayment, req, "id", id)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdatePayment_InvalidTransitionIsBadRequest(t *testing.T) {
	h := NewPaymentHandler(&stubService{
		updateFn: func(uuid.UUID, input.UpdatePaymentRequest) (*core.Payment, error) {
			return nil, &core.InvalidTransitionError{
				From: core.PaymentStatusPending,
				To:   core.PaymentStatusRefunded,
			}
		},
	})

	id := uuid.New().String()
	body := `{"status":"REFUNDED"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/payments/"+id, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(h.UpdatePayment, req, "id", id)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid status transition")
}

func TestListPayments_MutuallyExclusiveFilters(t *testing.T) {
	h := NewPaymentHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments?customer_id=c1&status=PENDING", nil)
	rec := doRequest(h.ListPayments, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPayments_ReturnsPageMetadata(t *testing.T) {
	p := samplePayment()
	h := NewPaymentHandler(&stubService{
		listFn: func(q input.ListQuery) (*input.PaymentPage, error) {
			require.Equal(t, 2, q.Page)
			require.Equal(t, 1, q.Limit)
			return &input.PaymentPage{
				Data: []*core.Payment{p}, Page: 2, Limit: 1,
				Total: 3, TotalPages: 3, HasNext: true, HasPrevious: true,
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments?page=2&limit=1", nil)
	rec := doRequest(h.ListPayments, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListPaymentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, 3, resp.Pagination.Total)
	require.Equal(t, 3, resp.Pagination.TotalPages)
	require.True(t, resp.Pagination.HasNext)
	require.True(t, resp.Pagination.HasPrevious)
}

func TestListPayments_RejectsBadPaging(t *testing.T) {
	h := NewPaymentHandler(&stubService{})

	for _, target := range []string{
		"/api/v1/payments?page=0",
		"/api/v1/payments?page=x",
		"/api/v1/payments?limit=0",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := doRequest(h.ListPayments, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	}, APIKeyAuth("secret"))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyAuth_DisabledWithoutConfiguredKey(t *testing.T) {
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	}, APIKeyAuth(""))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
