package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/handler"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader carries the client's order placement key.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler serves customer order endpoints.
type OrderHandler struct {
	orderService   domain.OrderService
	paymentService domain.PaymentService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService domain.OrderService, paymentService domain.PaymentService) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
	}
}

type createOrderRequest struct {
	ShippingAddress   *domain.ShippingAddress `json:"shippingAddress"`
	ShippingAddressID *uuid.UUID              `json:"shippingAddressId"`
	PaymentMethod     string                  `json:"paymentMethod" validate:"required,oneof=stripe paypal cod"`
	IdempotencyKey    string                  `json:"idempotencyKey"`
}

type returnRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type paymentRequest struct {
	PaymentMethod   string                `json:"paymentMethod" validate:"omitempty,oneof=stripe paypal cod"`
	PaymentIntentID string                `json:"paymentIntentId"`
	PayPal          *domain.PayPalCapture `json:"paypal"`
}

// Create handles POST /api/orders
//
// The idempotency key comes from the Idempotency-Key header, falling back to
// the body. A replayed key returns the original order; without a key every
// request places a new order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "api.order.create"

	req, err := handler.Requester(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var body createOrderRequest
	if err := handler.Decode(r, op, &body); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key == "" {
		key = body.IdempotencyKey
	}

	order, err := h.orderService.CreateOrder(r.Context(), req, domain.CreateOrderParams{
		ShippingAddress:   body.ShippingAddress,
		ShippingAddressID: body.ShippingAddressID,
		PaymentMethod:     domain.PaymentMethod(body.PaymentMethod),
		IdempotencyKey:    key,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, r, http.StatusCreated, order)
}

// List handles GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "api.order.list"

	req, err := handler.Requester(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	filter, err := parseOrderFilter(r, op)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	list, err := h.orderService.ListOrders(r.Context(), req, filter)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.List(w, r, list.Orders, list.Pagination)
}

// Get handles GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	withOrder(w, r, "api.order.get", func(req domain.Requester, id uuid.UUID) (any, error) {
		return h.orderService.GetOrder(r.Context(), req, id)
	})
}

// Cancel handles POST /api/orders/{id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	withOrder(w, r, "api.order.cancel", func(req domain.Requester, id uuid.UUID) (any, error) {
		return h.orderService.CancelOrder(r.Context(), req, id)
	})
}

// RequestReturn handles POST /api/orders/{id}/return
func (h *OrderHandler) RequestReturn(w http.ResponseWriter, r *http.Request) {
	const op = "api.order.return"
	withOrder(w, r, op, func(req domain.Requester, id uuid.UUID) (any, error) {
		var body returnRequest
		if err := handler.Decode(r, op, &body); err != nil {
			return nil, err
		}
		return h.orderService.RequestReturn(r.Context(), req, id, body.Reason)
	})
}

// Pay handles POST /api/orders/{id}/pay
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	const op = "api.order.pay"
	withOrder(w, r, op, func(req domain.Requester, id uuid.UUID) (any, error) {
		var body paymentRequest
		if err := handler.Decode(r, op, &body); err != nil {
			return nil, err
		}
		return h.paymentService.ProcessPayment(r.Context(), req, id, domain.ProcessPaymentParams{
			Method:          domain.PaymentMethod(body.PaymentMethod),
			PaymentIntentID: body.PaymentIntentID,
			PayPal:          body.PayPal,
		})
	})
}

// CreatePaymentIntent handles POST /api/orders/{id}/payment-intent
func (h *OrderHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	withOrder(w, r, "api.order.payment_intent", func(req domain.Requester, id uuid.UUID) (any, error) {
		return h.paymentService.CreatePaymentIntent(r.Context(), req, id)
	})
}

// withOrder resolves the requester and {id}, runs fn and writes its result.
func withOrder(w http.ResponseWriter, r *http.Request, op string, fn func(domain.Requester, uuid.UUID) (any, error)) {
	req, err := handler.Requester(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	id, err := handler.PathUUID(r, "id", op)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := fn(req, id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, result)
}

// parseOrderFilter reads listing options from the query string.
//
//	?page=2&pageSize=20&sort=total_desc&status=paid&isPaid=true
//	&from=2026-01-01T00:00:00Z&to=...&minTotal=10&maxTotal=100&userId=<uuid>
func parseOrderFilter(r *http.Request, op string) (domain.OrderFilter, error) {
	q := r.URL.Query()
	var (
		filter domain.OrderFilter
		verr   error
	)

	fail := func(field, msg string) {
		verr = domain.AddFieldError(verr, field, msg)
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fail("page", "must be a positive integer")
		}
		filter.Page = n
	}
	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fail("pageSize", "must be a positive integer")
		}
		filter.PageSize = n
	}
	if v := q.Get("sort"); v != "" {
		filter.Sort = domain.OrderSort(v)
	}
	if v := q.Get("status"); v != "" {
		s := domain.OrderStatus(v)
		filter.Status = &s
	}
	if v := q.Get("isPaid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fail("isPaid", "must be true or false")
		}
		filter.IsPaid = &b
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			fail("from", "must be an RFC 3339 timestamp")
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			fail("to", "must be an RFC 3339 timestamp")
		}
		filter.To = &t
	}
	if v := q.Get("minTotal"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			fail("minTotal", "must be a decimal amount")
		}
		filter.MinTotal = &d
	}
	if v := q.Get("maxTotal"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			fail("maxTotal", "must be a decimal amount")
		}
		filter.MaxTotal = &d
	}
	if v := q.Get("userId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			fail("userId", "must be a valid UUID")
		}
		filter.UserID = &id
	}

	if verr != nil {
		if ve, ok := verr.(*domain.ValidationError); ok {
			ve.Op = op
		}
		return domain.OrderFilter{}, verr
	}
	return filter, nil
}
