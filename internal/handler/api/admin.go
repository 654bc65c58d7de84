package api

import (
	"context"
	"net/http"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/handler"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reconciler repairs denormalized counters.
type Reconciler interface {
	Run(ctx context.Context) (*domain.ReconcileReport, error)
}

// AdminHandler serves operator endpoints. Routes are mounted behind RequireAdmin
// and the services check the role again.
type AdminHandler struct {
	adminService   domain.AdminService
	paymentService domain.PaymentService
	reconciler     Reconciler
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService domain.AdminService, paymentService domain.PaymentService, reconciler Reconciler) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		paymentService: paymentService,
		reconciler:     reconciler,
	}
}

type refundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" validate:"max=500"`
}

type markPaidRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// ListOrders handles GET /api/admin/orders
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin.list_orders"

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

	list, err := h.adminService.ListOrders(r.Context(), req, filter)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.List(w, r, list.Orders, list.Pagination)
}

// Refund handles POST /api/admin/orders/{id}/refund
func (h *AdminHandler) Refund(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin.refund"
	withOrder(w, r, op, func(req domain.Requester, id uuid.UUID) (any, error) {
		params, err := decodeRefund(r, op)
		if err != nil {
			return nil, err
		}
		return h.paymentService.ProcessRefund(r.Context(), req, id, params)
	})
}

// ForceRefund handles POST /api/admin/orders/{id}/force-refund
func (h *AdminHandler) ForceRefund(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin.force_refund"
	withOrder(w, r, op, func(req domain.Requester, id uuid.UUID) (any, error) {
		params, err := decodeRefund(r, op)
		if err != nil {
			return nil, err
		}
		return h.adminService.ForceRefund(r.Context(), req, id, params)
	})
}

// MarkPaid handles POST /api/admin/orders/{id}/mark-paid
func (h *AdminHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin.mark_paid"
	withOrder(w, r, op, func(req domain.Requester, id uuid.UUID) (any, error) {
		var body markPaidRequest
		if err := handler.Decode(r, op, &body); err != nil {
			return nil, err
		}
		return h.adminService.MarkPaid(r.Context(), req, id, body.Note)
	})
}

// Ship handles POST /api/admin/orders/{id}/ship
func (h *AdminHandler) Ship(w http.ResponseWriter, r *http.Request) {
	withOrder(w, r, "api.admin.ship", func(req domain.Requester, id uuid.UUID) (any, error) {
		return h.adminService.MarkShipped(r.Context(), req, id)
	})
}

// Deliver handles POST /api/admin/orders/{id}/deliver
func (h *AdminHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	withOrder(w, r, "api.admin.deliver", func(req domain.Requester, id uuid.UUID) (any, error) {
		return h.adminService.MarkDelivered(r.Context(), req, id)
	})
}

// ApproveReturn handles POST /api/admin/orders/{id}/return/approve
func (h *AdminHandler) ApproveReturn(w http.ResponseWriter, r *http.Request) {
	withOrder(w, r, "api.admin.return_approve", func(req domain.Requester, id uuid.UUID) (any, error) {
		return h.adminService.ApproveReturn(r.Context(), req, id)
	})
}

// RejectReturn handles POST /api/admin/orders/{id}/return/reject
func (h *AdminHandler) RejectReturn(w http.ResponseWriter, r *http.Request) {
	withOrder(w, r, "api.admin.return_reject", func(req domain.Requester, id uuid.UUID) (any, error) {
		return h.adminService.RejectReturn(r.Context(), req, id)
	})
}

// CompleteReturn handles POST /api/admin/orders/{id}/return/complete
func (h *AdminHandler) CompleteReturn(w http.ResponseWriter, r *http.Request) {
	withOrder(w, r, "api.admin.return_complete", func(req domain.Requester, id uuid.UUID) (any, error) {
		return h.adminService.CompleteReturn(r.Context(), req, id)
	})
}

// Reconcile handles POST /api/admin/reconcile
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	req, err := handler.Requester(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if !req.IsAdmin() {
		handler.ErrorResponse(w, r, domain.ErrAdminRequired)
		return
	}

	report, err := h.reconciler.Run(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, report)
}

func decodeRefund(r *http.Request, op string) (domain.RefundParams, error) {
	var body refundRequest
	if err := handler.Decode(r, op, &body); err != nil {
		return domain.RefundParams{}, err
	}
	return domain.RefundParams{Amount: body.Amount, Reason: body.Reason}, nil
}
