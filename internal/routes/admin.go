package routes

import (
	"github.com/dukerupert/mercato/internal/middleware"
	"github.com/dukerupert/mercato/internal/router"
)

// RegisterAdminRoutes registers the operator routes under /api/admin.
// All routes are protected by admin authentication middleware.
func RegisterAdminRoutes(r *router.Router, deps AdminDeps) {
	admin := r.Group(middleware.RequireAdmin)
	h := deps.AdminHandler

	// Orders
	admin.Get("/api/admin/orders", h.ListOrders)
	admin.Post("/api/admin/orders/{id}/mark-paid", h.MarkPaid)
	admin.Post("/api/admin/orders/{id}/ship", h.Ship)
	admin.Post("/api/admin/orders/{id}/deliver", h.Deliver)

	// Refunds and returns
	admin.Post("/api/admin/orders/{id}/refund", h.Refund)
	admin.Post("/api/admin/orders/{id}/force-refund", h.ForceRefund)
	admin.Post("/api/admin/orders/{id}/return/approve", h.ApproveReturn)
	admin.Post("/api/admin/orders/{id}/return/reject", h.RejectReturn)
	admin.Post("/api/admin/orders/{id}/return/complete", h.CompleteReturn)

	// Maintenance
	admin.Post("/api/admin/reconcile", h.Reconcile)
}
