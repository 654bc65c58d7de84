package routes

import (
	"net/http"

	"github.com/dukerupert/mercato/internal/handler"
	"github.com/dukerupert/mercato/internal/handler/api"
	"github.com/dukerupert/mercato/internal/middleware"
	"github.com/dukerupert/mercato/internal/router"
)

// RegisterAPIRoutes registers the customer cart and order routes.
// Every route requires an authenticated user.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	authed := r.Group(middleware.RequireAuth)

	// Cart
	cart := deps.CartHandler
	authed.Get("/api/cart", cart.Get)
	authed.Delete("/api/cart", cart.Clear)
	authed.Post("/api/cart/items", cart.AddItem)
	authed.Put("/api/cart/items/{productID}", cart.UpdateItem)
	authed.Delete("/api/cart/items/{productID}", cart.RemoveItem)
	authed.Post("/api/cart/coupon", cart.ApplyCoupon)
	authed.Delete("/api/cart/coupon", cart.RemoveCoupon)

	// Orders
	orders := deps.OrderHandler
	authed.Post("/api/orders", orders.Create)
	authed.Get("/api/orders", orders.List)
	authed.Get("/api/orders/{id}", orders.Get)
	authed.Post("/api/orders/{id}/cancel", orders.Cancel)
	authed.Post("/api/orders/{id}/return", orders.RequestReturn)
	authed.Post("/api/orders/{id}/pay", orders.Pay)
	authed.Post("/api/orders/{id}/payment-intent", orders.CreatePaymentIntent)
}

// RegisterSystemRoutes registers unauthenticated liveness and metrics routes
// and the JSON fallbacks for unmatched requests.
func RegisterSystemRoutes(r *router.Router, deps SystemDeps) {
	r.NotFound(handler.NotFoundResponse)
	r.MethodNotAllowed(handler.MethodNotAllowedResponse)

	r.Get("/health", api.Health(deps.DB))

	if deps.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", deps.Metrics)
	}
}
