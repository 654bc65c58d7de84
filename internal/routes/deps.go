package routes

import (
	"net/http"

	"github.com/dukerupert/mercato/internal/handler/api"
	"github.com/dukerupert/mercato/internal/handler/webhook"
)

// APIDeps contains dependencies for customer API routes
type APIDeps struct {
	CartHandler  *api.CartHandler
	OrderHandler *api.OrderHandler
}

// AdminDeps contains dependencies for operator API routes
type AdminDeps struct {
	AdminHandler *api.AdminHandler
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	StripeHandler *webhook.StripeHandler
}

// SystemDeps contains dependencies for health and metrics routes
type SystemDeps struct {
	DB api.Pinger

	// Metrics serves the Prometheus scrape endpoint. Nil skips /metrics.
	Metrics http.Handler
}
