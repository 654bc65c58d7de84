package webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/handler"
	"github.com/dukerupert/mercato/internal/middleware"
)

// SignatureHeader carries Stripe's webhook signature.
const SignatureHeader = "Stripe-Signature"

// StripeHandler handles Stripe webhook events
type StripeHandler struct {
	paymentService domain.PaymentService
	maxBodySize    int64
}

// NewStripeHandler creates a new Stripe webhook handler
func NewStripeHandler(paymentService domain.PaymentService) *StripeHandler {
	return &StripeHandler{
		paymentService: paymentService,
		maxBodySize:    middleware.WebhookMaxBodySize,
	}
}

// HandleWebhook processes incoming Stripe webhook events
//
// The raw body is passed through untouched because the signature covers the
// exact bytes. Only a bad signature is answered with an error: every other
// outcome returns 200 so Stripe stops retrying.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/webhooks/stripe
//	stripe trigger payment_intent.succeeded
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handler.ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, "webhook.stripe", "Payload too large"))
			return
		}
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "webhook.stripe", "Error reading request body"))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		logger.Warn().Msg("stripe webhook without signature header")
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "webhook.stripe", "Missing signature"))
		return
	}

	if err := h.paymentService.HandleWebhook(r.Context(), payload, signature); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, r, http.StatusOK, map[string]bool{"received": true})
}
