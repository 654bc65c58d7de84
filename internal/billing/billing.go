// Package billing wraps the card payment provider behind a narrow interface.
package billing

import (
	"context"
	"time"
)

// Provider defines the interface for payment processing.
type Provider interface {
	// CreatePaymentIntent creates a payment intent for a one-time charge.
	// Returns the intent with the client_secret for frontend confirmation.
	CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// GetPaymentIntent retrieves an existing payment intent so a client-reported
	// payment can be re-verified server-side.
	GetPaymentIntent(ctx context.Context, params GetPaymentIntentParams) (*PaymentIntent, error)

	// RefundPayment refunds all or part of a captured payment intent.
	RefundPayment(ctx context.Context, params RefundParams) (*Refund, error)

	// ConstructWebhookEvent verifies the signature header against the configured
	// signing secret and decodes the event. Events signed outside the tolerance
	// window return ErrWebhookTooOld.
	ConstructWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}

// CreatePaymentIntentParams contains parameters for creating a payment intent.
type CreatePaymentIntentParams struct {
	// AmountCents is the amount in the smallest currency unit
	AmountCents int64

	// Currency code (ISO 4217), e.g. "usd"
	Currency string

	Description string

	// Metadata always carries order_id and user_id
	Metadata map[string]string

	// IdempotencyKey prevents duplicate intents for the same order
	IdempotencyKey string
}

// GetPaymentIntentParams identifies the intent to retrieve.
type GetPaymentIntentParams struct {
	PaymentIntentID string
}

// PaymentIntent represents a provider payment intent.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string

	// Status: requires_payment_method, requires_confirmation, processing, succeeded, canceled
	Status string

	Metadata  map[string]string
	CreatedAt time.Time
}

// Succeeded reports whether the intent has been captured.
func (p *PaymentIntent) Succeeded() bool {
	return p.Status == StatusSucceeded
}

// Payment intent statuses the services act on.
const (
	StatusSucceeded = "succeeded"
	StatusCanceled  = "canceled"
)

// RefundParams contains parameters for refunding a payment.
type RefundParams struct {
	PaymentIntentID string

	// AmountCents of zero refunds the full captured amount
	AmountCents int64

	// Reason is free text stored in the refund metadata
	Reason string

	Metadata       map[string]string
	IdempotencyKey string
}

// Refund represents a provider refund.
type Refund struct {
	ID              string
	PaymentIntentID string
	AmountCents     int64
	Currency        string
	Status          string
	CreatedAt       time.Time
}

// Webhook event types handled by the payment service.
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded         = "charge.refunded"
)

// WebhookEvent is a verified provider event. Exactly one of PaymentIntent and
// Charge is set for the event types above.
type WebhookEvent struct {
	ID        string
	Type      string
	CreatedAt time.Time

	PaymentIntent *PaymentIntent
	Charge        *Charge
}

// Charge is the subset of a provider charge needed to record refunds.
type Charge struct {
	ID                  string
	PaymentIntentID     string
	AmountCents         int64
	AmountRefundedCents int64
	Refunded            bool
	Refunds             []Refund

	// FailureMessage is set on failed charges
	FailureMessage string
}

// LatestRefund returns the most recent refund on the charge, if any.
func (c *Charge) LatestRefund() *Refund {
	var latest *Refund
	for i := range c.Refunds {
		if latest == nil || c.Refunds[i].CreatedAt.After(latest.CreatedAt) {
			latest = &c.Refunds[i]
		}
	}
	return latest
}
