package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingAddress is the address snapshot stored on an order.
type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required,max=200"`
	Address    string `json:"address" validate:"required,max=500"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

// CreateOrderParams contains parameters for placing an order from the cart.
// Exactly one of ShippingAddress and ShippingAddressID is expected.
// IdempotencyKey is optional; an empty key always places a new order.
type CreateOrderParams struct {
	ShippingAddress   *ShippingAddress
	ShippingAddressID *uuid.UUID
	PaymentMethod     PaymentMethod
	IdempotencyKey    string
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PayPalCapture is the client-reported result of a PayPal capture.
type PayPalCapture struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"updateTime"`
	EmailAddress string `json:"emailAddress"`
}

// ProcessPaymentParams contains parameters for confirming an order payment.
type ProcessPaymentParams struct {
	Method          PaymentMethod
	PaymentIntentID string
	PayPal          *PayPalCapture
}

// PaymentIntent is the client-facing result of creating a provider intent.
type PaymentIntent struct {
	ID           string          `json:"id"`
	ClientSecret string          `json:"clientSecret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
}

// RefundParams contains parameters for refunding an order.
type RefundParams struct {
	Amount *decimal.Decimal
	Reason string
}

// PaymentService confirms payments and issues refunds.
type PaymentService interface {
	// ProcessPayment confirms a payment for an order synchronously.
	ProcessPayment(ctx context.Context, r Requester, orderID uuid.UUID, params ProcessPaymentParams) (*Order, error)

	// CreatePaymentIntent creates a provider payment intent for the order total.
	CreatePaymentIntent(ctx context.Context, r Requester, orderID uuid.UUID) (*PaymentIntent, error)

	// HandleWebhook verifies and applies a provider webhook event.
	// Only signature failures are returned to the caller.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// ProcessRefund refunds a paid order through the provider. Admin only.
	ProcessRefund(ctx context.Context, r Requester, orderID uuid.UUID, params RefundParams) (*Order, error)
}

// AdminService holds operator overrides of the order lifecycle.
type AdminService interface {
	MarkPaid(ctx context.Context, r Requester, orderID uuid.UUID, note string) (*Order, error)
	ForceRefund(ctx context.Context, r Requester, orderID uuid.UUID, params RefundParams) (*Order, error)
	MarkShipped(ctx context.Context, r Requester, orderID uuid.UUID) (*Order, error)
	MarkDelivered(ctx context.Context, r Requester, orderID uuid.UUID) (*Order, error)
	ApproveReturn(ctx context.Context, r Requester, orderID uuid.UUID) (*Order, error)
	RejectReturn(ctx context.Context, r Requester, orderID uuid.UUID) (*Order, error)
	CompleteReturn(ctx context.Context, r Requester, orderID uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, r Requester, filter OrderFilter) (*OrderList, error)
}

// ReconcileReport summarizes a counter reconciliation run.
type ReconcileReport struct {
	CouponsUpdated  int64 `json:"couponsUpdated"`
	ProductsUpdated int64 `json:"productsUpdated"`
}
