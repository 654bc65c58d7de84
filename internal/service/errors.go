package service

import (
	"github.com/dukerupert/mercato/internal/domain"
)

// Cart errors - use domain.EINVALID
var (
	ErrInvalidQuantity   = domain.Errorf(domain.EINVALID, "", "Quantity must be between 1 and the maximum per line")
	ErrCouponCodeMissing = domain.Errorf(domain.EINVALID, "", "Coupon code is required")
)

// Checkout errors
var (
	ErrShippingAddressRequired = domain.Errorf(domain.EINVALID, "", "A shipping address or saved address id is required")
	ErrIdempotencyKeyTooLong   = domain.Errorf(domain.EINVALID, "", "Idempotency key must be at most 255 characters")
)

// Payment errors
var (
	ErrPaymentNotSucceeded     = domain.Errorf(domain.EINVALID, "", "Payment has not succeeded")
	ErrPaymentIntentMismatch   = domain.Errorf(domain.EINVALID, "", "Payment intent does not belong to this order")
	ErrPaymentIntentRequired   = domain.Errorf(domain.EINVALID, "", "Payment intent id is required")
	ErrPayPalCaptureIncomplete = domain.Errorf(domain.EINVALID, "", "PayPal capture is not completed")
	ErrPayPalPayerMissing      = domain.Errorf(domain.EINVALID, "", "PayPal payer email is required")
	ErrRefundCODNotSupported   = domain.Errorf(domain.EINVALID, "", "Cash on delivery orders are refunded manually")
	ErrNoProviderPayment       = domain.Errorf(domain.EINVALID, "", "Order has no provider payment to refund")
	ErrInvalidWebhookSignature = domain.Errorf(domain.EINVALID, "", "Invalid webhook signature")
)

// Return errors
var (
	ErrReturnReasonRequired = domain.Errorf(domain.EINVALID, "", "Return reason is required")
)
