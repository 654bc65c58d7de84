package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartNotFound     = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrEmptyCart        = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrTooManyItems     = &Error{Code: EINVALID, Message: "Cart has too many distinct items"}
)

// CartService provides business logic for shopping cart operations.
// Every user has at most one cart; it is created on first write.
type CartService interface {
	// GetCart returns the priced cart view. It never mutates state.
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)

	// AddItem adds quantity of a product, incrementing an existing line.
	// Line quantities are silently capped at the maximum.
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error)

	// UpdateItem sets the quantity of a line that is already in the cart.
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error)

	// RemoveItem removes a line from the cart.
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error)

	// Clear deletes all lines and detaches the coupon.
	Clear(ctx context.Context, userID uuid.UUID) error

	// ApplyCoupon validates a coupon against the live cart and attaches it.
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*CartView, error)

	// RemoveCoupon detaches any coupon from the cart.
	RemoveCoupon(ctx context.Context, userID uuid.UUID) (*CartView, error)
}

// CartLine is a cart item joined with its live product, if the product still exists.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int32
	Product   *Product
}

// CartItemView is a priced cart line.
type CartItemView struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int32           `json:"quantity"`
	Stock     int32           `json:"stock"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// CartWarning reports a line that cannot currently be purchased as-is.
type CartWarning struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name,omitempty"`
	Message   string    `json:"message"`
}

// CartView is the computed, read-only representation of a cart.
type CartView struct {
	Items       []CartItemView  `json:"items"`
	Warnings    []CartWarning   `json:"warnings"`
	Coupon      *CouponSnapshot `json:"coupon,omitempty"`
	CouponError string          `json:"couponError,omitempty"`
	ItemCount   int32           `json:"itemCount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Shipping    decimal.Decimal `json:"shipping"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}
