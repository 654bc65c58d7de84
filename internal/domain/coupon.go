package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType tags the discount variant of a coupon.
type DiscountType string

const (
	DiscountFixed   DiscountType = "fixed"
	DiscountPercent DiscountType = "percentage"
)

// Valid reports whether t is a supported discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountFixed || t == DiscountPercent
}

// Discount is the tagged discount of a coupon: a fixed amount off, or a
// percentage of the subtotal. The coupon's MaxDiscount caps either variant.
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// FixedDiscount returns a fixed-amount discount.
func FixedDiscount(value decimal.Decimal) Discount {
	return Discount{Type: DiscountFixed, Value: value}
}

// PercentDiscount returns a percentage discount.
func PercentDiscount(value decimal.Decimal) Discount {
	return Discount{Type: DiscountPercent, Value: value}
}

// Coupon is a promotional code applied at cart or checkout.
type Coupon struct {
	ID          uuid.UUID        `json:"id"`
	Code        string           `json:"code"`
	Discount    Discount         `json:"discount"`
	MinPurchase decimal.Decimal  `json:"minPurchase"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount,omitempty"`
	ValidFrom   time.Time        `json:"validFrom"`
	ValidTo     time.Time        `json:"validTo"`
	IsActive    bool             `json:"isActive"`

	UsageLimit   *int32 `json:"usageLimit,omitempty"`
	TimesUsed    int32  `json:"timesUsed"`
	PerUserLimit *int32 `json:"perUserLimit,omitempty"`

	ApplicableProducts []uuid.UUID `json:"applicableProducts,omitempty"`
	ExcludedProducts   []uuid.UUID `json:"excludedProducts,omitempty"`
}

// Snapshot records the coupon as applied with the computed amount.
func (c *Coupon) Snapshot(amount decimal.Decimal) *CouponSnapshot {
	return &CouponSnapshot{
		Code:           c.Code,
		DiscountType:   c.Discount.Type,
		DiscountValue:  c.Discount.Value,
		DiscountAmount: amount,
	}
}

// Coupon errors.
var (
	ErrCouponNotFound = &Error{Code: ENOTFOUND, Message: "Coupon not found or inactive"}
)
