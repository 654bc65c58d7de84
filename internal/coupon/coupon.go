// Package coupon validates promotional codes and computes their discounts.
//
// Every function is pure. Rejections are domain errors with code
// coupon_invalid whose message is safe to show the customer.
package coupon

import (
	"strings"
	"time"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const op = "coupon.validate"

var hundred = decimal.NewFromInt(100)

// NormalizeCode trims and uppercases a coupon code. Codes are stored uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCurrentlyValid checks the active flag, validity window and global usage limit.
// The first failing check determines the reason.
func IsCurrentlyValid(c *domain.Coupon, now time.Time) error {
	if !c.IsActive {
		return domain.CouponInvalid(op, "Coupon is not active")
	}
	if now.Before(c.ValidFrom) {
		return domain.CouponInvalid(op, "Coupon is not yet valid")
	}
	if now.After(c.ValidTo) {
		return domain.CouponInvalid(op, "Coupon has expired")
	}
	if c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit {
		return domain.CouponInvalid(op, "Coupon usage limit has been reached")
	}
	return nil
}

// IsApplicableToProducts enforces both the allow-list and the deny-list.
// A non-empty allow-list must contain every product; no product may be excluded.
func IsApplicableToProducts(c *domain.Coupon, productIDs []uuid.UUID) error {
	if len(c.ApplicableProducts) > 0 {
		allowed := toSet(c.ApplicableProducts)
		for _, id := range productIDs {
			if _, ok := allowed[id]; !ok {
				return domain.CouponInvalid(op, "Coupon is not applicable to all products in the cart")
			}
		}
	}
	if len(c.ExcludedProducts) > 0 {
		excluded := toSet(c.ExcludedProducts)
		for _, id := range productIDs {
			if _, ok := excluded[id]; ok {
				return domain.CouponInvalid(op, "Coupon cannot be used with one or more products in the cart")
			}
		}
	}
	return nil
}

// CheckMinPurchase rejects subtotals below the coupon's minimum purchase.
func CheckMinPurchase(c *domain.Coupon, subtotal decimal.Decimal) error {
	if subtotal.LessThan(c.MinPurchase) {
		return domain.CouponInvalid(op, "Minimum purchase of "+c.MinPurchase.StringFixed(2)+" required to use this coupon")
	}
	return nil
}

// CheckUserLimit rejects a coupon the user has already used perUserLimit times.
func CheckUserLimit(c *domain.Coupon, used int64) error {
	if c.PerUserLimit != nil && used >= int64(*c.PerUserLimit) {
		return domain.CouponInvalid(op, "You have already used this coupon the maximum number of times")
	}
	return nil
}

// ComputeDiscount returns the discount for subtotal, never negative and never
// more than the subtotal or the coupon's maximum discount.
func ComputeDiscount(c *domain.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.Discount.Type {
	case domain.DiscountPercent:
		if c.Discount.Value.GreaterThan(hundred) {
			return decimal.Zero
		}
		discount = subtotal.Mul(c.Discount.Value).Div(hundred)
	case domain.DiscountFixed:
		discount = c.Discount.Value
	default:
		return decimal.Zero
	}

	if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
		discount = *c.MaxDiscount
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	return domain.MaxZero(domain.Round2(discount))
}

// Context is the cart state a coupon is validated against.
type Context struct {
	Now        time.Time
	ProductIDs []uuid.UUID
	Subtotal   decimal.Decimal

	// UserUsage is the number of the user's non-cancelled orders that used
	// the coupon. It is nil for cart previews, which skip the per-user check.
	UserUsage *int64
}

// Validate runs every check and returns the discount on success.
func Validate(c *domain.Coupon, vc Context) (decimal.Decimal, error) {
	if err := IsCurrentlyValid(c, vc.Now); err != nil {
		return decimal.Zero, err
	}
	if err := CheckMinPurchase(c, vc.Subtotal); err != nil {
		return decimal.Zero, err
	}
	if err := IsApplicableToProducts(c, vc.ProductIDs); err != nil {
		return decimal.Zero, err
	}
	if vc.UserUsage != nil {
		if err := CheckUserLimit(c, *vc.UserUsage); err != nil {
			return decimal.Zero, err
		}
	}
	return ComputeDiscount(c, vc.Subtotal), nil
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
