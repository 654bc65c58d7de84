package shipping

import (
	"github.com/shopspring/decimal"
)

// Calculator prices shipping for an order.
// Implementations must be pure: the same input always yields the same rate.
type Calculator interface {
	// Calculate returns the shipping rate for a discounted merchandise subtotal.
	Calculate(discountedSubtotal decimal.Decimal) Rate
}

// Rate is a computed shipping charge.
type Rate struct {
	ServiceName string
	ServiceCode string
	Cost        decimal.Decimal
	Free        bool
}

// ThresholdCalculator charges a flat rate unless the subtotal reaches the
// free-shipping threshold.
type ThresholdCalculator struct {
	freeThreshold decimal.Decimal
	flatRate      decimal.Decimal
}

// NewThresholdCalculator creates a threshold-based shipping calculator.
func NewThresholdCalculator(freeThreshold, flatRate decimal.Decimal) (*ThresholdCalculator, error) {
	if freeThreshold.IsNegative() {
		return nil, ErrInvalidThreshold
	}
	if flatRate.IsNegative() {
		return nil, ErrInvalidFlatRate
	}
	return &ThresholdCalculator{
		freeThreshold: freeThreshold,
		flatRate:      flatRate.Round(2),
	}, nil
}

// Calculate returns free shipping at or above the threshold, the flat rate otherwise.
func (c *ThresholdCalculator) Calculate(discountedSubtotal decimal.Decimal) Rate {
	if discountedSubtotal.GreaterThanOrEqual(c.freeThreshold) {
		return Rate{
			ServiceName: "Free Shipping",
			ServiceCode: "FREE",
			Cost:        decimal.Zero,
			Free:        true,
		}
	}
	return Rate{
		ServiceName: "Standard Shipping",
		ServiceCode: "STD",
		Cost:        c.flatRate,
	}
}

// FreeThreshold returns the subtotal at which shipping becomes free.
func (c *ThresholdCalculator) FreeThreshold() decimal.Decimal {
	return c.freeThreshold
}
