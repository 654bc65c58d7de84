package tax

import (
	"github.com/shopspring/decimal"
)

// PercentageCalculator calculates tax using a simple percentage rate.
type PercentageCalculator struct {
	rate decimal.Decimal // e.g., 0.15 for 15%
}

// NewPercentageCalculator creates a new percentage-based tax calculator.
// The rate must be between 0 and 1.
func NewPercentageCalculator(rate decimal.Decimal) (*PercentageCalculator, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrInvalidTaxRate
	}
	return &PercentageCalculator{rate: rate}, nil
}

// CalculateTax computes rate × taxable amount, rounded to cents.
// Negative amounts are treated as zero.
func (c *PercentageCalculator) CalculateTax(params TaxParams) (*TaxResult, error) {
	taxable := params.TaxableAmount
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	amount := taxable.Mul(c.rate).Round(2)

	return &TaxResult{
		TotalTax: amount,
		Breakdown: []TaxBreakdown{
			{
				Jurisdiction: "state",
				Name:         "Default Sales Tax",
				Rate:         c.rate,
				Amount:       amount,
			},
		},
	}, nil
}

// Rate returns the configured rate.
func (c *PercentageCalculator) Rate() decimal.Decimal {
	return c.rate
}
