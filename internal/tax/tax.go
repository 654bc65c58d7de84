package tax

import (
	"github.com/shopspring/decimal"
)

// Calculator defines the interface for tax calculation.
// Implementations: PercentageCalculator, NoTaxCalculator
type Calculator interface {
	// CalculateTax computes tax on the taxable amount.
	// Shipping is not taxed; the amount is the subtotal after discount.
	CalculateTax(params TaxParams) (*TaxResult, error)
}

// TaxParams contains all information needed for tax calculation.
type TaxParams struct {
	TaxableAmount decimal.Decimal
}

// TaxResult contains the calculated tax amount and breakdown.
type TaxResult struct {
	TotalTax  decimal.Decimal
	Breakdown []TaxBreakdown
}

// TaxBreakdown represents tax for a single jurisdiction.
type TaxBreakdown struct {
	Jurisdiction string          // "state", "county", "city"
	Name         string          // e.g., "Default Sales Tax"
	Rate         decimal.Decimal // e.g., 0.15 for 15%
	Amount       decimal.Decimal
}
