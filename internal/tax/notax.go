package tax

import "github.com/shopspring/decimal"

// NoTaxCalculator returns zero tax for all calculations.
// Used when TAX_RATE is configured as zero.
type NoTaxCalculator struct{}

// NewNoTaxCalculator creates a new no-tax calculator.
func NewNoTaxCalculator() *NoTaxCalculator {
	return &NoTaxCalculator{}
}

// CalculateTax always returns zero tax.
func (c *NoTaxCalculator) CalculateTax(params TaxParams) (*TaxResult, error) {
	return &TaxResult{TotalTax: decimal.Zero}, nil
}
