package tax

import "github.com/shopspring/decimal"

// MockCalculator is a test implementation of Calculator.
type MockCalculator struct {
	CalculateTaxFunc func(params TaxParams) (*TaxResult, error)
}

// NewMockCalculator creates a mock tax calculator that returns zero tax by default.
func NewMockCalculator() *MockCalculator {
	return &MockCalculator{}
}

// CalculateTax delegates to the configured function or returns zero tax.
func (m *MockCalculator) CalculateTax(params TaxParams) (*TaxResult, error) {
	if m.CalculateTaxFunc != nil {
		return m.CalculateTaxFunc(params)
	}
	return &TaxResult{TotalTax: decimal.Zero}, nil
}
