package tax_test

import (
	"testing"

	"github.com/dukerupert/mercato/internal/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_PercentageCalculator_DefaultRate(t *testing.T) {
	calc, err := tax.NewPercentageCalculator(decimal.RequireFromString("0.15"))
	require.NoError(t, err)

	result, err := calc.CalculateTax(tax.TaxParams{TaxableAmount: decimal.RequireFromString("75")})

	require.NoError(t, err)
	assert.True(t, result.TotalTax.Equal(decimal.RequireFromString("11.25")), "75 * 0.15 = 11.25, got %s", result.TotalTax)
	assert.Len(t, result.Breakdown, 1)
	assert.Equal(t, "Default Sales Tax", result.Breakdown[0].Name)
}

func Test_PercentageCalculator_Rounding(t *testing.T) {
	calc, err := tax.NewPercentageCalculator(decimal.RequireFromString("0.15"))
	require.NoError(t, err)

	tests := []struct {
		amount string
		want   string
	}{
		{"0.03", "0"},      // 0.0045
		{"0.10", "0.02"},   // 0.015 rounds half away from zero
		{"33.33", "5"},     // 4.9995
		{"19.99", "3"},     // 2.9985
		{"-10", "0"},       // negative taxable is clamped
		{"1000.01", "150"}, // 150.0015
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			result, err := calc.CalculateTax(tax.TaxParams{TaxableAmount: decimal.RequireFromString(tt.amount)})
			require.NoError(t, err)
			assert.True(t, result.TotalTax.Equal(decimal.RequireFromString(tt.want)), "got %s", result.TotalTax)
		})
	}
}

func Test_PercentageCalculator_InvalidRate(t *testing.T) {
	_, err := tax.NewPercentageCalculator(decimal.RequireFromString("1.5"))
	assert.ErrorIs(t, err, tax.ErrInvalidTaxRate)

	_, err = tax.NewPercentageCalculator(decimal.RequireFromString("-0.01"))
	assert.ErrorIs(t, err, tax.ErrInvalidTaxRate)
}

func Test_NoTaxCalculator(t *testing.T) {
	result, err := tax.NewNoTaxCalculator().CalculateTax(tax.TaxParams{TaxableAmount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	assert.True(t, result.TotalTax.IsZero())
}
