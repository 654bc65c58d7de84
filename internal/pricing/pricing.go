// Package pricing computes order totals from cart lines.
//
// Discounts are applied before the free-shipping threshold check and before
// tax. Every amount is rounded to cents, half away from zero.
package pricing

import (
	"fmt"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/shipping"
	"github.com/dukerupert/mercato/internal/tax"
	"github.com/shopspring/decimal"
)

// Line is a priced quantity of one product.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int32
}

// Breakdown is the result of pricing a set of lines.
type Breakdown struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Engine prices carts and orders.
type Engine struct {
	shipping shipping.Calculator
	tax      tax.Calculator
}

// NewEngine creates a pricing engine from its shipping and tax calculators.
func NewEngine(shippingCalc shipping.Calculator, taxCalc tax.Calculator) *Engine {
	return &Engine{
		shipping: shippingCalc,
		tax:      taxCalc,
	}
}

// Config holds the pricing constants.
type Config struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingRate      decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultConfig returns threshold 100.00, flat shipping 10.00 and 15% tax.
func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingRate:      decimal.NewFromInt(10),
		TaxRate:               decimal.RequireFromString("0.15"),
	}
}

// NewEngineFromConfig builds the threshold shipping and percentage tax calculators.
func NewEngineFromConfig(cfg Config) (*Engine, error) {
	shipCalc, err := shipping.NewThresholdCalculator(cfg.FreeShippingThreshold, cfg.FlatShippingRate)
	if err != nil {
		return nil, fmt.Errorf("shipping calculator: %w", err)
	}

	var taxCalc tax.Calculator
	if cfg.TaxRate.IsZero() {
		taxCalc = tax.NewNoTaxCalculator()
	} else {
		pc, err := tax.NewPercentageCalculator(cfg.TaxRate)
		if err != nil {
			return nil, fmt.Errorf("tax calculator: %w", err)
		}
		taxCalc = pc
	}

	return NewEngine(shipCalc, taxCalc), nil
}

// Subtotal sums unitPrice × quantity over lines, rounded to cents.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity)))
	}
	return domain.Round2(sum)
}

// Price computes the full breakdown for lines with an already-computed discount.
func (e *Engine) Price(lines []Line, discount decimal.Decimal) (Breakdown, error) {
	subtotal := Subtotal(lines)
	return e.PriceSubtotal(subtotal, discount)
}

// PriceSubtotal computes the breakdown from a known subtotal.
func (e *Engine) PriceSubtotal(subtotal, discount decimal.Decimal) (Breakdown, error) {
	discount = domain.Round2(domain.MaxZero(discount))
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	discounted := domain.MaxZero(subtotal.Sub(discount))

	rate := e.shipping.Calculate(discounted)

	taxResult, err := e.tax.CalculateTax(tax.TaxParams{TaxableAmount: discounted})
	if err != nil {
		return Breakdown{}, fmt.Errorf("calculate tax: %w", err)
	}

	shippingCost := domain.Round2(rate.Cost)
	taxAmount := domain.Round2(taxResult.TotalTax)
	total := domain.MaxZero(domain.Round2(discounted.Add(shippingCost).Add(taxAmount)))

	return Breakdown{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shippingCost,
		Tax:      taxAmount,
		Total:    total,
	}, nil
}
