package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// Options holds the commerce limits shared by the services.
type Options struct {
	// MaxQuantity caps the quantity of a single cart line.
	MaxQuantity int

	// MaxCartLines caps the number of distinct lines an order may contain.
	MaxCartLines int

	// ReturnWindow is how long after delivery a return may be requested.
	ReturnWindow time.Duration

	// AmountTolerance is the largest accepted difference between a captured
	// amount and the order total.
	AmountTolerance decimal.Decimal

	// StaleIntentAge flags payment intents confirmed long after creation.
	StaleIntentAge time.Duration

	// Currency is the ISO currency code sent to the payment provider.
	Currency string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		MaxQuantity:     99,
		MaxCartLines:    50,
		ReturnWindow:    30 * 24 * time.Hour,
		AmountTolerance: decimal.RequireFromString("0.01"),
		StaleIntentAge:  24 * time.Hour,
		Currency:        "usd",
		Now:             time.Now,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxQuantity <= 0 {
		o.MaxQuantity = def.MaxQuantity
	}
	if o.MaxCartLines <= 0 {
		o.MaxCartLines = def.MaxCartLines
	}
	if o.ReturnWindow <= 0 {
		o.ReturnWindow = def.ReturnWindow
	}
	if o.AmountTolerance.IsZero() {
		o.AmountTolerance = def.AmountTolerance
	}
	if o.StaleIntentAge <= 0 {
		o.StaleIntentAge = def.StaleIntentAge
	}
	if o.Currency == "" {
		o.Currency = def.Currency
	}
	if o.Now == nil {
		o.Now = def.Now
	}
	return o
}

func (o Options) now() time.Time {
	return o.Now().UTC()
}
