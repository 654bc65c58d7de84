// Package address validates shipping addresses before they are snapshotted onto orders.
package address

import (
	"context"

	"github.com/dukerupert/mercato/internal/domain"
)

// Validator defines the interface for address validation.
// Implementations can use external APIs like USPS or SmartyStreets;
// BasicValidator only checks presence and length.
type Validator interface {
	// Validate checks if an address is complete.
	// Even if IsValid is false, NormalizedAddress may contain corrections.
	Validate(ctx context.Context, addr domain.ShippingAddress) (*ValidationResult, error)
}

// ValidationResult contains the outcome of address validation.
type ValidationResult struct {
	IsValid           bool
	NormalizedAddress *domain.ShippingAddress
	Errors            []ValidationError
	Warnings          []string
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string
	Message string
}

// AsDomainError converts failed validation into a domain.ValidationError.
// Returns nil when the result is valid.
func (r *ValidationResult) AsDomainError(op string) error {
	if r.IsValid || len(r.Errors) == 0 {
		return nil
	}
	fields := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		fields["shippingAddress."+e.Field] = e.Message
	}
	return &domain.ValidationError{Op: op, Fields: fields}
}
