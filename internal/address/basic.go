package address

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/go-playground/validator/v10"
)

// BasicValidator performs format validation without external API calls.
type BasicValidator struct {
	validate *validator.Validate
}

// NewBasicValidator creates a new basic address validator.
func NewBasicValidator() *BasicValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &BasicValidator{validate: v}
}

// Validate trims every field and checks the struct tags on domain.ShippingAddress.
func (v *BasicValidator) Validate(ctx context.Context, addr domain.ShippingAddress) (*ValidationResult, error) {
	normalized := normalize(addr)
	result := &ValidationResult{
		IsValid:           true,
		NormalizedAddress: &normalized,
	}

	err := v.validate.StructCtx(ctx, normalized)
	if err == nil {
		return result, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("validate address: %w", err)
	}

	result.IsValid = false
	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return result, nil
}

func normalize(addr domain.ShippingAddress) domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName:   strings.TrimSpace(addr.FullName),
		Address:    strings.TrimSpace(addr.Address),
		City:       strings.TrimSpace(addr.City),
		State:      strings.TrimSpace(addr.State),
		PostalCode: strings.ToUpper(strings.TrimSpace(addr.PostalCode)),
		Country:    strings.TrimSpace(addr.Country),
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

var _ Validator = (*BasicValidator)(nil)
