package address

import (
	"context"
	"strings"
	"testing"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName:   "Ada Lovelace",
		Address:    "12 St James's Square",
		City:       "London",
		State:      "London",
		PostalCode: "sw1y 4jh",
		Country:    "GB",
	}
}

func TestBasicValidator_Valid(t *testing.T) {
	v := NewBasicValidator()
	addr := validAddress()
	addr.City = "  London "

	result, err := v.Validate(context.Background(), addr)

	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "London", result.NormalizedAddress.City)
	assert.Equal(t, "SW1Y 4JH", result.NormalizedAddress.PostalCode)
	assert.NoError(t, result.AsDomainError("test"))
}

func TestBasicValidator_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(a *domain.ShippingAddress)
		field string
		msg   string
	}{
		{"full name", func(a *domain.ShippingAddress) { a.FullName = "" }, "fullName", "is required"},
		{"blank address", func(a *domain.ShippingAddress) { a.Address = "   " }, "address", "is required"},
		{"city", func(a *domain.ShippingAddress) { a.City = "" }, "city", "is required"},
		{"state", func(a *domain.ShippingAddress) { a.State = "" }, "state", "is required"},
		{"postal code", func(a *domain.ShippingAddress) { a.PostalCode = "" }, "postalCode", "is required"},
		{"country", func(a *domain.ShippingAddress) { a.Country = "" }, "country", "is required"},
		{"postal code too long", func(a *domain.ShippingAddress) { a.PostalCode = strings.Repeat("9", 21) }, "postalCode", "must be at most 20 characters"},
	}

	v := NewBasicValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := validAddress()
			tt.edit(&addr)

			result, err := v.Validate(context.Background(), addr)
			require.NoError(t, err)
			assert.False(t, result.IsValid)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.field, result.Errors[0].Field)
			assert.Equal(t, tt.msg, result.Errors[0].Message)

			derr := result.AsDomainError("order.create")
			require.Error(t, derr)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(derr))
			assert.Equal(t, tt.msg, domain.GetValidationFields(derr)["shippingAddress."+tt.field])
		})
	}
}
