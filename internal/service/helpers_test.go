package service

import (
	"testing"
	"time"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/pricing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return testNow }
	return opts
}

func testEngine(t *testing.T) *pricing.Engine {
	t.Helper()
	e, err := pricing.NewEngineFromConfig(pricing.DefaultConfig())
	require.NoError(t, err)
	return e
}

func customer() domain.Requester {
	return domain.Requester{UserID: uuid.New(), Role: domain.RoleCustomer, Email: "customer@example.com"}
}

func admin() domain.Requester {
	return domain.Requester{UserID: uuid.New(), Role: domain.RoleAdmin, Email: "ops@example.com"}
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]interface{}{"want %s got %s", want, got}, msgAndArgs...)...)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, domain.ErrorCode(err), "error: %v", err)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(s), Valid: true}
}
