package billing

import (
	"errors"
	"strings"
	"time"
)

// DefaultWebhookTolerance is the maximum accepted age of a signed webhook.
const DefaultWebhookTolerance = 300 * time.Second

// StripeConfig contains configuration for the Stripe provider.
type StripeConfig struct {
	// APIKey is the Stripe secret key (sk_test_... or sk_live_...)
	APIKey string

	// WebhookSecret is the webhook signing secret (whsec_...)
	WebhookSecret string

	// WebhookTolerance bounds the signed timestamp age. Default: 300s
	WebhookTolerance time.Duration

	// Currency for created intents. Default: "usd"
	Currency string

	// MaxNetworkRetries for transient failures inside the SDK. Default: 2
	MaxNetworkRetries int64
}

// Validate checks that required configuration is present.
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("stripe: API key is required")
	}
	if c.WebhookSecret == "" {
		return errors.New("stripe: webhook secret is required")
	}
	return nil
}

// IsTestMode returns true if using test mode API keys.
func (c *StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(c.APIKey, "sk_test_")
}

func (c *StripeConfig) withDefaults() StripeConfig {
	out := *c
	if out.WebhookTolerance <= 0 {
		out.WebhookTolerance = DefaultWebhookTolerance
	}
	if out.Currency == "" {
		out.Currency = "usd"
	}
	if out.MaxNetworkRetries <= 0 {
		out.MaxNetworkRetries = 2
	}
	return out
}
