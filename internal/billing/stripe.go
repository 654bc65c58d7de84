package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

type stripePaymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeRefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

// StripeProvider implements Provider using the Stripe API.
type StripeProvider struct {
	intents stripePaymentIntentAPI
	refunds stripeRefundAPI
	config  StripeConfig
}

// NewStripeProvider creates a Stripe billing provider.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
	}
	cfg = cfg.withDefaults()

	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
	})
	sc := client.New(cfg.APIKey, backends)

	return newStripeProvider(sc.PaymentIntents, sc.Refunds, cfg), nil
}

func newStripeProvider(intents stripePaymentIntentAPI, refunds stripeRefundAPI, cfg StripeConfig) *StripeProvider {
	return &StripeProvider{
		intents: intents,
		refunds: refunds,
		config:  cfg.withDefaults(),
	}
}

// CreatePaymentIntent creates a Stripe payment intent with automatic payment methods.
func (s *StripeProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	if params.AmountCents < 50 {
		return nil, ErrAmountTooSmall
	}

	currency := params.Currency
	if currency == "" {
		currency = s.config.Currency
	}

	p := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.AmountCents),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	p.Context = ctx
	if params.Description != "" {
		p.Description = stripe.String(params.Description)
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		p.SetIdempotencyKey(params.IdempotencyKey)
	}

	pi, err := s.intents.New(p)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return toPaymentIntent(pi), nil
}

// GetPaymentIntent retrieves a Stripe payment intent.
func (s *StripeProvider) GetPaymentIntent(ctx context.Context, params GetPaymentIntentParams) (*PaymentIntent, error) {
	if params.PaymentIntentID == "" {
		return nil, ErrPaymentIntentNotFound
	}

	p := &stripe.PaymentIntentParams{}
	p.Context = ctx

	pi, err := s.intents.Get(params.PaymentIntentID, p)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, ErrPaymentIntentNotFound
		}
		return nil, wrapStripeError(err)
	}
	return toPaymentIntent(pi), nil
}

// RefundPayment refunds a payment intent. The free-text reason is kept in metadata.
func (s *StripeProvider) RefundPayment(ctx context.Context, params RefundParams) (*Refund, error) {
	p := &stripe.RefundParams{
		PaymentIntent: stripe.String(params.PaymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	p.Context = ctx
	if params.AmountCents > 0 {
		p.Amount = stripe.Int64(params.AmountCents)
	}
	if params.Reason != "" {
		p.AddMetadata("reason", params.Reason)
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		p.SetIdempotencyKey(params.IdempotencyKey)
	}

	r, err := s.refunds.New(p)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeChargeAlreadyRefunded {
			return nil, ErrAlreadyRefunded
		}
		return nil, wrapStripeError(err)
	}
	return toRefund(r), nil
}

// ConstructWebhookEvent verifies a Stripe-Signature header and decodes the event.
// The signature is checked before the timestamp, so only correctly signed
// events are ever reported as too old.
func (s *StripeProvider) ConstructWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.config.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreTolerance:          true,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}

	signedAt, err := signatureTimestamp(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}
	if time.Since(signedAt) > s.config.WebhookTolerance {
		return nil, ErrWebhookTooOld
	}

	out := &WebhookEvent{
		ID:        event.ID,
		Type:      string(event.Type),
		CreatedAt: time.Unix(event.Created, 0).UTC(),
	}
	if event.Data == nil {
		return out, nil
	}

	switch {
	case strings.HasPrefix(out.Type, "payment_intent."):
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("billing: decode payment intent: %w", err)
		}
		out.PaymentIntent = toPaymentIntent(&pi)
	case strings.HasPrefix(out.Type, "charge."):
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("billing: decode charge: %w", err)
		}
		out.Charge = toCharge(&ch)
	}
	return out, nil
}

func toPaymentIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
		CreatedAt:    time.Unix(pi.Created, 0).UTC(),
	}
}

func toRefund(r *stripe.Refund) *Refund {
	out := &Refund{
		ID:          r.ID,
		AmountCents: r.Amount,
		Currency:    string(r.Currency),
		Status:      string(r.Status),
		CreatedAt:   time.Unix(r.Created, 0).UTC(),
	}
	if r.PaymentIntent != nil {
		out.PaymentIntentID = r.PaymentIntent.ID
	}
	return out
}

func toCharge(ch *stripe.Charge) *Charge {
	out := &Charge{
		ID:                  ch.ID,
		AmountCents:         ch.Amount,
		AmountRefundedCents: ch.AmountRefunded,
		Refunded:            ch.Refunded,
		FailureMessage:      ch.FailureMessage,
	}
	if ch.PaymentIntent != nil {
		out.PaymentIntentID = ch.PaymentIntent.ID
	}
	if ch.Refunds != nil {
		for _, r := range ch.Refunds.Data {
			if r != nil {
				out.Refunds = append(out.Refunds, *toRefund(r))
			}
		}
	}
	return out
}

func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("stripe: %w", err)
	}
	return &StripeError{
		Message:       stripeErr.Msg,
		Code:          string(stripeErr.Code),
		DeclineCode:   string(stripeErr.DeclineCode),
		HTTPStatus:    stripeErr.HTTPStatusCode,
		RequestID:     stripeErr.RequestID,
		OriginalError: err,
	}
}

// signatureTimestamp returns the t= value of a Stripe-Signature header.
func signatureTimestamp(header string) (time.Time, error) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || key != "t" {
			continue
		}
		secs, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
		}
		return time.Unix(secs, 0), nil
	}
	return time.Time{}, errors.New("missing timestamp")
}
