package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates successful payment flows without calling Stripe.
type MockProvider struct {
	// CreatePaymentIntentFunc allows customizing payment intent creation behavior
	CreatePaymentIntentFunc func(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// GetPaymentIntentFunc allows customizing payment intent retrieval behavior
	GetPaymentIntentFunc func(ctx context.Context, params GetPaymentIntentParams) (*PaymentIntent, error)

	// RefundPaymentFunc allows customizing refund behavior
	RefundPaymentFunc func(ctx context.Context, params RefundParams) (*Refund, error)

	// ConstructWebhookEventFunc allows customizing webhook verification behavior
	ConstructWebhookEventFunc func(payload []byte, signature string) (*WebhookEvent, error)

	// PaymentIntents stores created payment intents for retrieval
	PaymentIntents map[string]*PaymentIntent

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		PaymentIntents: make(map[string]*PaymentIntent),
		CallLog:        []string{},
	}
}

// CreatePaymentIntent creates a mock payment intent.
func (m *MockProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreatePaymentIntent(%d, %s)", params.AmountCents, params.Currency))

	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, params)
	}

	pi := &PaymentIntent{
		ID:           "pi_" + uuid.New().String(),
		ClientSecret: "pi_" + uuid.New().String() + "_secret_" + uuid.New().String(),
		AmountCents:  params.AmountCents,
		Currency:     params.Currency,
		Status:       "requires_payment_method",
		Metadata:     params.Metadata,
		CreatedAt:    time.Now(),
	}

	m.PaymentIntents[pi.ID] = pi
	return pi, nil
}

// GetPaymentIntent retrieves a mock payment intent.
func (m *MockProvider) GetPaymentIntent(ctx context.Context, params GetPaymentIntentParams) (*PaymentIntent, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetPaymentIntent(%s)", params.PaymentIntentID))

	if m.GetPaymentIntentFunc != nil {
		return m.GetPaymentIntentFunc(ctx, params)
	}

	pi, exists := m.PaymentIntents[params.PaymentIntentID]
	if !exists {
		return nil, ErrPaymentIntentNotFound
	}
	return pi, nil
}

// RefundPayment records a mock refund.
func (m *MockProvider) RefundPayment(ctx context.Context, params RefundParams) (*Refund, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("RefundPayment(%s, %d)", params.PaymentIntentID, params.AmountCents))

	if m.RefundPaymentFunc != nil {
		return m.RefundPaymentFunc(ctx, params)
	}

	amount := params.AmountCents
	if pi, ok := m.PaymentIntents[params.PaymentIntentID]; ok && amount == 0 {
		amount = pi.AmountCents
	}

	return &Refund{
		ID:              "re_" + uuid.New().String(),
		PaymentIntentID: params.PaymentIntentID,
		AmountCents:     amount,
		Currency:        "usd",
		Status:          "succeeded",
		CreatedAt:       time.Now(),
	}, nil
}

// ConstructWebhookEvent verifies a mock webhook. Without a hook every payload is rejected.
func (m *MockProvider) ConstructWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	m.CallLog = append(m.CallLog, "ConstructWebhookEvent")

	if m.ConstructWebhookEventFunc != nil {
		return m.ConstructWebhookEventFunc(payload, signature)
	}
	return nil, ErrInvalidWebhookSignature
}

// SucceedPaymentIntent marks a stored intent as succeeded for test setup.
func (m *MockProvider) SucceedPaymentIntent(id string) {
	if pi, ok := m.PaymentIntents[id]; ok {
		pi.Status = StatusSucceeded
	}
}

// Reset clears all stored data and call log.
func (m *MockProvider) Reset() {
	m.PaymentIntents = make(map[string]*PaymentIntent)
	m.CallLog = []string{}
}

var _ Provider = (*MockProvider)(nil)
