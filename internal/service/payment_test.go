package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/mercato/internal/billing"
	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type paymentFixture struct {
	store    *fakeStore
	provider *billing.MockProvider
	svc      domain.PaymentService
	owner    domain.Requester
	product  repository.Product
}

func newPaymentFixture(t *testing.T, n Notifier) *paymentFixture {
	t.Helper()
	store := newFakeStore()
	provider := billing.NewMockProvider()
	return &paymentFixture{
		store:    store,
		provider: provider,
		svc:      NewPaymentService(store, provider, n, testOptions(), nopLogger()),
		owner:    customer(),
		product:  store.addProduct("widget", "25", 2),
	}
}

// pending places an unpaid order for three widgets totalling 96.25.
func (f *paymentFixture) pending(method string) repository.Order {
	return f.store.putOrder(repository.Order{
		UserID:        f.owner.UserID,
		PaymentMethod: method,
		ItemsPrice:    d("75"),
		ShippingPrice: d("10"),
		TaxPrice:      d("11.25"),
		TotalPrice:    d("96.25"),
	}, repository.OrderItem{ProductID: f.product.ID, Name: "widget", Price: d("25"), Quantity: 3})
}

// paid places a stripe order already paid through intent pi_paid.
func (f *paymentFixture) paid() repository.Order {
	o := f.pending("stripe")
	o.IsPaid = true
	o.Status = "paid"
	o.PaidAt = pgtype.Timestamptz{Time: testNow.Add(-time.Hour), Valid: true}
	o.PaymentResult = []byte(`{"id":"pi_paid","status":"succeeded","provider":"stripe","amount":"96.25"}`)
	f.store.orders[o.ID] = o
	return o
}

func (f *paymentFixture) intent(id string, orderID uuid.UUID, cents int64, status string) {
	f.provider.PaymentIntents[id] = &billing.PaymentIntent{
		ID:          id,
		AmountCents: cents,
		Currency:    "usd",
		Status:      status,
		Metadata:    map[string]string{"order_id": orderID.String()},
		CreatedAt:   testNow.Add(-time.Minute),
	}
}

func (f *paymentFixture) webhook(event *billing.WebhookEvent) {
	f.provider.ConstructWebhookEventFunc = func(payload []byte, signature string) (*billing.WebhookEvent, error) {
		return event, nil
	}
}

func TestPaymentService_ProcessPayment_Stripe(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	notifier := NewMockNotifier(ctrl)

	var events []domain.OrderEvent
	notifier.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e domain.OrderEvent) error {
			events = append(events, e)
			return nil
		}).
		Times(1)

	f := newPaymentFixture(t, notifier)
	o := f.pending("stripe")
	f.intent("pi_1", o.ID, 9625, billing.StatusSucceeded)

	paid, err := f.svc.ProcessPayment(ctx, f.owner, o.ID, domain.ProcessPaymentParams{PaymentIntentID: "pi_1"})
	require.NoError(t, err)

	assert.True(t, paid.IsPaid)
	assert.Equal(t, domain.OrderStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.PaymentResult)
	assert.Equal(t, "pi_1", paid.PaymentResult.ID)
	assert.Equal(t, domain.PaymentMethodStripe, paid.PaymentResult.Provider)
	assertDecimal(t, "96.25", paid.PaymentResult.Amount)
	assert.Len(t, paid.Items, 1)

	require.Len(t, events, 1)
	assert.Equal(t, domain.OrderEventPaid, events[0].Type)

	t.Run("second confirmation is rejected and keeps the first payment", func(t *testing.T) {
		f.intent("pi_2", o.ID, 9625, billing.StatusSucceeded)

		_, err := f.svc.ProcessPayment(ctx, f.owner, o.ID, domain.ProcessPaymentParams{PaymentIntentID: "pi_2"})
		assert.ErrorIs(t, err, domain.ErrAlreadyPaid)

		stored, err := toDomainOrder(f.store.orders[o.ID], nil)
		require.NoError(t, err)
		assert.Equal(t, "pi_1", stored.PaymentResult.ID)
		assert.Equal(t, 1, f.store.calls["MarkOrderPaid"])
	})
}

func TestPaymentService_ProcessPayment_StripeRejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		setup  func(f *paymentFixture, orderID uuid.UUID) domain.ProcessPaymentParams
		target error
		code   string
	}{
		{
			name: "intent not succeeded",
			setup: func(f *paymentFixture, orderID uuid.UUID) domain.ProcessPaymentParams {
				f.intent("pi_x", orderID, 9625, "requires_payment_method")
				return domain.ProcessPaymentParams{PaymentIntentID: "pi_x"}
			},
			target: ErrPaymentNotSucceeded,
		},
		{
			name: "intent belongs to another order",
			setup: func(f *paymentFixture, orderID uuid.UUID) domain.ProcessPaymentParams {
				f.intent("pi_x", uuid.New(), 9625, billing.StatusSucceeded)
				return domain.ProcessPaymentParams{PaymentIntentID: "pi_x"}
			},
			target: ErrPaymentIntentMismatch,
		},
		{
			name: "amount outside tolerance",
			setup: func(f *paymentFixture, orderID uuid.UUID) domain.ProcessPaymentParams {
				f.intent("pi_x", orderID, 9623, billing.StatusSucceeded)
				return domain.ProcessPaymentParams{PaymentIntentID: "pi_x"}
			},
			code: domain.EAMOUNT,
		},
		{
			name: "unknown intent",
			setup: func(f *paymentFixture, orderID uuid.UUID) domain.ProcessPaymentParams {
				return domain.ProcessPaymentParams{PaymentIntentID: "pi_missing"}
			},
			code: domain.ENOTFOUND,
		},
		{
			name: "provider unavailable",
			setup: func(f *paymentFixture, orderID uuid.UUID) domain.ProcessPaymentParams {
				f.provider.GetPaymentIntentFunc = func(ctx context.Context, params billing.GetPaymentIntentParams) (*billing.PaymentIntent, error) {
					return nil, errors.New("stripe: 503")
				}
				return domain.ProcessPaymentParams{PaymentIntentID: "pi_x"}
			},
			code: domain.EUPSTREAM,
		},
		{
			name: "missing intent id",
			setup: func(f *paymentFixture, orderID uuid.UUID) domain.ProcessPaymentParams {
				return domain.ProcessPaymentParams{PaymentIntentID: " "}
			},
			target: ErrPaymentIntentRequired,
		},
		{
			name: "method differs from the order",
			setup: func(f *paymentFixture, orderID uuid.UUID) domain.ProcessPaymentParams {
				return domain.ProcessPaymentParams{Method: domain.PaymentMethodCOD}
			},
			code: domain.EINVALID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t, nil)
			o := f.pending("stripe")
			params := tt.setup(f, o.ID)

			_, err := f.svc.ProcessPayment(ctx, f.owner, o.ID, params)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.code != "" {
				assert.Equal(t, tt.code, domain.ErrorCode(err), "error: %v", err)
			}

			stored := f.store.orders[o.ID]
			assert.False(t, stored.IsPaid)
			assert.Equal(t, "pending", stored.Status)
			assert.Nil(t, stored.PaymentResult)
		})
	}
}

func TestPaymentService_ProcessPayment_AmountWithinTolerance(t *testing.T) {
	f := newPaymentFixture(t, nil)
	o := f.pending("stripe")
	f.intent("pi_1", o.ID, 9626, billing.StatusSucceeded)

	paid, err := f.svc.ProcessPayment(context.Background(), f.owner, o.ID, domain.ProcessPaymentParams{PaymentIntentID: "pi_1"})
	require.NoError(t, err)
	assertDecimal(t, "96.26", paid.PaymentResult.Amount)
}

func TestPaymentService_ProcessPayment_PayPal(t *testing.T) {
	ctx := context.Background()

	t.Run("completed capture", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		o := f.pending("paypal")

		paid, err := f.svc.ProcessPayment(ctx, f.owner, o.ID, domain.ProcessPaymentParams{
			Method: domain.PaymentMethodPayPal,
			PayPal: &domain.PayPalCapture{ID: "CAP-1", Status: "completed", EmailAddress: "payer@example.com", UpdateTime: "2025-06-01T11:59:00Z"},
		})
		require.NoError(t, err)

		assert.True(t, paid.IsPaid)
		assert.Equal(t, "COMPLETED", paid.PaymentResult.Status)
		assert.Equal(t, "payer@example.com", paid.PaymentResult.EmailAddress)
		assert.Equal(t, "2025-06-01T11:59:00Z", paid.PaymentResult.UpdateTime)
		assert.Empty(t, f.provider.CallLog)
	})

	t.Run("capture not completed", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		o := f.pending("paypal")

		_, err := f.svc.ProcessPayment(ctx, f.owner, o.ID, domain.ProcessPaymentParams{
			PayPal: &domain.PayPalCapture{ID: "CAP-1", Status: "PENDING", EmailAddress: "payer@example.com"},
		})
		assert.ErrorIs(t, err, ErrPayPalCaptureIncomplete)
		assert.False(t, f.store.orders[o.ID].IsPaid)
	})

	t.Run("payer email required", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		o := f.pending("paypal")

		_, err := f.svc.ProcessPayment(ctx, f.owner, o.ID, domain.ProcessPaymentParams{
			PayPal: &domain.PayPalCapture{ID: "CAP-1", Status: "COMPLETED"},
		})
		assert.ErrorIs(t, err, ErrPayPalPayerMissing)
	})
}

func TestPaymentService_ProcessPayment_COD(t *testing.T) {
	f := newPaymentFixture(t, nil)
	o := f.pending("cod")

	got, err := f.svc.ProcessPayment(context.Background(), f.owner, o.ID, domain.ProcessPaymentParams{})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusProcessing, got.Status)
	assert.False(t, got.IsPaid)
	require.NotNil(t, got.PaymentResult)
	assert.Equal(t, "pending", got.PaymentResult.Status)

	_, err = f.svc.ProcessPayment(context.Background(), f.owner, o.ID, domain.ProcessPaymentParams{})
	assertCode(t, err, domain.EINVALIDSTATE)
}

func TestPaymentService_ProcessPayment_Access(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t, nil)
	o := f.pending("stripe")

	_, err := f.svc.ProcessPayment(ctx, customer(), o.ID, domain.ProcessPaymentParams{PaymentIntentID: "pi_1"})
	assert.ErrorIs(t, err, domain.ErrOrderNotOwned)

	cancelled := f.pending("stripe")
	cancelled.Status = "cancelled"
	f.store.orders[cancelled.ID] = cancelled

	_, err = f.svc.ProcessPayment(ctx, f.owner, cancelled.ID, domain.ProcessPaymentParams{PaymentIntentID: "pi_1"})
	assert.ErrorIs(t, err, domain.ErrOrderNotPayable)
	assert.Empty(t, f.provider.CallLog)
}

func TestPaymentService_CreatePaymentIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an intent for the order total", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		o := f.pending("stripe")

		var got billing.CreatePaymentIntentParams
		f.provider.CreatePaymentIntentFunc = func(ctx context.Context, params billing.CreatePaymentIntentParams) (*billing.PaymentIntent, error) {
			got = params
			return &billing.PaymentIntent{ID: "pi_new", ClientSecret: "pi_new_secret", AmountCents: params.AmountCents, Currency: params.Currency, Status: "requires_payment_method"}, nil
		}

		intent, err := f.svc.CreatePaymentIntent(ctx, f.owner, o.ID)
		require.NoError(t, err)

		assert.Equal(t, "pi_new", intent.ID)
		assert.Equal(t, "pi_new_secret", intent.ClientSecret)
		assertDecimal(t, "96.25", intent.Amount)

		assert.Equal(t, int64(9625), got.AmountCents)
		assert.Equal(t, "usd", got.Currency)
		assert.Equal(t, o.ID.String(), got.Metadata["order_id"])
		assert.Equal(t, f.owner.UserID.String(), got.Metadata["user_id"])
		assert.Equal(t, "order-"+o.ID.String(), got.IdempotencyKey)
	})

	tests := []struct {
		name   string
		setup  func(f *paymentFixture) (domain.Requester, uuid.UUID)
		target error
		code   string
	}{
		{
			name: "not the owner",
			setup: func(f *paymentFixture) (domain.Requester, uuid.UUID) {
				return admin(), f.pending("stripe").ID
			},
			target: domain.ErrOrderNotOwned,
		},
		{
			name: "already paid",
			setup: func(f *paymentFixture) (domain.Requester, uuid.UUID) {
				return f.owner, f.paid().ID
			},
			target: domain.ErrAlreadyPaid,
		},
		{
			name: "not a card order",
			setup: func(f *paymentFixture) (domain.Requester, uuid.UUID) {
				return f.owner, f.pending("cod").ID
			},
			target: domain.ErrPaymentMethodInvalid,
		},
		{
			name: "below card minimum",
			setup: func(f *paymentFixture) (domain.Requester, uuid.UUID) {
				o := f.pending("stripe")
				o.TotalPrice = d("0.49")
				f.store.orders[o.ID] = o
				return f.owner, o.ID
			},
			code: domain.EINVALID,
		},
		{
			name: "provider failure",
			setup: func(f *paymentFixture) (domain.Requester, uuid.UUID) {
				f.provider.CreatePaymentIntentFunc = func(ctx context.Context, params billing.CreatePaymentIntentParams) (*billing.PaymentIntent, error) {
					return nil, errors.New("card_error")
				}
				return f.owner, f.pending("stripe").ID
			},
			code: domain.EUPSTREAM,
		},
		{
			name: "unknown order",
			setup: func(f *paymentFixture) (domain.Requester, uuid.UUID) {
				return f.owner, uuid.New()
			},
			target: domain.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t, nil)
			r, orderID := tt.setup(f)

			_, err := f.svc.CreatePaymentIntent(ctx, r, orderID)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.code != "" {
				assert.Equal(t, tt.code, domain.ErrorCode(err), "error: %v", err)
			}
		})
	}
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("intent succeeded pays a pending order", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		o := f.pending("stripe")
		f.webhook(&billing.WebhookEvent{
			ID:   "evt_1",
			Type: billing.EventPaymentIntentSucceeded,
			PaymentIntent: &billing.PaymentIntent{
				ID: "pi_hook", AmountCents: 9625, Status: billing.StatusSucceeded,
				Metadata: map[string]string{"order_id": o.ID.String()},
			},
		})

		require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

		stored, err := toDomainOrder(f.store.orders[o.ID], nil)
		require.NoError(t, err)
		assert.True(t, stored.IsPaid)
		assert.Equal(t, "pi_hook", stored.PaymentResult.ID)
	})

	t.Run("intent succeeded on a paid order changes nothing", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		o := f.paid()
		before := f.store.orders[o.ID]
		f.webhook(&billing.WebhookEvent{
			ID:   "evt_2",
			Type: billing.EventPaymentIntentSucceeded,
			PaymentIntent: &billing.PaymentIntent{
				ID: "pi_other", AmountCents: 9625, Status: billing.StatusSucceeded,
				Metadata: map[string]string{"order_id": o.ID.String()},
			},
		})

		require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))
		assert.Equal(t, before, f.store.orders[o.ID])
		assert.Zero(t, f.store.calls["MarkOrderPaid"])
	})

	t.Run("charge refunded marks the order refunded and restocks", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		o := f.paid()
		f.webhook(&billing.WebhookEvent{
			ID:   "evt_3",
			Type: billing.EventChargeRefunded,
			Charge: &billing.Charge{
				ID:                  "ch_1",
				PaymentIntentID:     "pi_paid",
				AmountCents:         9625,
				AmountRefundedCents: 9625,
				Refunded:            true,
				Refunds:             []billing.Refund{{ID: "re_1", Status: "succeeded", AmountCents: 9625}},
			},
		})

		require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

		stored, err := toDomainOrder(f.store.orders[o.ID], nil)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusRefunded, stored.Status)
		require.NotNil(t, stored.PaymentResult.Refund)
		assert.Equal(t, "re_1", stored.PaymentResult.Refund.ID)
		assert.Equal(t, "webhook", stored.PaymentResult.Refund.Source)
		assert.Equal(t, "pi_paid", stored.PaymentResult.ID)
		assert.Equal(t, int32(5), f.store.products[f.product.ID].Stock)

		// Redelivery is acknowledged without a second restock.
		require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))
		assert.Equal(t, int32(5), f.store.products[f.product.ID].Stock)
	})

	t.Run("stale event is acknowledged", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		f.provider.ConstructWebhookEventFunc = func(payload []byte, signature string) (*billing.WebhookEvent, error) {
			return nil, billing.ErrWebhookTooOld
		}

		require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))
		assert.Empty(t, f.store.calls)
	})

	t.Run("bad signature is rejected", func(t *testing.T) {
		f := newPaymentFixture(t, nil)

		err := f.svc.HandleWebhook(ctx, []byte(`{}`), "forged")
		assert.ErrorIs(t, err, ErrInvalidWebhookSignature)
	})

	t.Run("processing failures are swallowed", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		f.webhook(&billing.WebhookEvent{
			ID:   "evt_4",
			Type: billing.EventPaymentIntentSucceeded,
			PaymentIntent: &billing.PaymentIntent{
				ID: "pi_orphan", AmountCents: 100, Status: billing.StatusSucceeded,
				Metadata: map[string]string{"order_id": uuid.NewString()},
			},
		})

		assert.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))
	})

	t.Run("unhandled event types are ignored", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		f.webhook(&billing.WebhookEvent{ID: "evt_5", Type: "customer.created"})

		assert.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))
		assert.Empty(t, f.store.calls)
	})
}

func TestPaymentService_ProcessRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("partial refund through the provider", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		notifier := NewMockNotifier(ctrl)
		notifier.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		f := newPaymentFixture(t, notifier)
		o := f.paid()
		ops := admin()

		var got billing.RefundParams
		f.provider.RefundPaymentFunc = func(ctx context.Context, params billing.RefundParams) (*billing.Refund, error) {
			got = params
			return &billing.Refund{ID: "re_9", AmountCents: params.AmountCents, Status: "succeeded"}, nil
		}

		amount := d("10")
		refunded, err := f.svc.ProcessRefund(ctx, ops, o.ID, domain.RefundParams{Amount: &amount, Reason: "damaged"})
		require.NoError(t, err)

		assert.Equal(t, "pi_paid", got.PaymentIntentID)
		assert.Equal(t, int64(1000), got.AmountCents)
		assert.Equal(t, "refund-"+o.ID.String()+"-1000", got.IdempotencyKey)

		assert.Equal(t, domain.OrderStatusRefunded, refunded.Status)
		require.NotNil(t, refunded.RefundAmount)
		assertDecimal(t, "10", *refunded.RefundAmount)
		require.NotNil(t, refunded.PaymentResult.Refund)
		assert.Equal(t, "re_9", refunded.PaymentResult.Refund.ID)
		assert.Equal(t, ops.UserID.String(), refunded.PaymentResult.Refund.RefundedBy)
		assert.Equal(t, int32(5), f.store.products[f.product.ID].Stock)
	})

	t.Run("provider failure leaves the order paid", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		o := f.paid()
		f.provider.RefundPaymentFunc = func(ctx context.Context, params billing.RefundParams) (*billing.Refund, error) {
			return nil, errors.New("charge_already_refunded")
		}

		_, err := f.svc.ProcessRefund(ctx, admin(), o.ID, domain.RefundParams{})
		assertCode(t, err, domain.EUPSTREAM)
		assert.Equal(t, "paid", f.store.orders[o.ID].Status)
		assert.Equal(t, int32(2), f.store.products[f.product.ID].Stock)
	})

	t.Run("webhook records the refund first", func(t *testing.T) {
		f := newPaymentFixture(t, nil)
		o := f.paid()
		f.provider.RefundPaymentFunc = func(ctx context.Context, params billing.RefundParams) (*billing.Refund, error) {
			stored := f.store.orders[o.ID]
			stored.Status = "refunded"
			stored.RefundedAt = pgtype.Timestamptz{Time: testNow, Valid: true}
			stored.RefundAmount = decimal.NullDecimal{Decimal: d("96.25"), Valid: true}
			f.store.orders[o.ID] = stored
			return &billing.Refund{ID: "re_race", AmountCents: params.AmountCents, Status: "succeeded"}, nil
		}

		refunded, err := f.svc.ProcessRefund(ctx, admin(), o.ID, domain.RefundParams{})
		require.NoError(t, err)

		assert.Equal(t, o.ID, refunded.ID)
		assert.Equal(t, domain.OrderStatusRefunded, refunded.Status)
		require.NotNil(t, refunded.RefundAmount)
		assertDecimal(t, "96.25", *refunded.RefundAmount)
		assert.Equal(t, int32(2), f.store.products[f.product.ID].Stock, "only the webhook path restocks")
	})

	tests := []struct {
		name   string
		setup  func(f *paymentFixture) (domain.Requester, uuid.UUID)
		target error
	}{
		{
			name: "customers cannot refund",
			setup: func(f *paymentFixture) (domain.Requester, uuid.UUID) {
				return f.owner, f.paid().ID
			},
			target: domain.ErrAdminRequired,
		},
		{
			name: "unpaid order",
			setup: func(f *paymentFixture) (domain.Requester, uuid.UUID) {
				return admin(), f.pending("stripe").ID
			},
			target: domain.ErrOrderNotPaid,
		},
		{
			name: "cash on delivery",
			setup: func(f *paymentFixture) (domain.Requester, uuid.UUID) {
				o := f.pending("cod")
				o.IsPaid = true
				o.Status = "delivered"
				f.store.orders[o.ID] = o
				return admin(), o.ID
			},
			target: ErrRefundCODNotSupported,
		},
		{
			name: "paypal payment",
			setup: func(f *paymentFixture) (domain.Requester, uuid.UUID) {
				o := f.pending("paypal")
				o.IsPaid = true
				o.Status = "paid"
				o.PaymentResult = []byte(`{"id":"CAP-1","status":"COMPLETED","provider":"paypal","amount":"96.25"}`)
				f.store.orders[o.ID] = o
				return admin(), o.ID
			},
			target: ErrNoProviderPayment,
		},
		{
			name: "already refunded",
			setup: func(f *paymentFixture) (domain.Requester, uuid.UUID) {
				o := f.paid()
				o.Status = "refunded"
				f.store.orders[o.ID] = o
				return admin(), o.ID
			},
			target: domain.ErrAlreadyRefunded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t, nil)
			r, orderID := tt.setup(f)

			_, err := f.svc.ProcessRefund(ctx, r, orderID, domain.RefundParams{})
			assert.ErrorIs(t, err, tt.target)
			assert.Empty(t, f.provider.CallLog)
		})
	}
}
