package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/mercato/internal/billing"
	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/postgres"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/dukerupert/mercato/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	payPalCaptureCompleted = "COMPLETED"
	codPendingStatus       = "pending"

	// Stripe rejects card charges below 50 cents.
	minCardAmountCents = 50
)

type paymentService struct {
	repo     repository.Store
	provider billing.Provider
	ledger   ledger
	opts     Options
	logger   zerolog.Logger
}

// NewPaymentService creates a new PaymentService instance
func NewPaymentService(
	repo repository.Store,
	provider billing.Provider,
	notifier Notifier,
	opts Options,
	logger zerolog.Logger,
) domain.PaymentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	opts = opts.withDefaults()
	logger = logger.With().Str("service", "payment").Logger()

	return &paymentService{
		repo:     repo,
		provider: provider,
		ledger:   ledger{repo: repo, notifier: notifier, opts: opts, logger: logger},
		opts:     opts,
		logger:   logger,
	}
}

func (s *paymentService) ProcessPayment(ctx context.Context, r domain.Requester, orderID uuid.UUID, params domain.ProcessPaymentParams) (*domain.Order, error) {
	const op = "payment.process"

	order, err := loadAccessibleOrder(ctx, s.repo, op, r, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.CheckPayable(); err != nil {
		return nil, domain.WithOp(err, op)
	}

	method := params.Method
	if method == "" {
		method = order.PaymentMethod
	}
	if method != order.PaymentMethod {
		return nil, domain.NewValidationError(op, "method", "does not match the order's payment method")
	}

	if telemetry.Business != nil {
		telemetry.Business.PaymentAttempts.WithLabelValues(string(method)).Inc()
	}

	switch method {
	case domain.PaymentMethodStripe:
		result, err := s.verifyStripePayment(ctx, op, order, params.PaymentIntentID)
		if err != nil {
			s.recordFailure(method, err)
			return nil, err
		}
		return s.ledger.markPaid(ctx, op, order, *result, "sync")

	case domain.PaymentMethodPayPal:
		result, err := s.verifyPayPalCapture(op, order, params.PayPal)
		if err != nil {
			s.recordFailure(method, err)
			return nil, err
		}
		return s.ledger.markPaid(ctx, op, order, *result, "sync")

	case domain.PaymentMethodCOD:
		return s.ledger.markProcessing(ctx, op, order, domain.PaymentResult{
			Status:     codPendingStatus,
			UpdateTime: s.opts.now().Format(time.RFC3339),
			Provider:   domain.PaymentMethodCOD,
			Amount:     order.TotalPrice,
		})
	}

	return nil, domain.WithOp(domain.ErrPaymentMethodInvalid, op)
}

// verifyStripePayment re-reads the intent from Stripe rather than trusting the client.
func (s *paymentService) verifyStripePayment(ctx context.Context, op string, order *domain.Order, intentID string) (*domain.PaymentResult, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, domain.WithOp(ErrPaymentIntentRequired, op)
	}

	pi, err := s.provider.GetPaymentIntent(ctx, billing.GetPaymentIntentParams{PaymentIntentID: intentID})
	if err != nil {
		if errors.Is(err, billing.ErrPaymentIntentNotFound) {
			return nil, domain.NotFound(op, "payment intent", intentID)
		}
		return nil, domain.Upstream(err, op, "Could not verify payment with the payment provider")
	}

	if !pi.Succeeded() {
		return nil, domain.WithOp(ErrPaymentNotSucceeded, op)
	}
	if pi.Metadata["order_id"] != order.ID.String() {
		return nil, domain.WithOp(ErrPaymentIntentMismatch, op)
	}
	if err := s.checkAmount(op, order, pi.AmountCents); err != nil {
		return nil, err
	}
	s.warnIfStale(order, pi)

	return &domain.PaymentResult{
		ID:         pi.ID,
		Status:     pi.Status,
		UpdateTime: s.opts.now().Format(time.RFC3339),
		Provider:   domain.PaymentMethodStripe,
		Amount:     domain.FromCents(pi.AmountCents),
	}, nil
}

// verifyPayPalCapture accepts the capture reported by the client. PayPal
// captures are not re-verified against the PayPal API.
func (s *paymentService) verifyPayPalCapture(op string, order *domain.Order, capture *domain.PayPalCapture) (*domain.PaymentResult, error) {
	if capture == nil || !strings.EqualFold(capture.Status, payPalCaptureCompleted) {
		return nil, domain.WithOp(ErrPayPalCaptureIncomplete, op)
	}
	if strings.TrimSpace(capture.EmailAddress) == "" {
		return nil, domain.WithOp(ErrPayPalPayerMissing, op)
	}

	updated := capture.UpdateTime
	if updated == "" {
		updated = s.opts.now().Format(time.RFC3339)
	}
	return &domain.PaymentResult{
		ID:           capture.ID,
		Status:       strings.ToUpper(capture.Status),
		UpdateTime:   updated,
		EmailAddress: capture.EmailAddress,
		Provider:     domain.PaymentMethodPayPal,
		Amount:       order.TotalPrice,
	}, nil
}

func (s *paymentService) CreatePaymentIntent(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.PaymentIntent, error) {
	const op = "payment.create_intent"

	order, err := loadOrder(ctx, s.repo, op, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(r.UserID) {
		return nil, domain.WithOp(domain.ErrOrderNotOwned, op)
	}
	if err := order.CheckPayable(); err != nil {
		return nil, domain.WithOp(err, op)
	}
	if order.PaymentMethod != domain.PaymentMethodStripe {
		return nil, domain.WithOp(domain.ErrPaymentMethodInvalid, op)
	}

	cents := domain.ToCents(order.TotalPrice)
	if cents < minCardAmountCents {
		return nil, domain.Invalid(op, "Order total is below the minimum card payment")
	}

	start := time.Now()
	pi, err := s.provider.CreatePaymentIntent(ctx, billing.CreatePaymentIntentParams{
		AmountCents: cents,
		Currency:    s.opts.Currency,
		Description: "Order " + order.OrderNumber,
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"user_id":      order.UserID.String(),
		},
		IdempotencyKey: "order-" + order.ID.String(),
	})
	if telemetry.Business != nil {
		telemetry.Business.StripeAPILatency.WithLabelValues("create_payment_intent").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create payment intent")
		return nil, domain.Upstream(err, op, "Could not start payment with the payment provider")
	}

	return &domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       domain.FromCents(pi.AmountCents),
		Currency:     pi.Currency,
		Status:       pi.Status,
	}, nil
}

// HandleWebhook verifies and applies a Stripe event. Only an invalid
// signature is reported to the caller; processing failures are logged and
// captured so the provider does not retry an event that cannot succeed.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	const op = "payment.webhook"
	start := time.Now()

	event, err := s.provider.ConstructWebhookEvent(payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrWebhookTooOld) {
			s.logger.Warn().Msg("ignoring webhook event outside the tolerance window")
			s.recordWebhook("unknown", "stale")
			return nil
		}
		s.logger.Warn().Err(err).Msg("webhook signature verification failed")
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues("unknown", "signature").Inc()
		}
		return domain.WithOp(ErrInvalidWebhookSignature, op)
	}

	log := s.logger.With().Str("event_id", event.ID).Str("event_type", event.Type).Logger()
	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(event.Type).Inc()
	}

	var (
		outcome string
		perr    error
	)
	switch event.Type {
	case billing.EventPaymentIntentSucceeded:
		outcome, perr = s.handleIntentSucceeded(ctx, op, event.PaymentIntent)
	case billing.EventPaymentIntentFailed:
		outcome = "logged"
		if event.PaymentIntent != nil {
			log.Warn().
				Str("payment_intent_id", event.PaymentIntent.ID).
				Str("order_id", event.PaymentIntent.Metadata["order_id"]).
				Msg("payment intent failed")
			if telemetry.Business != nil {
				telemetry.Business.PaymentFailed.WithLabelValues(string(domain.PaymentMethodStripe), "declined").Inc()
			}
		}
	case billing.EventChargeRefunded:
		outcome, perr = s.handleChargeRefunded(ctx, op, event.Charge)
	default:
		outcome = "ignored"
	}

	if perr != nil {
		log.Error().Err(perr).Msg("webhook processing failed")
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues(event.Type, "processing").Inc()
		}
		telemetry.CaptureError(ctx, perr, map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
		outcome = "failed"
	}

	s.recordWebhook(event.Type, outcome)
	if telemetry.Business != nil {
		telemetry.Business.WebhookLatency.WithLabelValues(event.Type).Observe(time.Since(start).Seconds())
	}
	log.Debug().Str("outcome", outcome).Msg("webhook handled")
	return nil
}

func (s *paymentService) handleIntentSucceeded(ctx context.Context, op string, pi *billing.PaymentIntent) (string, error) {
	if pi == nil {
		return "", fmt.Errorf("payment_intent.succeeded event without a payment intent")
	}

	orderID, err := uuid.Parse(pi.Metadata["order_id"])
	if err != nil {
		return "", fmt.Errorf("payment intent %s has no valid order_id metadata: %w", pi.ID, err)
	}

	order, err := loadOrder(ctx, s.repo, op, orderID)
	if err != nil {
		return "", err
	}
	if order.IsPaid {
		return "duplicate", nil
	}
	if err := order.CheckPayable(); err != nil {
		return "", fmt.Errorf("payment %s captured for order %s in status %s: %w", pi.ID, order.ID, order.Status, err)
	}
	if err := s.checkAmount(op, order, pi.AmountCents); err != nil {
		return "", err
	}
	s.warnIfStale(order, pi)

	_, err = s.ledger.markPaid(ctx, op, order, domain.PaymentResult{
		ID:         pi.ID,
		Status:     pi.Status,
		UpdateTime: s.opts.now().Format(time.RFC3339),
		Provider:   domain.PaymentMethodStripe,
		Amount:     domain.FromCents(pi.AmountCents),
	}, "webhook")
	if errors.Is(err, domain.ErrAlreadyPaid) {
		// Synchronous confirmation won the race.
		return "duplicate", nil
	}
	if err != nil {
		return "", err
	}
	return "paid", nil
}

func (s *paymentService) handleChargeRefunded(ctx context.Context, op string, ch *billing.Charge) (string, error) {
	if ch == nil || ch.PaymentIntentID == "" {
		return "", fmt.Errorf("charge.refunded event without a payment intent")
	}

	row, err := s.repo.GetOrderByPaymentIntentID(ctx, ch.PaymentIntentID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return "", fmt.Errorf("no order for payment intent %s", ch.PaymentIntentID)
		}
		return "", err
	}
	order, err := loadOrder(ctx, s.repo, op, row.ID)
	if err != nil {
		return "", err
	}
	if order.Status == domain.OrderStatusRefunded {
		return "duplicate", nil
	}
	if err := order.CheckRefundable(); err != nil {
		return "", fmt.Errorf("charge %s refunded for order %s in status %s: %w", ch.ID, order.ID, order.Status, err)
	}

	detail := domain.RefundDetail{
		Amount:     domain.FromCents(ch.AmountRefundedCents),
		Status:     "succeeded",
		Source:     "webhook",
		RefundedAt: s.opts.now(),
	}
	if latest := ch.LatestRefund(); latest != nil {
		detail.ID = latest.ID
		if latest.Status != "" {
			detail.Status = latest.Status
		}
	}

	_, err = s.ledger.markRefunded(ctx, op, order, detail)
	if errors.Is(err, domain.ErrAlreadyRefunded) {
		return "duplicate", nil
	}
	if err != nil {
		return "", err
	}
	return "refunded", nil
}

func (s *paymentService) ProcessRefund(ctx context.Context, r domain.Requester, orderID uuid.UUID, params domain.RefundParams) (*domain.Order, error) {
	const op = "payment.refund"

	if !r.IsAdmin() {
		return nil, domain.WithOp(domain.ErrAdminRequired, op)
	}

	order, err := loadOrder(ctx, s.repo, op, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.CheckRefundable(); err != nil {
		return nil, domain.WithOp(err, op)
	}
	if order.PaymentMethod == domain.PaymentMethodCOD {
		return nil, domain.WithOp(ErrRefundCODNotSupported, op)
	}
	if order.PaymentMethod != domain.PaymentMethodStripe || order.PaymentResult == nil || order.PaymentResult.ID == "" {
		return nil, domain.WithOp(ErrNoProviderPayment, op)
	}

	amount := order.RefundAmountFor(params.Amount)
	cents := domain.ToCents(amount)

	start := time.Now()
	refund, err := s.provider.RefundPayment(ctx, billing.RefundParams{
		PaymentIntentID: order.PaymentResult.ID,
		AmountCents:     cents,
		Reason:          params.Reason,
		Metadata: map[string]string{
			"order_id":    order.ID.String(),
			"refunded_by": r.UserID.String(),
		},
		IdempotencyKey: fmt.Sprintf("refund-%s-%d", order.ID, cents),
	})
	if telemetry.Business != nil {
		telemetry.Business.StripeAPILatency.WithLabelValues("refund").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("provider refund failed")
		return nil, domain.Upstream(err, op, "Refund failed at the payment provider")
	}

	updated, err := s.ledger.markRefunded(ctx, op, order, domain.RefundDetail{
		ID:         refund.ID,
		Amount:     domain.FromCents(refund.AmountCents),
		Reason:     params.Reason,
		Status:     refund.Status,
		Source:     "provider",
		RefundedAt: s.opts.now(),
		RefundedBy: r.UserID.String(),
	})
	if errors.Is(err, domain.ErrAlreadyRefunded) {
		// The charge.refunded webhook recorded this refund first.
		s.logger.Info().
			Str("order_id", order.ID.String()).
			Str("refund_id", refund.ID).
			Msg("refund already recorded by webhook")
		return loadOrder(ctx, s.repo, op, order.ID)
	}
	return updated, err
}

func (s *paymentService) checkAmount(op string, order *domain.Order, cents int64) error {
	diff := domain.FromCents(cents).Sub(order.TotalPrice).Abs()
	if diff.GreaterThan(s.opts.AmountTolerance) {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Int64("captured_cents", cents).
			Str("total", order.TotalPrice.StringFixed(2)).
			Msg("captured amount does not match order total")
		return domain.WithOp(domain.ErrAmountMismatch, op)
	}
	return nil
}

func (s *paymentService) warnIfStale(order *domain.Order, pi *billing.PaymentIntent) {
	if pi.CreatedAt.IsZero() {
		return
	}
	if age := s.opts.now().Sub(pi.CreatedAt); age > s.opts.StaleIntentAge {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("payment_intent_id", pi.ID).
			Dur("age", age).
			Msg("confirming a stale payment intent")
	}
}

func (s *paymentService) recordFailure(method domain.PaymentMethod, err error) {
	if telemetry.Business != nil {
		telemetry.Business.PaymentFailed.WithLabelValues(string(method), domain.ErrorCode(err)).Inc()
	}
}

func (s *paymentService) recordWebhook(eventType, outcome string) {
	if telemetry.Business != nil {
		telemetry.Business.WebhookProcessed.WithLabelValues(eventType, outcome).Inc()
	}
}
