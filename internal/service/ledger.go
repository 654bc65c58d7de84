package service

import (
	"context"
	"encoding/json"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/postgres"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/dukerupert/mercato/internal/telemetry"
	"github.com/rs/zerolog"
)

// ledger applies the payment and refund row updates shared by synchronous
// confirmation, webhooks and admin overrides. Each update is a single guarded
// statement, so concurrent writers cannot apply the same transition twice.
type ledger struct {
	repo     repository.Querier
	notifier Notifier
	opts     Options
	logger   zerolog.Logger
}

// markPaid records result and flags the order paid. source labels the caller
// in metrics: sync, webhook or manual.
func (l ledger) markPaid(ctx context.Context, op string, order *domain.Order, result domain.PaymentResult, source string) (*domain.Order, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode payment result")
	}

	row, err := l.repo.MarkOrderPaid(ctx, repository.MarkOrderPaidParams{
		ID:            order.ID,
		PaidAt:        l.opts.now(),
		PaymentResult: payload,
	})
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, l.explainRejected(ctx, op, order, domain.ErrAlreadyPaid)
		}
		return nil, domain.Internal(err, op, "failed to mark order paid")
	}

	paid, err := toDomainOrder(row, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}
	paid.Items = order.Items

	if telemetry.Business != nil {
		method := string(paid.PaymentMethod)
		telemetry.Business.PaymentSucceeded.WithLabelValues(method, source).Inc()
		telemetry.Business.RevenueCollected.WithLabelValues(method).Add(paid.TotalPrice.InexactFloat64())
	}

	l.logger.Info().
		Str("order_id", paid.ID.String()).
		Str("payment_id", result.ID).
		Str("source", source).
		Msg("order paid")

	notify(ctx, l.notifier, l.logger, domain.NewOrderEvent(domain.OrderEventPaid, paid, l.opts.now()))
	return paid, nil
}

// markProcessing moves a cash-on-delivery order to processing without paying it.
func (l ledger) markProcessing(ctx context.Context, op string, order *domain.Order, result domain.PaymentResult) (*domain.Order, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode payment result")
	}

	row, err := l.repo.MarkOrderProcessing(ctx, repository.MarkOrderProcessingParams{
		ID:            order.ID,
		PaymentResult: payload,
	})
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, l.explainRejected(ctx, op, order, domain.ErrInvalidTransition)
		}
		return nil, domain.Internal(err, op, "failed to update order")
	}

	updated, err := toDomainOrder(row, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}
	updated.Items = order.Items

	if telemetry.Business != nil {
		telemetry.Business.PaymentSucceeded.WithLabelValues(string(domain.PaymentMethodCOD), "sync").Inc()
	}
	return updated, nil
}

// markRefunded records refund on the payment snapshot and flags the order
// refunded, then restocks its items.
func (l ledger) markRefunded(ctx context.Context, op string, order *domain.Order, refund domain.RefundDetail) (*domain.Order, error) {
	result := domain.PaymentResult{Provider: order.PaymentMethod, Amount: order.TotalPrice}
	if order.PaymentResult != nil {
		result = *order.PaymentResult
	}
	result.Refund = &refund

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode payment result")
	}

	row, err := l.repo.MarkOrderRefunded(ctx, repository.MarkOrderRefundedParams{
		ID:            order.ID,
		RefundedAt:    refund.RefundedAt,
		RefundAmount:  refund.Amount,
		PaymentResult: payload,
	})
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, l.explainRejected(ctx, op, order, domain.ErrAlreadyRefunded)
		}
		return nil, domain.Internal(err, op, "failed to mark order refunded")
	}

	refunded, err := toDomainOrder(row, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}
	refunded.Items = order.Items

	sideEffects{repo: l.repo, logger: l.logger}.restock(ctx, refunded)

	if telemetry.Business != nil {
		telemetry.Business.RefundsIssued.WithLabelValues(refund.Source).Inc()
		telemetry.Business.RefundAmount.WithLabelValues(refund.Source).Add(refund.Amount.InexactFloat64())
	}

	l.logger.Info().
		Str("order_id", refunded.ID.String()).
		Str("refund_id", refund.ID).
		Str("amount", refund.Amount.StringFixed(2)).
		Str("source", refund.Source).
		Msg("order refunded")

	notify(ctx, l.notifier, l.logger, domain.NewOrderEvent(domain.OrderEventRefunded, refunded, l.opts.now()))
	return refunded, nil
}

// explainRejected re-reads an order whose guarded update matched no row and
// returns the error describing its current state.
func (l ledger) explainRejected(ctx context.Context, op string, order *domain.Order, fallback error) error {
	current, err := loadOrder(ctx, l.repo, op, order.ID)
	if err != nil {
		return err
	}

	switch fallback {
	case domain.ErrAlreadyPaid:
		if err := current.CheckPayable(); err != nil {
			return domain.WithOp(err, op)
		}
	case domain.ErrAlreadyRefunded:
		if err := current.CheckRefundable(); err != nil {
			return domain.WithOp(err, op)
		}
	}
	return domain.WithOp(fallback, op)
}
