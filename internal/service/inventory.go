package service

import (
	"context"
	"fmt"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/dukerupert/mercato/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Post-commit updates. The order is already durable when these run, so a
// failure is recorded and left for the reconcile job instead of being returned.

const (
	opDecrementStock  = "decrement_stock"
	opIncrementSales  = "increment_sales"
	opIncrementCoupon = "increment_coupon_usage"
	opRestock         = "restock"
)

type sideEffects struct {
	repo   repository.Querier
	logger zerolog.Logger
}

// applyOrderPlaced decrements stock and increments sales for every item.
func (s sideEffects) applyOrderPlaced(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		rows, err := s.repo.DecrementProductStock(ctx, repository.DecrementProductStockParams{
			ID:       item.ProductID,
			Quantity: item.Quantity,
		})
		switch {
		case err != nil:
			s.fail(ctx, opDecrementStock, order.ID, item.ProductID, err)
		case rows == 0:
			s.oversell(ctx, order.ID, item)
		}

		if _, err := s.repo.IncrementProductSales(ctx, repository.IncrementProductSalesParams{
			ID:       item.ProductID,
			Quantity: item.Quantity,
		}); err != nil {
			s.fail(ctx, opIncrementSales, order.ID, item.ProductID, err)
		}
	}
}

// applyCouponUsed increments the usage counter of the coupon that priced the order.
func (s sideEffects) applyCouponUsed(ctx context.Context, orderID, couponID uuid.UUID) {
	rows, err := s.repo.IncrementCouponUsage(ctx, couponID)
	if err == nil && rows == 0 {
		err = fmt.Errorf("coupon %s no longer exists", couponID)
	}
	if err != nil {
		s.fail(ctx, opIncrementCoupon, orderID, couponID, err)
	}
}

// restock returns every item of the order to stock.
func (s sideEffects) restock(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		rows, err := s.repo.RestockProduct(ctx, repository.RestockProductParams{
			ID:       item.ProductID,
			Quantity: item.Quantity,
		})
		if err == nil && rows == 0 {
			err = fmt.Errorf("product %s no longer exists", item.ProductID)
		}
		if err != nil {
			s.fail(ctx, opRestock, order.ID, item.ProductID, err)
		}
	}
}

func (s sideEffects) fail(ctx context.Context, op string, orderID, targetID uuid.UUID, err error) {
	s.logger.Error().
		Err(err).
		Str("op", op).
		Str("order_id", orderID.String()).
		Str("target_id", targetID.String()).
		Msg("post-commit update failed")

	if telemetry.Business != nil {
		telemetry.Business.SideEffectFailures.WithLabelValues(op).Inc()
	}
	telemetry.CaptureError(ctx, err, map[string]interface{}{
		"op":        op,
		"order_id":  orderID.String(),
		"target_id": targetID.String(),
	})
}

func (s sideEffects) oversell(ctx context.Context, orderID uuid.UUID, item domain.OrderItem) {
	s.logger.Error().
		Str("op", opDecrementStock).
		Str("order_id", orderID.String()).
		Str("product_id", item.ProductID.String()).
		Int32("quantity", item.Quantity).
		Msg("stock decrement matched no row; product oversold")

	if telemetry.Business != nil {
		telemetry.Business.Oversells.Inc()
	}
	telemetry.CaptureError(ctx, fmt.Errorf("oversell: product %s quantity %d", item.ProductID, item.Quantity), map[string]interface{}{
		"order_id":   orderID.String(),
		"product_id": item.ProductID.String(),
	})
}
