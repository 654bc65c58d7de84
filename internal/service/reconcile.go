package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/dukerupert/mercato/internal/telemetry"
	"github.com/rs/zerolog"
)

// ReconcileService repairs the denormalized counters that order placement
// updates on a best-effort basis.
type ReconcileService struct {
	repo   repository.Store
	logger zerolog.Logger
}

// NewReconcileService creates a ReconcileService.
func NewReconcileService(repo repository.Store, logger zerolog.Logger) *ReconcileService {
	return &ReconcileService{
		repo:   repo,
		logger: logger.With().Str("service", "reconcile").Logger(),
	}
}

// Run recomputes coupon usage and product sales counts from orders in one
// transaction and reports how many rows changed.
func (s *ReconcileService) Run(ctx context.Context) (*domain.ReconcileReport, error) {
	const op = "reconcile.run"
	start := time.Now()

	var report domain.ReconcileReport
	err := s.repo.ExecTx(ctx, func(q repository.Querier) error {
		coupons, err := q.ReconcileCouponUsage(ctx)
		if err != nil {
			return fmt.Errorf("reconcile coupon usage: %w", err)
		}
		products, err := q.ReconcileProductSales(ctx)
		if err != nil {
			return fmt.Errorf("reconcile product sales: %w", err)
		}
		report.CouponsUpdated = coupons
		report.ProductsUpdated = products
		return nil
	})
	if err != nil {
		if telemetry.Business != nil {
			telemetry.Business.JobsFailed.WithLabelValues("reconcile").Inc()
		}
		return nil, domain.Internal(err, op, "failed to reconcile counters")
	}

	if telemetry.Business != nil {
		telemetry.Business.JobsProcessed.WithLabelValues("reconcile").Inc()
		telemetry.Business.CountersRepaired.WithLabelValues("coupon_times_used").Add(float64(report.CouponsUpdated))
		telemetry.Business.CountersRepaired.WithLabelValues("product_sales_count").Add(float64(report.ProductsUpdated))
	}

	s.logger.Info().
		Int64("coupons_updated", report.CouponsUpdated).
		Int64("products_updated", report.ProductsUpdated).
		Dur("duration", time.Since(start)).
		Msg("counters reconciled")

	return &report, nil
}
