// Command reconcile runs one counter reconciliation pass and exits.
// It uses the same environment as the server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dukerupert/mercato/internal"
	"github.com/dukerupert/mercato/internal/postgres"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/dukerupert/mercato/internal/service"
	"github.com/rs/zerolog/log"
)

func run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{URL: cfg.DatabaseUrl, MaxConns: 2})
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	report, err := service.NewReconcileService(repository.NewStore(pool), logger).Run(ctx)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	logger.Info().
		Int64("coupons_updated", report.CouponsUpdated).
		Int64("products_updated", report.ProductsUpdated).
		Msg("reconcile completed")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("reconcile exited")
	}
}
