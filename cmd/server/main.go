package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dukerupert/mercato/internal"
	"github.com/dukerupert/mercato/internal/address"
	"github.com/dukerupert/mercato/internal/auth"
	"github.com/dukerupert/mercato/internal/billing"
	"github.com/dukerupert/mercato/internal/bootstrap"
	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/email"
	"github.com/dukerupert/mercato/internal/handler/api"
	"github.com/dukerupert/mercato/internal/handler/webhook"
	"github.com/dukerupert/mercato/internal/jobs"
	"github.com/dukerupert/mercato/internal/middleware"
	"github.com/dukerupert/mercato/internal/postgres"
	"github.com/dukerupert/mercato/internal/pricing"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/dukerupert/mercato/internal/router"
	"github.com/dukerupert/mercato/internal/routes"
	"github.com/dukerupert/mercato/internal/service"
	"github.com/dukerupert/mercato/internal/telemetry"
	"github.com/dukerupert/mercato/internal/worker"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(cfg.Sentry.Telemetry(), logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	telemetry.InitBusinessMetrics("mercato")

	// Run migrations over database/sql, then open the pgx pool for the app
	logger.Info().Msg("Running database migrations...")
	sqlDB, err := postgres.OpenMigrationDB(cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := internal.RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return fmt.Errorf("migration failed: %w", err)
	}
	sqlDB.Close()
	logger.Info().Msg("Database migrations completed successfully")

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{URL: cfg.DatabaseUrl})
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("Database connection established")

	store := repository.NewStore(pool)

	if cfg.Admin.Email != "" {
		err := bootstrap.EnsureMasterAdmin(ctx, store, &bootstrap.AdminConfig{
			UserID:    cfg.Admin.UserID,
			Email:     cfg.Admin.Email,
			FirstName: cfg.Admin.FirstName,
			LastName:  cfg.Admin.LastName,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to ensure master admin: %w", err)
		}
	}

	// Pricing, addresses and payments
	engine, err := pricing.NewEngineFromConfig(cfg.Commerce.Pricing())
	if err != nil {
		return fmt.Errorf("failed to initialize pricing engine: %w", err)
	}

	provider, err := newBillingProvider(cfg, logger)
	if err != nil {
		return err
	}

	// Email
	mailer, err := email.NewService(newEmailSender(ctx, cfg, logger), cfg.Email.From, cfg.Email.FromName, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	// Order events go to NATS when configured, otherwise they are handled in-process.
	// The email job reads orders through the order service, so it is bound late.
	var emailJob *jobs.OrderEmailJob
	handleEvent := func(ctx context.Context, event domain.OrderEvent) error {
		return emailJob.Handle(ctx, event)
	}

	var notifier service.Notifier
	var subscriber worker.Subscriber
	if cfg.NATS.URL != "" {
		nc, err := connectNATS(cfg.NATS.URL, logger)
		if err != nil {
			return err
		}
		defer nc.Drain()

		notifier = jobs.NewNATSNotifier(nc, cfg.NATS.Subject)
		subscriber = nc
	} else {
		logger.Warn().Msg("NATS_URL not set, order events are handled in-process")
		notifier = jobs.NewAsyncNotifier(handleEvent, 30*time.Second, logger)
	}

	// Services
	opts := cfg.Commerce.ServiceOptions()
	cartService := service.NewCartService(store, engine, opts, logger)
	orderService := service.NewOrderService(store, engine, address.NewBasicValidator(), notifier, opts, logger)
	paymentService := service.NewPaymentService(store, provider, notifier, opts, logger)
	adminService := service.NewAdminService(store, notifier, opts, logger)
	reconcileService := service.NewReconcileService(store, logger)

	emailJob = jobs.NewOrderEmailJob(orderService, store, mailer, cfg.BaseURL, logger)

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	metrics := middleware.NewMetrics("mercato", nil)

	limiter, closeLimiter := newRateLimiter(ctx, cfg, logger)
	defer closeLimiter()

	verifier := auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		telemetry.SentryMiddleware(),
		middleware.Authenticate(verifier, store),
		telemetry.SentryUserMiddleware(sentryUser),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		metrics.Middleware,
		middleware.RateLimit(limiter, cfg.Redis.Window),
		router.CORS(cfg.CORSOrigins),
		middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.Env == "prod")),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
	)

	// ==========================================================================
	// Register routes
	// ==========================================================================

	routes.RegisterSystemRoutes(r, routes.SystemDeps{DB: pool, Metrics: metrics.Handler()})
	routes.RegisterAPIRoutes(r, routes.APIDeps{
		CartHandler:  api.NewCartHandler(cartService),
		OrderHandler: api.NewOrderHandler(orderService, paymentService),
	})
	routes.RegisterAdminRoutes(r, routes.AdminDeps{
		AdminHandler: api.NewAdminHandler(adminService, paymentService, reconcileService),
	})
	routes.RegisterWebhookRoutes(r, routes.WebhookDeps{
		StripeHandler: webhook.NewStripeHandler(paymentService),
	})

	// ==========================================================================
	// Start worker and server
	// ==========================================================================

	w := worker.NewWorker(subscriber, handleEvent, reconcileService, worker.Config{
		Subject:           cfg.NATS.Subject,
		ReconcileInterval: cfg.Worker.ReconcileInterval,
	}, logger)

	workerDone := make(chan error, 1)
	go func() { workerDone <- w.Start(ctx) }()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", srv.Addr).Str("env", cfg.Env).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	stop()
	if err := <-workerDone; err != nil {
		logger.Error().Err(err).Msg("worker stopped with error")
	}

	return nil
}

// newBillingProvider uses Stripe when a real key is configured and the
// in-memory provider otherwise. Production refuses to start without Stripe.
func newBillingProvider(cfg *internal.Config, logger zerolog.Logger) (billing.Provider, error) {
	key := cfg.Stripe.SecretKey
	if key == "" || strings.HasSuffix(key, "_here") {
		if cfg.Env == "prod" {
			return nil, errors.New("STRIPE_SECRET_KEY must be set in production environment")
		}
		logger.Warn().Msg("Stripe is not configured, using the mock billing provider")
		return billing.NewMockProvider(), nil
	}

	provider, err := billing.NewStripeProvider(cfg.Stripe.Billing(cfg.Commerce.Currency))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}
	logger.Info().Bool("test_mode", strings.HasPrefix(key, "sk_test_")).Msg("Stripe billing provider initialized")
	return provider, nil
}

func newEmailSender(ctx context.Context, cfg *internal.Config, logger zerolog.Logger) email.Sender {
	if cfg.Email.Host == "" {
		logger.Warn().Msg("SMTP_HOST not set, emails will be logged instead of sent")
		return email.NewLogSender(logger)
	}
	sender := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     int(cfg.Email.Port),
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	}, logger)

	// An unreachable relay only delays emails; jobs log each failed send.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sender.Ping(pingCtx); err != nil {
		logger.Warn().Err(err).Str("host", cfg.Email.Host).Msg("SMTP server unreachable")
	}
	return sender
}

func connectNATS(url string, logger zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("mercato"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS connection established")
	return nc, nil
}

// newRateLimiter prefers the shared Redis limiter and falls back to the
// per-process token bucket when Redis is not configured or unreachable.
func newRateLimiter(ctx context.Context, cfg *internal.Config, logger zerolog.Logger) (middleware.Limiter, func()) {
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Warn().Err(err).Msg("invalid REDIS_URL, using in-memory rate limiter")
		} else {
			client := redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := client.Ping(pingCtx).Err(); err != nil {
				logger.Warn().Err(err).Msg("Redis unreachable, using in-memory rate limiter")
				_ = client.Close()
			} else {
				logger.Info().Msg("Redis rate limiter enabled")
				return middleware.NewRedisRateLimiter(client, cfg.Redis.RateLimit, cfg.Redis.Window), func() { _ = client.Close() }
			}
		}
	}

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	return rl, rl.Stop
}

func sentryUser(ctx context.Context) *telemetry.UserInfo {
	user := domain.UserFromContext(ctx)
	if user == nil {
		return nil
	}
	return &telemetry.UserInfo{ID: user.ID.String(), Email: user.Email}
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
