// Package worker consumes order events and runs periodic maintenance.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/jobs"
	"github.com/dukerupert/mercato/internal/telemetry"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// Subject is the NATS subject order events are published on
	Subject string

	// Queue is the NATS queue group; each event goes to one worker in the group
	Queue string

	// MaxConcurrency is the maximum number of events handled concurrently
	MaxConcurrency int

	// JobTimeout bounds a single event handler
	JobTimeout time.Duration

	// ReconcileInterval is how often counters are reconciled (0 disables)
	ReconcileInterval time.Duration

	// ShutdownTimeout is how long Start waits for in-flight handlers
	ShutdownTimeout time.Duration
}

// Subscriber is the subset of *nats.Conn the worker consumes from.
type Subscriber interface {
	ChanQueueSubscribe(subj, queue string, ch chan *nats.Msg) (*nats.Subscription, error)
}

// Reconciler repairs denormalized counters.
type Reconciler interface {
	Run(ctx context.Context) (*domain.ReconcileReport, error)
}

// Worker processes background jobs
type Worker struct {
	config     Config
	sub        Subscriber
	handle     jobs.Handler
	reconciler Reconciler
	logger     zerolog.Logger
	wg         sync.WaitGroup
}

// NewWorker creates a new background worker. A nil sub skips event
// consumption; a nil reconciler skips the reconcile tick.
func NewWorker(sub Subscriber, handle jobs.Handler, reconciler Reconciler, config Config, logger zerolog.Logger) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.Subject == "" {
		config.Subject = jobs.DefaultSubject
	}
	if config.Queue == "" {
		config.Queue = "mercato-workers"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	return &Worker{
		config:     config,
		sub:        sub,
		handle:     handle,
		reconciler: reconciler,
		logger:     logger.With().Str("worker_id", config.WorkerID).Logger(),
	}
}

// Start processes events and reconcile ticks until ctx is cancelled, then
// waits for in-flight handlers.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().
		Str("subject", w.config.Subject).
		Str("queue", w.config.Queue).
		Int("max_concurrency", w.config.MaxConcurrency).
		Dur("reconcile_interval", w.config.ReconcileInterval).
		Msg("worker starting")

	var msgs chan *nats.Msg
	if w.sub != nil && w.handle != nil {
		msgs = make(chan *nats.Msg, 64)
		sub, err := w.sub.ChanQueueSubscribe(w.config.Subject, w.config.Queue, msgs)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", w.config.Subject, err)
		}
		if sub != nil {
			defer func() { _ = sub.Unsubscribe() }()
		}
	}

	var tick <-chan time.Time
	if w.reconciler != nil && w.config.ReconcileInterval > 0 {
		ticker := time.NewTicker(w.config.ReconcileInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.config.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker shutting down")
			w.drain()
			return nil

		case msg := <-msgs:
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				continue
			}
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				defer func() { <-sem }()
				w.processMessage(ctx, msg)
			}()

		case <-tick:
			w.RunReconcile(ctx)
		}
	}
}

func (w *Worker) drain() {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn().Dur("timeout", w.config.ShutdownTimeout).Msg("in-flight jobs did not finish before shutdown")
	}
}

// processMessage decodes one order event and runs the handler.
func (w *Worker) processMessage(ctx context.Context, msg *nats.Msg) {
	defer telemetry.ReportPanic()

	var event domain.OrderEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		w.logger.Error().Err(err).Str("subject", msg.Subject).Msg("discarding malformed order event")
		telemetry.CaptureMessage(ctx, "discarding malformed order event", sentry.LevelWarning, map[string]interface{}{
			"subject": msg.Subject,
			"error":   err.Error(),
		})
		return
	}

	// In-flight jobs may finish after shutdown starts.
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.config.JobTimeout)
	defer cancel()

	jobCtx, finish := telemetry.StartSpan(jobCtx, "worker.job", string(event.Type))
	defer finish()

	logger := w.logger.With().
		Str("event", string(event.Type)).
		Str("order_id", event.OrderID.String()).
		Logger()

	if err := w.handle(logger.WithContext(jobCtx), event); err != nil {
		logger.Error().Err(err).Msg("job failed")
		telemetry.CaptureError(jobCtx, err, map[string]interface{}{
			"event":    string(event.Type),
			"order_id": event.OrderID.String(),
		})
		return
	}
	logger.Debug().Msg("job completed")
}

// RunReconcile runs one reconciliation pass and logs the result.
func (w *Worker) RunReconcile(ctx context.Context) {
	if w.reconciler == nil {
		return
	}

	start := time.Now()
	report, err := w.reconciler.Run(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("reconcile failed")
		if telemetry.Business != nil {
			telemetry.Business.JobsFailed.WithLabelValues("reconcile").Inc()
		}
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.JobsProcessed.WithLabelValues("reconcile").Inc()
	}
	w.logger.Info().
		Int64("coupons_updated", report.CouponsUpdated).
		Int64("products_updated", report.ProductsUpdated).
		Dur("duration", time.Since(start)).
		Msg("reconcile completed")
}
