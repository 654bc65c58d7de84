package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

const sentryFlushTimeout = 2 * time.Second

// SentryConfig configures error reporting.
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string

	// SampleRate is the share of errors reported. Zero means 1.0.
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

var sentryEnabled bool

// InitSentry starts the Sentry client and returns a flush func for shutdown.
// A disabled config or a missing DSN leaves every reporting helper a no-op.
func InitSentry(cfg SentryConfig, logger zerolog.Logger) (func(), error) {
	sentryEnabled = false
	noop := func() {}

	if !cfg.Enabled {
		logger.Info().Msg("sentry disabled")
		return noop, nil
	}
	if cfg.DSN == "" {
		logger.Warn().Msg("sentry enabled without a DSN; error reporting off")
		return noop, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
	}); err != nil {
		return nil, fmt.Errorf("telemetry: init sentry: %w", err)
	}
	sentryEnabled = true

	logger.Info().
		Str("environment", cfg.Environment).
		Str("release", cfg.Release).
		Float64("sample_rate", sampleRate).
		Msg("sentry initialized")

	return func() { sentry.Flush(sentryFlushTimeout) }, nil
}

// hubFrom returns the request or job hub in ctx, or the global hub.
func hubFrom(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// CaptureError reports err with extras attached to the event.
func CaptureError(ctx context.Context, err error, extras map[string]interface{}) {
	if !sentryEnabled || err == nil {
		return
	}
	hub := hubFrom(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetExtras(extras)
		hub.CaptureException(err)
	})
}

// CaptureMessage reports a non-error event at level.
func CaptureMessage(ctx context.Context, message string, level sentry.Level, extras map[string]interface{}) {
	if !sentryEnabled {
		return
	}
	hub := hubFrom(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		scope.SetExtras(extras)
		hub.CaptureMessage(message)
	})
}

// StartSpan opens a performance span named operation; call finish when done.
func StartSpan(ctx context.Context, operation, description string) (context.Context, func()) {
	if !sentryEnabled {
		return ctx, func() {}
	}
	span := sentry.StartSpan(ctx, operation)
	span.Description = description
	return span.Context(), span.Finish
}

// ReportPanic reports a recovered panic and panics again.
//
//	defer telemetry.ReportPanic()
func ReportPanic() {
	r := recover()
	if r == nil {
		return
	}
	if sentryEnabled {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(sentryFlushTimeout)
	}
	panic(r)
}

// SentryMiddleware gives each request its own hub and turns panics into
// reported 500s.
func SentryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sentryEnabled {
				next.ServeHTTP(w, r)
				return
			}

			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetRequest(r)
			ctx := sentry.SetHubOnContext(r.Context(), hub)

			defer func() {
				if err := recover(); err != nil {
					hub.RecoverWithContext(ctx, err)
					sentry.Flush(sentryFlushTimeout)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserInfo identifies the caller on reported events.
type UserInfo struct {
	ID    string
	Email string
}

// UserContextExtractor returns the authenticated caller, or nil for guests.
type UserContextExtractor func(ctx context.Context) *UserInfo

// SentryUserMiddleware tags the request hub with the caller. It runs after
// authentication and after SentryMiddleware.
func SentryUserMiddleware(extract UserContextExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sentryEnabled || extract == nil {
				next.ServeHTTP(w, r)
				return
			}
			if user := extract(r.Context()); user != nil {
				hubFrom(r.Context()).ConfigureScope(func(scope *sentry.Scope) {
					scope.SetUser(sentry.User{ID: user.ID, Email: user.Email})
				})
			}
			next.ServeHTTP(w, r)
		})
	}
}
