package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// WithRequestLogger creates middleware that injects a request-scoped logger into the context.
// The logger includes request metadata (request_id, method, path) and user info if available.
// This middleware should be placed after RequestID and Authenticate in the middleware chain.
func WithRequestLogger(baseLogger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lctx := baseLogger.With().
				Str("method", r.Method).
				Str("path", r.URL.Path)

			if requestID := GetRequestID(r.Context()); requestID != "" {
				lctx = lctx.Str("request_id", requestID)
			}

			if user := GetUserFromContext(r.Context()); user != nil {
				lctx = lctx.Str("user_id", user.ID.String())
			}

			requestLogger := lctx.Logger()
			next.ServeHTTP(w, r.WithContext(requestLogger.WithContext(r.Context())))
		})
	}
}

// GetLogger retrieves the request-scoped logger from the context.
// Without one it returns zerolog's default context logger, which is
// disabled unless zerolog.DefaultContextLogger is set.
func GetLogger(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
