package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/handler"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles GET /health. It returns 500 when the database is unreachable.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				handler.ErrorResponse(w, r, domain.Internal(err, "health", "database unreachable"))
				return
			}
		}
		handler.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
