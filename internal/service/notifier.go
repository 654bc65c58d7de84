package service

import (
	"context"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/rs/zerolog"
)

//go:generate mockgen -source=notifier.go -destination=notifier_mock.go -package=service

// Notifier publishes order lifecycle events. Implementations must not block
// on delivery; the event is handed off and processed elsewhere.
type Notifier interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, domain.OrderEvent) error { return nil }

// notify publishes the event and logs failures. Notification never fails the
// operation that triggered it.
func notify(ctx context.Context, n Notifier, logger zerolog.Logger, event domain.OrderEvent) {
	if n == nil {
		return
	}
	if err := n.Publish(ctx, event); err != nil {
		logger.Warn().
			Err(err).
			Str("event", string(event.Type)).
			Str("order_id", event.OrderID.String()).
			Msg("failed to publish order event")
	}
}
