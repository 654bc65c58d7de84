package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultSubject is the NATS subject order events are published on.
const DefaultSubject = "orders.events"

// Publisher is the subset of *nats.Conn used to publish events.
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NATSNotifier publishes order events as JSON to a NATS subject.
// Publishing is buffered by the connection and does not wait for consumers.
type NATSNotifier struct {
	conn    Publisher
	subject string
}

// NewNATSNotifier creates a notifier publishing on subject.
func NewNATSNotifier(conn Publisher, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSNotifier{conn: conn, subject: subject}
}

// Publish implements service.Notifier.
func (n *NATSNotifier) Publish(ctx context.Context, event domain.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = data
	msg.Header.Set("Event-Type", string(event.Type))
	msg.Header.Set(nats.MsgIdHdr, event.OrderID.String()+":"+string(event.Type))

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// Handler processes one order event.
type Handler func(ctx context.Context, event domain.OrderEvent) error

// AsyncNotifier runs the handler in a goroutine. It is used when no NATS
// server is configured so events are still delivered in-process.
type AsyncNotifier struct {
	handle  Handler
	timeout time.Duration
	logger  zerolog.Logger
}

func NewAsyncNotifier(handle Handler, timeout time.Duration, logger zerolog.Logger) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncNotifier{
		handle:  handle,
		timeout: timeout,
		logger:  logger.With().Str("component", "notifier").Logger(),
	}
}

// Publish implements service.Notifier. It never returns an error; handler
// failures are logged.
func (n *AsyncNotifier) Publish(ctx context.Context, event domain.OrderEvent) error {
	// Detach from the request so the handler outlives it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)

	go func() {
		defer cancel()
		if err := n.handle(ctx, event); err != nil {
			n.logger.Error().
				Err(err).
				Str("event", string(event.Type)).
				Str("order_id", event.OrderID.String()).
				Msg("order event handler failed")
		}
	}()
	return nil
}
