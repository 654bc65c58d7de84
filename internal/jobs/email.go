package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/email"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/dukerupert/mercato/internal/telemetry"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// OrderReader loads an order with its items.
type OrderReader interface {
	GetOrder(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error)
}

// UserReader resolves the customer's contact details.
type UserReader interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
}

// OrderMailer sends order emails.
type OrderMailer interface {
	SendOrderEmail(ctx context.Context, data email.OrderEmail) error
}

const jobTypeOrderEmail = "order_email"

// systemRequester reads orders on behalf of background jobs.
var systemRequester = domain.Requester{Role: domain.RoleAdmin, Email: "system@mercato"}

// OrderEmailJob emails the customer about order lifecycle events.
type OrderEmailJob struct {
	orders   OrderReader
	users    UserReader
	mailer   OrderMailer
	orderURL string
	logger   zerolog.Logger
}

// NewOrderEmailJob creates the job. baseURL, when set, links emails to
// {baseURL}/orders/{id}.
func NewOrderEmailJob(orders OrderReader, users UserReader, mailer OrderMailer, baseURL string, logger zerolog.Logger) *OrderEmailJob {
	return &OrderEmailJob{
		orders:   orders,
		users:    users,
		mailer:   mailer,
		orderURL: baseURL,
		logger:   logger.With().Str("job", "order_email").Logger(),
	}
}

// Handle implements Handler. Events for users without an email are dropped.
func (j *OrderEmailJob) Handle(ctx context.Context, event domain.OrderEvent) (err error) {
	defer func() {
		if telemetry.Business == nil {
			return
		}
		if err != nil {
			telemetry.Business.JobsFailed.WithLabelValues(jobTypeOrderEmail).Inc()
		} else {
			telemetry.Business.JobsProcessed.WithLabelValues(jobTypeOrderEmail).Inc()
		}
	}()

	order, err := j.orders.GetOrder(ctx, systemRequester, event.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", event.OrderID, err)
	}

	user, err := j.users.GetUserByID(ctx, order.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		j.logger.Warn().Str("user_id", order.UserID.String()).Msg("order owner not found, skipping email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user %s: %w", order.UserID, err)
	}
	if user.Email == "" {
		return nil
	}

	data := email.OrderEmail{
		Type:         event.Type,
		Email:        user.Email,
		CustomerName: user.Name,
		Order:        order,
	}
	if j.orderURL != "" {
		data.OrderURL = j.orderURL + "/orders/" + order.ID.String()
	}

	if err := j.mailer.SendOrderEmail(ctx, data); err != nil {
		if telemetry.Business != nil {
			telemetry.Business.EmailFailed.WithLabelValues(string(event.Type)).Inc()
		}
		return err
	}

	if telemetry.Business != nil {
		telemetry.Business.EmailSent.WithLabelValues(string(event.Type)).Inc()
	}
	j.logger.Info().
		Str("event", string(event.Type)).
		Str("order_number", order.OrderNumber).
		Msg("order email sent")
	return nil
}
