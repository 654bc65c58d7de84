package service

import (
	"context"
	"strings"
	"time"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/postgres"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/dukerupert/mercato/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type adminService struct {
	repo     repository.Store
	ledger   ledger
	notifier Notifier
	opts     Options
	logger   zerolog.Logger
}

// NewAdminService creates the operator override service. Every method
// requires the admin role and skips ownership checks.
func NewAdminService(repo repository.Store, notifier Notifier, opts Options, logger zerolog.Logger) domain.AdminService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	opts = opts.withDefaults()
	logger = logger.With().Str("service", "admin").Logger()

	return &adminService{
		repo:     repo,
		ledger:   ledger{repo: repo, notifier: notifier, opts: opts, logger: logger},
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

func (s *adminService) MarkPaid(ctx context.Context, r domain.Requester, orderID uuid.UUID, note string) (*domain.Order, error) {
	const op = "admin.mark_paid"

	order, err := s.load(ctx, op, r, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.CheckPayable(); err != nil {
		return nil, domain.WithOp(err, op)
	}

	result := domain.PaymentResult{
		Status:     "completed",
		UpdateTime: s.opts.now().Format(time.RFC3339),
		Provider:   order.PaymentMethod,
		Amount:     order.TotalPrice,
		Note:       strings.TrimSpace(note),
	}
	// Keep the provider reference of an earlier COD marker or intent.
	if order.PaymentResult != nil {
		result.ID = order.PaymentResult.ID
		result.EmailAddress = order.PaymentResult.EmailAddress
	}
	if result.Note == "" {
		result.Note = "Marked paid by " + r.Email
	}

	return s.ledger.markPaid(ctx, op, order, result, "manual")
}

func (s *adminService) ForceRefund(ctx context.Context, r domain.Requester, orderID uuid.UUID, params domain.RefundParams) (*domain.Order, error) {
	const op = "admin.force_refund"

	order, err := s.load(ctx, op, r, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.CheckRefundable(); err != nil {
		return nil, domain.WithOp(err, op)
	}

	return s.ledger.markRefunded(ctx, op, order, domain.RefundDetail{
		Amount:     order.RefundAmountFor(params.Amount),
		Reason:     params.Reason,
		Status:     "succeeded",
		Source:     "manual",
		RefundedAt: s.opts.now(),
		RefundedBy: r.UserID.String(),
	})
}

func (s *adminService) MarkShipped(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	const op = "admin.mark_shipped"

	order, err := s.load(ctx, op, r, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(domain.OrderStatusShipped, order.PaymentMethod) {
		return nil, domain.WithOp(domain.ErrInvalidTransition, op)
	}

	row, err := s.repo.MarkOrderShipped(ctx, repository.MarkOrderShippedParams{ID: orderID, ShippedAt: s.opts.now()})
	return s.finishTransition(ctx, op, order, row, err, domain.OrderEventShipped)
}

func (s *adminService) MarkDelivered(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	const op = "admin.mark_delivered"

	order, err := s.load(ctx, op, r, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(domain.OrderStatusDelivered, order.PaymentMethod) {
		return nil, domain.WithOp(domain.ErrInvalidTransition, op)
	}

	row, err := s.repo.MarkOrderDelivered(ctx, repository.MarkOrderDeliveredParams{ID: orderID, DeliveredAt: s.opts.now()})
	return s.finishTransition(ctx, op, order, row, err, domain.OrderEventDelivered)
}

func (s *adminService) ApproveReturn(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	return s.moveReturn(ctx, "admin.approve_return", r, orderID, domain.ReturnStatusApproved)
}

func (s *adminService) RejectReturn(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	return s.moveReturn(ctx, "admin.reject_return", r, orderID, domain.ReturnStatusRejected)
}

func (s *adminService) CompleteReturn(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	return s.moveReturn(ctx, "admin.complete_return", r, orderID, domain.ReturnStatusCompleted)
}

func (s *adminService) ListOrders(ctx context.Context, r domain.Requester, filter domain.OrderFilter) (*domain.OrderList, error) {
	const op = "admin.list_orders"

	if !r.IsAdmin() {
		return nil, domain.WithOp(domain.ErrAdminRequired, op)
	}
	return listOrders(ctx, s.repo, op, filter)
}

func (s *adminService) moveReturn(ctx context.Context, op string, r domain.Requester, orderID uuid.UUID, to domain.ReturnStatus) (*domain.Order, error) {
	order, err := s.load(ctx, op, r, orderID)
	if err != nil {
		return nil, err
	}

	from := order.ReturnStatus
	if from == "" {
		from = domain.ReturnStatusNone
	}
	if !from.CanTransitionTo(to) {
		return nil, domain.WithOp(domain.ErrInvalidReturnChange, op)
	}

	row, err := s.repo.UpdateReturnStatus(ctx, repository.UpdateReturnStatusParams{
		ID:          orderID,
		FromStatus:  string(from),
		ToStatus:    string(to),
		Reason:      order.ReturnReason,
		RequestedAt: nullTimestamptz(order.ReturnRequestedAt),
	})
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.WithOp(domain.ErrInvalidReturnChange, op)
		}
		return nil, domain.Internal(err, op, "failed to update return status")
	}

	if telemetry.Business != nil {
		telemetry.Business.ReturnsUpdated.WithLabelValues(string(to)).Inc()
	}
	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("by", r.UserID.String()).
		Msg("return status updated")

	updated, err := toDomainOrder(row, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}
	updated.Items = order.Items
	return updated, nil
}

func (s *adminService) finishTransition(ctx context.Context, op string, order *domain.Order, row repository.Order, err error, event domain.OrderEventType) (*domain.Order, error) {
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.WithOp(domain.ErrInvalidTransition, op)
		}
		return nil, domain.Internal(err, op, "failed to update order status")
	}

	updated, err := toDomainOrder(row, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}
	updated.Items = order.Items

	s.logger.Info().
		Str("order_id", updated.ID.String()).
		Str("from", string(order.Status)).
		Str("to", string(updated.Status)).
		Msg("order status updated")

	notify(ctx, s.notifier, s.logger, domain.NewOrderEvent(event, updated, s.opts.now()))
	return updated, nil
}

func (s *adminService) load(ctx context.Context, op string, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	if !r.IsAdmin() {
		return nil, domain.WithOp(domain.ErrAdminRequired, op)
	}
	return loadOrder(ctx, s.repo, op, orderID)
}

