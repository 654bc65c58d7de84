package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukerupert/mercato/internal/address"
	"github.com/dukerupert/mercato/internal/coupon"
	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/postgres"
	"github.com/dukerupert/mercato/internal/pricing"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/dukerupert/mercato/internal/telemetry"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	maxIdempotencyKeyLength = 255
	defaultPageSize         = 20
	maxPageSize             = 100

	idempotencyConstraint = "orders_user_idempotency_key"
)

type orderService struct {
	repo      repository.Store
	pricing   *pricing.Engine
	addresses address.Validator
	notifier  Notifier
	opts      Options
	logger    zerolog.Logger
}

// NewOrderService creates a new OrderService instance
func NewOrderService(
	repo repository.Store,
	engine *pricing.Engine,
	addresses address.Validator,
	notifier Notifier,
	opts Options,
	logger zerolog.Logger,
) domain.OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &orderService{
		repo:      repo,
		pricing:   engine,
		addresses: addresses,
		notifier:  notifier,
		opts:      opts.withDefaults(),
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder converts the cart into an order. Nothing is written until every
// line and the coupon have been checked against live data; the order, its
// items and the cleared cart then commit together. Inventory and coupon
// counters are updated after the commit.
func (s *orderService) CreateOrder(ctx context.Context, r domain.Requester, params domain.CreateOrderParams) (*domain.Order, error) {
	const op = "order.create"

	if !params.PaymentMethod.Valid() {
		return nil, domain.NewValidationError(op, "paymentMethod", "must be one of stripe, paypal, cod")
	}

	key := strings.TrimSpace(params.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLength {
		return nil, domain.WithOp(ErrIdempotencyKeyTooLong, op)
	}

	shipTo, err := s.resolveAddress(ctx, op, r, params)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if existing, err := s.findByIdempotencyKey(ctx, op, r.UserID, key); err != nil || existing != nil {
			return existing, err
		}
	}

	cart, err := s.repo.GetCartByUserID(ctx, r.UserID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, s.reject(op, "empty_cart", domain.ErrEmptyCart)
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}
	rows, err := s.repo.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load cart items")
	}
	if len(rows) == 0 {
		return nil, s.reject(op, "empty_cart", domain.ErrEmptyCart)
	}
	if len(rows) > s.opts.MaxCartLines {
		return nil, s.reject(op, "too_many_items", domain.ErrTooManyItems)
	}

	lines := toCartLines(rows)
	if err := checkAvailability(op, lines); err != nil {
		return nil, s.reject(op, "unavailable", err)
	}

	pl := pricingLines(lines)

	var (
		applied  *domain.Coupon
		discount = decimal.Zero
	)
	if cart.CouponID.Valid {
		applied, discount, err = s.validateCoupon(ctx, op, r.UserID, uuid.UUID(cart.CouponID.Bytes), lines, pl)
		if err != nil {
			return nil, s.reject(op, "coupon", err)
		}
	}

	breakdown, err := s.pricing.Price(pl, discount)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to price order")
	}

	addrJSON, err := json.Marshal(shipTo)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode shipping address")
	}

	orderParams := repository.CreateOrderParams{
		OrderNumber:     newOrderNumber(),
		UserID:          r.UserID,
		ShippingAddress: addrJSON,
		PaymentMethod:   string(params.PaymentMethod),
		ItemsPrice:      breakdown.Subtotal,
		DiscountAmount:  breakdown.Discount,
		ShippingPrice:   breakdown.Shipping,
		TaxPrice:        breakdown.Tax,
		TotalPrice:      breakdown.Total,
		IdempotencyKey:  pgtype.Text{String: key, Valid: key != ""},
	}
	if applied != nil {
		snap, err := json.Marshal(applied.Snapshot(breakdown.Discount))
		if err != nil {
			return nil, domain.Internal(err, op, "failed to encode coupon")
		}
		orderParams.CouponCode = pgtype.Text{String: applied.Code, Valid: true}
		orderParams.CouponApplied = snap
	}

	var (
		row   repository.Order
		items []repository.OrderItem
	)
	err = s.repo.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		row, err = q.CreateOrder(ctx, orderParams)
		if err != nil {
			return err
		}

		items = make([]repository.OrderItem, 0, len(lines))
		for _, line := range lines {
			item, err := q.CreateOrderItem(ctx, repository.CreateOrderItemParams{
				OrderID:   row.ID,
				ProductID: line.ProductID,
				Name:      line.Product.Name,
				Image:     line.Product.Image,
				Price:     line.Product.FinalPrice,
				Quantity:  line.Quantity,
			})
			if err != nil {
				return fmt.Errorf("create order item %s: %w", line.ProductID, err)
			}
			items = append(items, item)
		}

		if err := q.DeleteCartItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("delete cart items: %w", err)
		}
		if err := q.ClearCartCoupon(ctx, cart.ID); err != nil {
			return fmt.Errorf("clear cart coupon: %w", err)
		}
		return nil
	})
	if err != nil {
		if key != "" && postgres.IsUniqueViolation(err, idempotencyConstraint) {
			// A concurrent request with the same key won the insert.
			if existing, ferr := s.findByIdempotencyKey(ctx, op, r.UserID, key); ferr != nil || existing != nil {
				return existing, ferr
			}
		}
		return nil, domain.Internal(err, op, "failed to create order")
	}

	order, err := toDomainOrder(row, items)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}

	effects := sideEffects{repo: s.repo, logger: s.logger}
	effects.applyOrderPlaced(ctx, order)
	if applied != nil {
		effects.applyCouponUsed(ctx, order.ID, applied.ID)
	}

	if telemetry.Business != nil {
		telemetry.Business.OrdersCreated.WithLabelValues(string(order.PaymentMethod)).Inc()
		telemetry.Business.OrderValue.WithLabelValues(string(order.PaymentMethod)).Observe(order.TotalPrice.InexactFloat64())
		telemetry.Business.OrderItemCount.WithLabelValues(string(order.PaymentMethod)).Observe(float64(len(order.Items)))
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("user_id", r.UserID.String()).
		Str("total", order.TotalPrice.StringFixed(2)).
		Msg("order created")

	notify(ctx, s.notifier, s.logger, domain.NewOrderEvent(domain.OrderEventCreated, order, s.opts.now()))

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	const op = "order.get"
	return loadAccessibleOrder(ctx, s.repo, op, r, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, r domain.Requester, filter domain.OrderFilter) (*domain.OrderList, error) {
	const op = "order.list"

	if !r.IsAdmin() || filter.UserID == nil {
		filter.UserID = &r.UserID
	}
	return listOrders(ctx, s.repo, op, filter)
}

func (s *orderService) CancelOrder(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	const op = "order.cancel"

	order, err := loadAccessibleOrder(ctx, s.repo, op, r, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.CheckCancellable(); err != nil {
		return nil, domain.WithOp(err, op)
	}

	row, err := s.repo.CancelOrder(ctx, repository.CancelOrderParams{ID: orderID, CancelledAt: s.opts.now()})
	if err != nil {
		if postgres.IsNoRows(err) {
			// Paid or cancelled between the read and the update.
			return nil, domain.WithOp(domain.ErrOrderNotCancellable, op)
		}
		return nil, domain.Internal(err, op, "failed to cancel order")
	}

	cancelled, err := toDomainOrder(row, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}
	cancelled.Items = order.Items

	sideEffects{repo: s.repo, logger: s.logger}.restock(ctx, cancelled)

	if telemetry.Business != nil {
		telemetry.Business.OrdersCancelled.Inc()
	}
	s.logger.Info().Str("order_id", orderID.String()).Str("by", r.UserID.String()).Msg("order cancelled")

	notify(ctx, s.notifier, s.logger, domain.NewOrderEvent(domain.OrderEventCancelled, cancelled, s.opts.now()))

	return cancelled, nil
}

func (s *orderService) RequestReturn(ctx context.Context, r domain.Requester, orderID uuid.UUID, reason string) (*domain.Order, error) {
	const op = "order.request_return"

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.WithOp(ErrReturnReasonRequired, op)
	}

	order, err := loadOrder(ctx, s.repo, op, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(r.UserID) {
		return nil, domain.WithOp(domain.ErrOrderNotOwned, op)
	}

	now := s.opts.now()
	if err := order.CheckReturnable(now, s.opts.ReturnWindow); err != nil {
		return nil, domain.WithOp(err, op)
	}

	row, err := s.repo.UpdateReturnStatus(ctx, repository.UpdateReturnStatusParams{
		ID:          orderID,
		FromStatus:  string(domain.ReturnStatusNone),
		ToStatus:    string(domain.ReturnStatusRequested),
		Reason:      reason,
		RequestedAt: pgtype.Timestamptz{Time: now, Valid: true},
	})
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.WithOp(domain.ErrReturnAlreadyOpened, op)
		}
		return nil, domain.Internal(err, op, "failed to request return")
	}

	if telemetry.Business != nil {
		telemetry.Business.ReturnsUpdated.WithLabelValues(string(domain.ReturnStatusRequested)).Inc()
	}

	updated, err := toDomainOrder(row, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}
	updated.Items = order.Items
	return updated, nil
}

func (s *orderService) resolveAddress(ctx context.Context, op string, r domain.Requester, params domain.CreateOrderParams) (domain.ShippingAddress, error) {
	switch {
	case params.ShippingAddress != nil:
		result, err := s.addresses.Validate(ctx, *params.ShippingAddress)
		if err != nil {
			return domain.ShippingAddress{}, domain.Internal(err, op, "failed to validate address")
		}
		if !result.IsValid {
			if verr := result.AsDomainError(op); verr != nil {
				return domain.ShippingAddress{}, verr
			}
			return domain.ShippingAddress{}, domain.NewValidationError(op, "shippingAddress", "is invalid")
		}
		if result.NormalizedAddress != nil {
			return *result.NormalizedAddress, nil
		}
		return *params.ShippingAddress, nil

	case params.ShippingAddressID != nil:
		row, err := s.repo.GetAddressByID(ctx, *params.ShippingAddressID)
		if err != nil {
			if postgres.IsNoRows(err) {
				return domain.ShippingAddress{}, domain.WithOp(domain.ErrAddressNotFound, op)
			}
			return domain.ShippingAddress{}, domain.Internal(err, op, "failed to load address")
		}
		addr := toDomainAddress(row)
		if addr.UserID != r.UserID {
			return domain.ShippingAddress{}, domain.WithOp(domain.ErrAddressNotOwned, op)
		}
		return addr.Snapshot(), nil
	}

	return domain.ShippingAddress{}, domain.WithOp(ErrShippingAddressRequired, op)
}

// findByIdempotencyKey returns nil, nil when no order was placed with key.
func (s *orderService) findByIdempotencyKey(ctx context.Context, op string, userID uuid.UUID, key string) (*domain.Order, error) {
	row, err := s.repo.GetOrderByIdempotencyKey(ctx, repository.GetOrderByIdempotencyKeyParams{
		UserID:         userID,
		IdempotencyKey: key,
	})
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, domain.Internal(err, op, "failed to look up idempotency key")
	}

	items, err := s.repo.GetOrderItems(ctx, row.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}

	s.logger.Info().
		Str("order_id", row.ID.String()).
		Str("idempotency_key", key).
		Msg("returning existing order for idempotency key")

	order, err := toDomainOrder(row, items)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}
	return order, nil
}

func (s *orderService) validateCoupon(
	ctx context.Context,
	op string,
	userID, couponID uuid.UUID,
	lines []domain.CartLine,
	pl []pricing.Line,
) (*domain.Coupon, decimal.Decimal, error) {
	row, err := s.repo.GetCouponByID(ctx, couponID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, decimal.Zero, domain.CouponInvalid(op, "Coupon is no longer available")
		}
		return nil, decimal.Zero, domain.Internal(err, op, "failed to load coupon")
	}
	c := toDomainCoupon(row)

	used, err := s.repo.CountUserCouponUsage(ctx, repository.CountUserCouponUsageParams{
		UserID:     userID,
		CouponCode: c.Code,
	})
	if err != nil {
		return nil, decimal.Zero, domain.Internal(err, op, "failed to count coupon usage")
	}

	amount, err := coupon.Validate(c, coupon.Context{
		Now:        s.opts.now(),
		ProductIDs: productIDs(lines),
		Subtotal:   pricing.Subtotal(pl),
		UserUsage:  &used,
	})
	if err != nil {
		return nil, decimal.Zero, domain.WithOp(err, op)
	}
	return c, amount, nil
}

func (s *orderService) reject(op, reason string, err error) error {
	if telemetry.Business != nil {
		telemetry.Business.OrdersRejected.WithLabelValues(reason).Inc()
	}
	return domain.WithOp(err, op)
}

// checkAvailability fails when any line is no longer sold or exceeds live stock.
func checkAvailability(op string, lines []domain.CartLine) error {
	var problems []string
	outOfStockOnly := true

	for _, line := range lines {
		p := line.Product
		switch {
		case p == nil:
			problems = append(problems, fmt.Sprintf("product %s (removed)", line.ProductID))
			outOfStockOnly = false
		case !p.IsActive:
			problems = append(problems, fmt.Sprintf("%s (removed)", p.Name))
			outOfStockOnly = false
		case p.Stock < line.Quantity:
			problems = append(problems, fmt.Sprintf("%s (out of stock: %d available)", p.Name, p.Stock))
		}
	}
	if len(problems) == 0 {
		return nil
	}

	code := domain.EINVALIDSTATE
	if outOfStockOnly {
		code = domain.ESTOCK
	}
	return domain.Errorf(code, op, "Some items in your cart are unavailable: %s", strings.Join(problems, ", "))
}

func newOrderNumber() string {
	return "ORD-" + ulid.Make().String()
}

func loadOrder(ctx context.Context, q repository.Querier, op string, orderID uuid.UUID) (*domain.Order, error) {
	row, err := q.GetOrderByID(ctx, orderID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.WithOp(domain.ErrOrderNotFound, op)
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	items, err := q.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}

	order, err := toDomainOrder(row, items)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}
	return order, nil
}

func loadAccessibleOrder(ctx context.Context, q repository.Querier, op string, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	order, err := loadOrder(ctx, q, op, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeAccessedBy(r) {
		return nil, domain.WithOp(domain.ErrOrderNotOwned, op)
	}
	return order, nil
}

func listOrders(ctx context.Context, q repository.Querier, op string, filter domain.OrderFilter) (*domain.OrderList, error) {
	if filter.Sort == "" {
		filter.Sort = domain.OrderSortNewest
	}
	if !filter.Sort.Valid() {
		return nil, domain.NewValidationError(op, "sort", "must be one of newest, oldest, total_asc, total_desc")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, domain.NewValidationError(op, "status", "unknown order status")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	var status pgtype.Text
	if filter.Status != nil {
		status = pgtype.Text{String: string(*filter.Status), Valid: true}
	}
	var isPaid pgtype.Bool
	if filter.IsPaid != nil {
		isPaid = pgtype.Bool{Bool: *filter.IsPaid, Valid: true}
	}

	countParams := repository.CountOrdersParams{
		UserID:      nullUUID(filter.UserID),
		Status:      status,
		IsPaid:      isPaid,
		CreatedFrom: nullTimestamptz(filter.From),
		CreatedTo:   nullTimestamptz(filter.To),
		MinTotal:    nullDecimal(filter.MinTotal),
		MaxTotal:    nullDecimal(filter.MaxTotal),
	}

	total, err := q.CountOrders(ctx, countParams)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count orders")
	}

	rows, err := q.ListOrders(ctx, repository.ListOrdersParams{
		UserID:      countParams.UserID,
		Status:      countParams.Status,
		IsPaid:      countParams.IsPaid,
		CreatedFrom: countParams.CreatedFrom,
		CreatedTo:   countParams.CreatedTo,
		MinTotal:    countParams.MinTotal,
		MaxTotal:    countParams.MaxTotal,
		Sort:        string(filter.Sort),
		Limit:       int32(filter.PageSize),
		Offset:      int32((filter.Page - 1) * filter.PageSize),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}

	list := &domain.OrderList{
		Orders:     make([]domain.Order, 0, len(rows)),
		Pagination: domain.NewPagination(int(total), filter.Page, filter.PageSize),
	}
	for _, row := range rows {
		order, err := toDomainOrder(row, nil)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to decode order")
		}
		list.Orders = append(list.Orders, *order)
	}
	return list, nil
}
