// source: orders.sql

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, order_number, user_id, shipping_address, payment_method,
    items_price, discount_amount, shipping_price, tax_price, total_price,
    coupon_code, coupon_applied, is_paid, paid_at, payment_result,
    status, return_status, return_requested_at, return_reason,
    is_delivered, delivered_at, shipped_at, cancelled_at, refunded_at, refund_amount,
    idempotency_key, created_at, updated_at`

func scanOrder(row rowScanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.UserID,
		&i.ShippingAddress,
		&i.PaymentMethod,
		&i.ItemsPrice,
		&i.DiscountAmount,
		&i.ShippingPrice,
		&i.TaxPrice,
		&i.TotalPrice,
		&i.CouponCode,
		&i.CouponApplied,
		&i.IsPaid,
		&i.PaidAt,
		&i.PaymentResult,
		&i.Status,
		&i.ReturnStatus,
		&i.ReturnRequestedAt,
		&i.ReturnReason,
		&i.IsDelivered,
		&i.DeliveredAt,
		&i.ShippedAt,
		&i.CancelledAt,
		&i.RefundedAt,
		&i.RefundAmount,
		&i.IdempotencyKey,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const cancelOrder = `-- name: CancelOrder :one
UPDATE orders
SET status = 'cancelled',
    cancelled_at = $2,
    updated_at = NOW()
WHERE id = $1 AND status = 'pending' AND is_paid = FALSE
RETURNING ` + orderColumns

type CancelOrderParams struct {
	ID          uuid.UUID
	CancelledAt time.Time
}

// CancelOrder returns pgx.ErrNoRows when the order is no longer pending and unpaid.
func (q *Queries) CancelOrder(ctx context.Context, arg CancelOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, cancelOrder, arg.ID, arg.CancelledAt)
	return scanOrder(row)
}

const countOrders = `-- name: CountOrders :one
SELECT COUNT(*)
FROM orders
WHERE ($1::uuid IS NULL OR user_id = $1)
  AND ($2::text IS NULL OR status = $2)
  AND ($3::boolean IS NULL OR is_paid = $3)
  AND ($4::timestamptz IS NULL OR created_at >= $4)
  AND ($5::timestamptz IS NULL OR created_at <= $5)
  AND ($6::numeric IS NULL OR total_price >= $6)
  AND ($7::numeric IS NULL OR total_price <= $7)
`

type CountOrdersParams struct {
	UserID      pgtype.UUID
	Status      pgtype.Text
	IsPaid      pgtype.Bool
	CreatedFrom pgtype.Timestamptz
	CreatedTo   pgtype.Timestamptz
	MinTotal    decimal.NullDecimal
	MaxTotal    decimal.NullDecimal
}

func (q *Queries) CountOrders(ctx context.Context, arg CountOrdersParams) (int64, error) {
	row := q.db.QueryRow(ctx, countOrders,
		arg.UserID,
		arg.Status,
		arg.IsPaid,
		arg.CreatedFrom,
		arg.CreatedTo,
		arg.MinTotal,
		arg.MaxTotal,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    order_number, user_id, shipping_address, payment_method,
    items_price, discount_amount, shipping_price, tax_price, total_price,
    coupon_code, coupon_applied, idempotency_key
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	OrderNumber     string
	UserID          uuid.UUID
	ShippingAddress []byte
	PaymentMethod   string
	ItemsPrice      decimal.Decimal
	DiscountAmount  decimal.Decimal
	ShippingPrice   decimal.Decimal
	TaxPrice        decimal.Decimal
	TotalPrice      decimal.Decimal
	CouponCode      pgtype.Text
	CouponApplied   []byte
	IdempotencyKey  pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber,
		arg.UserID,
		arg.ShippingAddress,
		arg.PaymentMethod,
		arg.ItemsPrice,
		arg.DiscountAmount,
		arg.ShippingPrice,
		arg.TaxPrice,
		arg.TotalPrice,
		arg.CouponCode,
		arg.CouponApplied,
		arg.IdempotencyKey,
	)
	return scanOrder(row)
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, product_id, name, image, price, quantity)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, product_id, name, image, price, quantity
`

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Image     string
	Price     decimal.Decimal
	Quantity  int32
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.ProductID,
		arg.Name,
		arg.Image,
		arg.Price,
		arg.Quantity,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.Name,
		&i.Image,
		&i.Price,
		&i.Quantity,
	)
	return i, err
}

const getOrderByID = `-- name: GetOrderByID :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderByID, id)
	return scanOrder(row)
}

const getOrderByIdempotencyKey = `-- name: GetOrderByIdempotencyKey :one
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1 AND idempotency_key = $2
`

type GetOrderByIdempotencyKeyParams struct {
	UserID         uuid.UUID
	IdempotencyKey string
}

func (q *Queries) GetOrderByIdempotencyKey(ctx context.Context, arg GetOrderByIdempotencyKeyParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderByIdempotencyKey, arg.UserID, arg.IdempotencyKey)
	return scanOrder(row)
}

const getOrderByPaymentIntentID = `-- name: GetOrderByPaymentIntentID :one
SELECT ` + orderColumns + `
FROM orders
WHERE payment_result->>'id' = $1
`

func (q *Queries) GetOrderByPaymentIntentID(ctx context.Context, paymentIntentID string) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderByPaymentIntentID, paymentIntentID)
	return scanOrder(row)
}

const getOrderItems = `-- name: GetOrderItems :many
SELECT id, order_id, product_id, name, image, price, quantity
FROM order_items
WHERE order_id = $1
ORDER BY name, id
`

func (q *Queries) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, getOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ProductID,
			&i.Name,
			&i.Image,
			&i.Price,
			&i.Quantity,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::uuid IS NULL OR user_id = $1)
  AND ($2::text IS NULL OR status = $2)
  AND ($3::boolean IS NULL OR is_paid = $3)
  AND ($4::timestamptz IS NULL OR created_at >= $4)
  AND ($5::timestamptz IS NULL OR created_at <= $5)
  AND ($6::numeric IS NULL OR total_price >= $6)
  AND ($7::numeric IS NULL OR total_price <= $7)
ORDER BY
    CASE WHEN $8::text = 'oldest' THEN created_at END ASC,
    CASE WHEN $8::text = 'total_asc' THEN total_price END ASC,
    CASE WHEN $8::text = 'total_desc' THEN total_price END DESC,
    created_at DESC,
    id
LIMIT $9 OFFSET $10
`

type ListOrdersParams struct {
	UserID      pgtype.UUID
	Status      pgtype.Text
	IsPaid      pgtype.Bool
	CreatedFrom pgtype.Timestamptz
	CreatedTo   pgtype.Timestamptz
	MinTotal    decimal.NullDecimal
	MaxTotal    decimal.NullDecimal
	Sort        string
	Limit       int32
	Offset      int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.UserID,
		arg.Status,
		arg.IsPaid,
		arg.CreatedFrom,
		arg.CreatedTo,
		arg.MinTotal,
		arg.MaxTotal,
		arg.Sort,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markOrderDelivered = `-- name: MarkOrderDelivered :one
UPDATE orders
SET status = 'delivered',
    is_delivered = TRUE,
    delivered_at = $2,
    updated_at = NOW()
WHERE id = $1 AND status = 'shipped'
RETURNING ` + orderColumns

type MarkOrderDeliveredParams struct {
	ID          uuid.UUID
	DeliveredAt time.Time
}

func (q *Queries) MarkOrderDelivered(ctx context.Context, arg MarkOrderDeliveredParams) (Order, error) {
	row := q.db.QueryRow(ctx, markOrderDelivered, arg.ID, arg.DeliveredAt)
	return scanOrder(row)
}

const markOrderPaid = `-- name: MarkOrderPaid :one
UPDATE orders
SET is_paid = TRUE,
    paid_at = $2,
    payment_result = $3,
    status = CASE WHEN status IN ('pending', 'processing') THEN 'paid' ELSE status END,
    updated_at = NOW()
WHERE id = $1 AND is_paid = FALSE AND status NOT IN ('cancelled', 'refunded')
RETURNING ` + orderColumns

type MarkOrderPaidParams struct {
	ID            uuid.UUID
	PaidAt        time.Time
	PaymentResult []byte
}

// MarkOrderPaid records a confirmed payment in one row update. It returns
// pgx.ErrNoRows when another confirmation already won the race.
func (q *Queries) MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (Order, error) {
	row := q.db.QueryRow(ctx, markOrderPaid, arg.ID, arg.PaidAt, arg.PaymentResult)
	return scanOrder(row)
}

const markOrderProcessing = `-- name: MarkOrderProcessing :one
UPDATE orders
SET status = 'processing',
    payment_result = $2,
    updated_at = NOW()
WHERE id = $1 AND is_paid = FALSE AND status = 'pending'
RETURNING ` + orderColumns

type MarkOrderProcessingParams struct {
	ID            uuid.UUID
	PaymentResult []byte
}

func (q *Queries) MarkOrderProcessing(ctx context.Context, arg MarkOrderProcessingParams) (Order, error) {
	row := q.db.QueryRow(ctx, markOrderProcessing, arg.ID, arg.PaymentResult)
	return scanOrder(row)
}

const markOrderRefunded = `-- name: MarkOrderRefunded :one
UPDATE orders
SET status = 'refunded',
    refunded_at = $2,
    refund_amount = $3,
    payment_result = $4,
    updated_at = NOW()
WHERE id = $1 AND is_paid = TRUE AND status IN ('paid', 'shipped', 'delivered')
RETURNING ` + orderColumns

type MarkOrderRefundedParams struct {
	ID            uuid.UUID
	RefundedAt    time.Time
	RefundAmount  decimal.Decimal
	PaymentResult []byte
}

func (q *Queries) MarkOrderRefunded(ctx context.Context, arg MarkOrderRefundedParams) (Order, error) {
	row := q.db.QueryRow(ctx, markOrderRefunded,
		arg.ID,
		arg.RefundedAt,
		arg.RefundAmount,
		arg.PaymentResult,
	)
	return scanOrder(row)
}

const markOrderShipped = `-- name: MarkOrderShipped :one
UPDATE orders
SET status = 'shipped',
    shipped_at = $2,
    updated_at = NOW()
WHERE id = $1
  AND (status = 'paid' OR (status = 'processing' AND payment_method = 'cod'))
RETURNING ` + orderColumns

type MarkOrderShippedParams struct {
	ID        uuid.UUID
	ShippedAt time.Time
}

func (q *Queries) MarkOrderShipped(ctx context.Context, arg MarkOrderShippedParams) (Order, error) {
	row := q.db.QueryRow(ctx, markOrderShipped, arg.ID, arg.ShippedAt)
	return scanOrder(row)
}

const updateReturnStatus = `-- name: UpdateReturnStatus :one
UPDATE orders
SET return_status = $3::text,
    return_reason = CASE WHEN $3::text = 'requested' THEN $4::text ELSE return_reason END,
    return_requested_at = CASE WHEN $3::text = 'requested' THEN $5::timestamptz ELSE return_requested_at END,
    updated_at = NOW()
WHERE id = $1 AND return_status = $2
RETURNING ` + orderColumns

type UpdateReturnStatusParams struct {
	ID          uuid.UUID
	FromStatus  string
	ToStatus    string
	Reason      string
	RequestedAt pgtype.Timestamptz
}

// UpdateReturnStatus moves the return sub-state only from the expected status.
func (q *Queries) UpdateReturnStatus(ctx context.Context, arg UpdateReturnStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateReturnStatus,
		arg.ID,
		arg.FromStatus,
		arg.ToStatus,
		arg.Reason,
		arg.RequestedAt,
	)
	return scanOrder(row)
}
