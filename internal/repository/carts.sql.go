// source: carts.sql

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const clearCartCoupon = `-- name: ClearCartCoupon :exec
UPDATE carts
SET coupon_id = NULL,
    updated_at = NOW()
WHERE id = $1
`

func (q *Queries) ClearCartCoupon(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, clearCartCoupon, id)
	return err
}

const deleteCartItem = `-- name: DeleteCartItem :execrows
DELETE FROM cart_items
WHERE cart_id = $1 AND product_id = $2
`

type DeleteCartItemParams struct {
	CartID    uuid.UUID
	ProductID uuid.UUID
}

func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCartItem, arg.CartID, arg.ProductID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteCartItems = `-- name: DeleteCartItems :exec
DELETE FROM cart_items
WHERE cart_id = $1
`

func (q *Queries) DeleteCartItems(ctx context.Context, cartID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteCartItems, cartID)
	return err
}

const getCartByUserID = `-- name: GetCartByUserID :one
SELECT id, user_id, coupon_id, created_at, updated_at
FROM carts
WHERE user_id = $1
`

func (q *Queries) GetCartByUserID(ctx context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, getCartByUserID, userID)
	var i Cart
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.CouponID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getCartItem = `-- name: GetCartItem :one
SELECT cart_id, product_id, quantity, created_at, updated_at
FROM cart_items
WHERE cart_id = $1 AND product_id = $2
`

type GetCartItemParams struct {
	CartID    uuid.UUID
	ProductID uuid.UUID
}

func (q *Queries) GetCartItem(ctx context.Context, arg GetCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, getCartItem, arg.CartID, arg.ProductID)
	var i CartItem
	err := row.Scan(
		&i.CartID,
		&i.ProductID,
		&i.Quantity,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getCartItems = `-- name: GetCartItems :many
SELECT
    ci.product_id,
    ci.quantity,
    ci.created_at,
    p.id IS NOT NULL AS product_exists,
    COALESCE(p.name, '') AS name,
    COALESCE(p.image, '') AS image,
    COALESCE(p.final_price, 0) AS final_price,
    COALESCE(p.stock, 0) AS stock,
    COALESCE(p.sales_count, 0) AS sales_count,
    COALESCE(p.is_active, FALSE) AS is_active
FROM cart_items ci
LEFT JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.created_at, ci.product_id
`

type GetCartItemsRow struct {
	ProductID     uuid.UUID
	Quantity      int32
	CreatedAt     time.Time
	ProductExists bool
	Name          string
	Image         string
	FinalPrice    decimal.Decimal
	Stock         int32
	SalesCount    int32
	IsActive      bool
}

func (q *Queries) GetCartItems(ctx context.Context, cartID uuid.UUID) ([]GetCartItemsRow, error) {
	rows, err := q.db.Query(ctx, getCartItems, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetCartItemsRow
	for rows.Next() {
		var i GetCartItemsRow
		if err := rows.Scan(
			&i.ProductID,
			&i.Quantity,
			&i.CreatedAt,
			&i.ProductExists,
			&i.Name,
			&i.Image,
			&i.FinalPrice,
			&i.Stock,
			&i.SalesCount,
			&i.IsActive,
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

const getOrCreateCart = `-- name: GetOrCreateCart :one
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET updated_at = carts.updated_at
RETURNING id, user_id, coupon_id, created_at, updated_at
`

// GetOrCreateCart is safe against concurrent first writes for the same user.
func (q *Queries) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, getOrCreateCart, userID)
	var i Cart
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.CouponID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const setCartCoupon = `-- name: SetCartCoupon :exec
UPDATE carts
SET coupon_id = $2,
    updated_at = NOW()
WHERE id = $1
`

type SetCartCouponParams struct {
	ID       uuid.UUID
	CouponID pgtype.UUID
}

func (q *Queries) SetCartCoupon(ctx context.Context, arg SetCartCouponParams) error {
	_, err := q.db.Exec(ctx, setCartCoupon, arg.ID, arg.CouponID)
	return err
}

const upsertCartItem = `-- name: UpsertCartItem :one
INSERT INTO cart_items (cart_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (cart_id, product_id) DO UPDATE
SET quantity = EXCLUDED.quantity,
    updated_at = NOW()
RETURNING cart_id, product_id, quantity, created_at, updated_at
`

type UpsertCartItemParams struct {
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
}

func (q *Queries) UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, upsertCartItem, arg.CartID, arg.ProductID, arg.Quantity)
	var i CartItem
	err := row.Scan(
		&i.CartID,
		&i.ProductID,
		&i.Quantity,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
