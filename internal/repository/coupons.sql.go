// source: coupons.sql

package repository

import (
	"context"

	"github.com/google/uuid"
)

const countUserCouponUsage = `-- name: CountUserCouponUsage :one
SELECT COUNT(*)
FROM orders
WHERE user_id = $1
  AND coupon_code = $2
  AND status <> 'cancelled'
`

type CountUserCouponUsageParams struct {
	UserID     uuid.UUID
	CouponCode string
}

func (q *Queries) CountUserCouponUsage(ctx context.Context, arg CountUserCouponUsageParams) (int64, error) {
	row := q.db.QueryRow(ctx, countUserCouponUsage, arg.UserID, arg.CouponCode)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const couponColumns = `id, code, discount_type, discount_value, min_purchase, max_discount,
    valid_from, valid_to, is_active, usage_limit, times_used, per_user_limit,
    applicable_products, excluded_products, created_at, updated_at`

const getActiveCouponByCode = `-- name: GetActiveCouponByCode :one
SELECT ` + couponColumns + `
FROM coupons
WHERE code = UPPER($1) AND is_active = TRUE
`

func (q *Queries) GetActiveCouponByCode(ctx context.Context, code string) (Coupon, error) {
	row := q.db.QueryRow(ctx, getActiveCouponByCode, code)
	return scanCoupon(row)
}

const getCouponByID = `-- name: GetCouponByID :one
SELECT ` + couponColumns + `
FROM coupons
WHERE id = $1
`

func (q *Queries) GetCouponByID(ctx context.Context, id uuid.UUID) (Coupon, error) {
	row := q.db.QueryRow(ctx, getCouponByID, id)
	return scanCoupon(row)
}

const incrementCouponUsage = `-- name: IncrementCouponUsage :execrows
UPDATE coupons
SET times_used = times_used + 1,
    updated_at = NOW()
WHERE id = $1
`

func (q *Queries) IncrementCouponUsage(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, incrementCouponUsage, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const reconcileCouponUsage = `-- name: ReconcileCouponUsage :execrows
UPDATE coupons c
SET times_used = s.used,
    updated_at = NOW()
FROM (
    SELECT cp.id, COUNT(o.id)::int AS used
    FROM coupons cp
    LEFT JOIN orders o ON o.coupon_code = cp.code
    GROUP BY cp.id
) s
WHERE c.id = s.id AND c.times_used <> s.used
`

// ReconcileCouponUsage recomputes times_used from every order that applied
// the code, cancelled orders included, and returns the number of coupons changed.
func (q *Queries) ReconcileCouponUsage(ctx context.Context) (int64, error) {
	result, err := q.db.Exec(ctx, reconcileCouponUsage)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCoupon(row rowScanner) (Coupon, error) {
	var i Coupon
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.DiscountType,
		&i.DiscountValue,
		&i.MinPurchase,
		&i.MaxDiscount,
		&i.ValidFrom,
		&i.ValidTo,
		&i.IsActive,
		&i.UsageLimit,
		&i.TimesUsed,
		&i.PerUserLimit,
		&i.ApplicableProducts,
		&i.ExcludedProducts,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
