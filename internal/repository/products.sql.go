// source: products.sql

package repository

import (
	"context"

	"github.com/google/uuid"
)

const decrementProductStock = `-- name: DecrementProductStock :execrows
UPDATE products
SET stock = stock - $2,
    updated_at = NOW()
WHERE id = $1 AND stock >= $2
`

type DecrementProductStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

// DecrementProductStock only applies when enough stock remains.
// Zero rows affected means the product was oversold.
func (q *Queries) DecrementProductStock(ctx context.Context, arg DecrementProductStockParams) (int64, error) {
	result, err := q.db.Exec(ctx, decrementProductStock, arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getProductByID = `-- name: GetProductByID :one
SELECT id, name, image, price, final_price, stock, sales_count, is_active, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) GetProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, getProductByID, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Image,
		&i.Price,
		&i.FinalPrice,
		&i.Stock,
		&i.SalesCount,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const incrementProductSales = `-- name: IncrementProductSales :execrows
UPDATE products
SET sales_count = sales_count + $2,
    updated_at = NOW()
WHERE id = $1
`

type IncrementProductSalesParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) IncrementProductSales(ctx context.Context, arg IncrementProductSalesParams) (int64, error) {
	result, err := q.db.Exec(ctx, incrementProductSales, arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const restockProduct = `-- name: RestockProduct :execrows
UPDATE products
SET stock = stock + $2,
    sales_count = GREATEST(sales_count - $2, 0),
    updated_at = NOW()
WHERE id = $1
`

type RestockProductParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) RestockProduct(ctx context.Context, arg RestockProductParams) (int64, error) {
	result, err := q.db.Exec(ctx, restockProduct, arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const reconcileProductSales = `-- name: ReconcileProductSales :execrows
UPDATE products p
SET sales_count = COALESCE(s.sold, 0),
    updated_at = NOW()
FROM (
    SELECT pr.id, SUM(oi.quantity) FILTER (WHERE o.id IS NOT NULL)::int AS sold
    FROM products pr
    LEFT JOIN order_items oi ON oi.product_id = pr.id
    LEFT JOIN orders o ON o.id = oi.order_id AND o.status NOT IN ('cancelled', 'refunded')
    GROUP BY pr.id
) s
WHERE p.id = s.id AND p.sales_count IS DISTINCT FROM COALESCE(s.sold, 0)
`

// ReconcileProductSales recomputes sales_count from live orders and
// returns the number of products whose counter changed.
func (q *Queries) ReconcileProductSales(ctx context.Context) (int64, error) {
	result, err := q.db.Exec(ctx, reconcileProductSales)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
