package repository

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	CancelOrder(ctx context.Context, arg CancelOrderParams) (Order, error)
	ClearCartCoupon(ctx context.Context, id uuid.UUID) error
	CountOrders(ctx context.Context, arg CountOrdersParams) (int64, error)
	CountUserCouponUsage(ctx context.Context, arg CountUserCouponUsageParams) (int64, error)
	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error)
	// DecrementProductStock only applies when enough stock remains.
	// Zero rows affected means the product was oversold.
	DecrementProductStock(ctx context.Context, arg DecrementProductStockParams) (int64, error)
	DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) (int64, error)
	DeleteCartItems(ctx context.Context, cartID uuid.UUID) error
	GetActiveCouponByCode(ctx context.Context, code string) (Coupon, error)
	GetAddressByID(ctx context.Context, id uuid.UUID) (Address, error)
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (Cart, error)
	GetCartItem(ctx context.Context, arg GetCartItemParams) (CartItem, error)
	GetCartItems(ctx context.Context, cartID uuid.UUID) ([]GetCartItemsRow, error)
	GetCouponByID(ctx context.Context, id uuid.UUID) (Coupon, error)
	// GetOrCreateCart is safe against concurrent first writes for the same user.
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (Cart, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, arg GetOrderByIdempotencyKeyParams) (Order, error)
	GetOrderByPaymentIntentID(ctx context.Context, paymentIntentID string) (Order, error)
	GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (Product, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	IncrementCouponUsage(ctx context.Context, id uuid.UUID) (int64, error)
	IncrementProductSales(ctx context.Context, arg IncrementProductSalesParams) (int64, error)
	ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error)
	MarkOrderDelivered(ctx context.Context, arg MarkOrderDeliveredParams) (Order, error)
	// MarkOrderPaid records a confirmed payment in one row update. It returns
	// pgx.ErrNoRows when another confirmation already won the race.
	MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (Order, error)
	MarkOrderProcessing(ctx context.Context, arg MarkOrderProcessingParams) (Order, error)
	MarkOrderRefunded(ctx context.Context, arg MarkOrderRefundedParams) (Order, error)
	MarkOrderShipped(ctx context.Context, arg MarkOrderShippedParams) (Order, error)
	// ReconcileCouponUsage recomputes times_used from every order that applied
	// the code, cancelled orders included, and returns the number of coupons changed.
	ReconcileCouponUsage(ctx context.Context) (int64, error)
	// ReconcileProductSales recomputes sales_count from live orders and
	// returns the number of products whose counter changed.
	ReconcileProductSales(ctx context.Context) (int64, error)
	RestockProduct(ctx context.Context, arg RestockProductParams) (int64, error)
	SetCartCoupon(ctx context.Context, arg SetCartCouponParams) error
	// UpdateReturnStatus moves the return sub-state only from the expected status.
	UpdateReturnStatus(ctx context.Context, arg UpdateReturnStatusParams) (Order, error)
	UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItem, error)
	UpsertUser(ctx context.Context, arg UpsertUserParams) error
}

var _ Querier = (*Queries)(nil)
