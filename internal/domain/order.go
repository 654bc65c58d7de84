package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ORDER DOMAIN ERRORS
// =============================================================================

var (
	ErrOrderNotFound        = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrOrderNotOwned        = &Error{Code: EFORBIDDEN, Message: "Not authorized to access this order"}
	ErrAlreadyPaid          = &Error{Code: EINVALIDSTATE, Message: "Order is already paid"}
	ErrAlreadyRefunded      = &Error{Code: EINVALIDSTATE, Message: "Order is already refunded"}
	ErrOrderNotPayable      = &Error{Code: EINVALIDSTATE, Message: "Order cannot be paid in its current status"}
	ErrOrderNotCancellable  = &Error{Code: EINVALIDSTATE, Message: "Only pending, unpaid orders can be cancelled"}
	ErrOrderNotPaid         = &Error{Code: EINVALIDSTATE, Message: "Order has not been paid"}
	ErrOrderNotDelivered    = &Error{Code: EINVALIDSTATE, Message: "Order has not been delivered"}
	ErrReturnWindowExpired  = &Error{Code: EINVALIDSTATE, Message: "Return window has expired"}
	ErrReturnAlreadyOpened  = &Error{Code: EINVALIDSTATE, Message: "A return has already been requested for this order"}
	ErrInvalidTransition    = &Error{Code: EINVALIDSTATE, Message: "Order status transition not allowed"}
	ErrInvalidReturnChange  = &Error{Code: EINVALIDSTATE, Message: "Return status transition not allowed"}
	ErrAmountMismatch       = &Error{Code: EAMOUNT, Message: "Payment amount does not match order total"}
	ErrPaymentMethodInvalid = &Error{Code: EINVALID, Message: "Unsupported payment method"}
)

// =============================================================================
// STATUS MACHINES
// =============================================================================

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusPaid, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusPaid, OrderStatusShipped},
	OrderStatusPaid:       {OrderStatusShipped, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// CanTransitionTo reports whether an order in status s paid with method may move to next.
// Shipping straight from processing is only allowed for cash on delivery.
func (s OrderStatus) CanTransitionTo(next OrderStatus, method PaymentMethod) bool {
	if s == OrderStatusProcessing && next == OrderStatusShipped {
		return method == PaymentMethodCOD
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// ReturnStatus is the state of the return sub-machine.
type ReturnStatus string

const (
	ReturnStatusNone      ReturnStatus = "none"
	ReturnStatusRequested ReturnStatus = "requested"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
	ReturnStatusCompleted ReturnStatus = "completed"
)

var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnStatusNone:      {ReturnStatusRequested},
	ReturnStatusRequested: {ReturnStatusApproved, ReturnStatusRejected},
	ReturnStatusApproved:  {ReturnStatusCompleted},
}

// CanTransitionTo reports whether the return status may move to next.
func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	for _, allowed := range returnTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentMethod identifies how an order is paid.
type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodPayPal PaymentMethod = "paypal"
	PaymentMethodCOD    PaymentMethod = "cod"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodStripe, PaymentMethodPayPal, PaymentMethodCOD:
		return true
	}
	return false
}

// =============================================================================
// ORDER TYPES
// =============================================================================

// Order is a placed order with its immutable pricing snapshot.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          uuid.UUID       `json:"userId"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`

	ItemsPrice     decimal.Decimal `json:"itemsPrice"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	ShippingPrice  decimal.Decimal `json:"shippingPrice"`
	TaxPrice       decimal.Decimal `json:"taxPrice"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	CouponApplied  *CouponSnapshot `json:"couponApplied,omitempty"`

	IsPaid        bool           `json:"isPaid"`
	PaidAt        *time.Time     `json:"paidAt,omitempty"`
	PaymentResult *PaymentResult `json:"paymentResult,omitempty"`

	Status            OrderStatus  `json:"status"`
	ReturnStatus      ReturnStatus `json:"returnStatus"`
	ReturnRequestedAt *time.Time   `json:"returnRequestedAt,omitempty"`
	ReturnReason      string       `json:"returnReason,omitempty"`

	IsDelivered  bool             `json:"isDelivered"`
	DeliveredAt  *time.Time       `json:"deliveredAt,omitempty"`
	ShippedAt    *time.Time       `json:"shippedAt,omitempty"`
	CancelledAt  *time.Time       `json:"cancelledAt,omitempty"`
	RefundedAt   *time.Time       `json:"refundedAt,omitempty"`
	RefundAmount *decimal.Decimal `json:"refundAmount,omitempty"`

	IdempotencyKey string    `json:"idempotencyKey,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	Items []OrderItem `json:"items"`
}

// OrderItem is an immutable snapshot of a purchased product.
type OrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int32           `json:"quantity"`
}

// CouponSnapshot records the coupon as it was applied to an order.
type CouponSnapshot struct {
	Code           string          `json:"code"`
	DiscountType   DiscountType    `json:"discountType"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// PaymentResult is the provider-side record of a payment.
type PaymentResult struct {
	ID           string          `json:"id,omitempty"`
	Status       string          `json:"status"`
	UpdateTime   string          `json:"updateTime,omitempty"`
	EmailAddress string          `json:"emailAddress,omitempty"`
	Provider     PaymentMethod   `json:"provider"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
	Refund       *RefundDetail   `json:"refund,omitempty"`
}

// RefundDetail describes a refund recorded against a payment.
type RefundDetail struct {
	ID         string          `json:"id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason,omitempty"`
	Status     string          `json:"status"`
	Source     string          `json:"source"` // provider, webhook, manual
	RefundedAt time.Time       `json:"refundedAt"`
	RefundedBy string          `json:"refundedBy,omitempty"`
}

// IsOwnedBy reports whether the order belongs to userID.
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// CanBeAccessedBy reports whether the requester may read or act on the order.
func (o *Order) CanBeAccessedBy(r Requester) bool {
	return r.IsAdmin() || o.IsOwnedBy(r.UserID)
}

// CheckCancellable returns an error unless the order is pending and unpaid.
func (o *Order) CheckCancellable() error {
	if o.Status != OrderStatusPending || o.IsPaid {
		return ErrOrderNotCancellable
	}
	return nil
}

// CheckPayable returns an error unless the order can still accept a payment.
func (o *Order) CheckPayable() error {
	if o.IsPaid {
		return ErrAlreadyPaid
	}
	switch o.Status {
	case OrderStatusCancelled, OrderStatusRefunded:
		return ErrOrderNotPayable
	}
	return nil
}

// CheckRefundable returns an error unless the order is paid and not yet refunded.
func (o *Order) CheckRefundable() error {
	if o.Status == OrderStatusRefunded {
		return ErrAlreadyRefunded
	}
	if !o.IsPaid {
		return ErrOrderNotPaid
	}
	if !o.Status.CanTransitionTo(OrderStatusRefunded, o.PaymentMethod) {
		return ErrInvalidTransition
	}
	return nil
}

// CheckReturnable returns an error unless a return may be requested at now.
func (o *Order) CheckReturnable(now time.Time, window time.Duration) error {
	if !o.IsDelivered || o.DeliveredAt == nil {
		return ErrOrderNotDelivered
	}
	if now.Sub(*o.DeliveredAt) > window {
		return ErrReturnWindowExpired
	}
	if o.ReturnStatus != ReturnStatusNone && o.ReturnStatus != "" {
		return ErrReturnAlreadyOpened
	}
	return nil
}

// RefundAmountFor caps a requested refund at the order total.
// A nil or non-positive request refunds the full total.
func (o *Order) RefundAmountFor(requested *decimal.Decimal) decimal.Decimal {
	if requested == nil || !requested.IsPositive() {
		return o.TotalPrice
	}
	return Round2(decimal.Min(*requested, o.TotalPrice))
}

// =============================================================================
// ORDER SERVICE
// =============================================================================

// OrderFilter narrows an order listing.
type OrderFilter struct {
	UserID   *uuid.UUID
	Status   *OrderStatus
	IsPaid   *bool
	From     *time.Time
	To       *time.Time
	MinTotal *decimal.Decimal
	MaxTotal *decimal.Decimal
	Sort     OrderSort
	Page     int
	PageSize int
}

// OrderSort selects the listing order.
type OrderSort string

const (
	OrderSortNewest    OrderSort = "newest"
	OrderSortOldest    OrderSort = "oldest"
	OrderSortTotalAsc  OrderSort = "total_asc"
	OrderSortTotalDesc OrderSort = "total_desc"
)

// Valid reports whether s is a supported sort key.
func (s OrderSort) Valid() bool {
	switch s {
	case OrderSortNewest, OrderSortOldest, OrderSortTotalAsc, OrderSortTotalDesc:
		return true
	}
	return false
}

// Pagination describes one page of a listing.
type Pagination struct {
	Count int `json:"count"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(total, page, pageSize int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Pagination{Count: total, Page: page, Pages: pages}
}

// OrderList is a page of orders.
type OrderList struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// OrderService places and manages customer orders.
type OrderService interface {
	// CreateOrder converts the requester's cart into an order.
	// Repeating a call with the same idempotency key returns the original order.
	CreateOrder(ctx context.Context, r Requester, params CreateOrderParams) (*Order, error)

	// GetOrder returns an order visible to the requester.
	GetOrder(ctx context.Context, r Requester, orderID uuid.UUID) (*Order, error)

	// ListOrders lists the requester's orders. Admins may list all orders.
	ListOrders(ctx context.Context, r Requester, filter OrderFilter) (*OrderList, error)

	// CancelOrder cancels a pending, unpaid order and restocks its items.
	CancelOrder(ctx context.Context, r Requester, orderID uuid.UUID) (*Order, error)

	// RequestReturn opens a return for a delivered order inside the return window.
	RequestReturn(ctx context.Context, r Requester, orderID uuid.UUID, reason string) (*Order, error)
}
