package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type Address struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	FullName    string
	AddressLine string
	City        string
	State       string
	PostalCode  string
	Country     string
	CreatedAt   time.Time
}

type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CouponID  pgtype.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Coupon struct {
	ID                 uuid.UUID
	Code               string
	DiscountType       string
	DiscountValue      decimal.Decimal
	MinPurchase        decimal.Decimal
	MaxDiscount        decimal.NullDecimal
	ValidFrom          time.Time
	ValidTo            time.Time
	IsActive           bool
	UsageLimit         pgtype.Int4
	TimesUsed          int32
	PerUserLimit       pgtype.Int4
	ApplicableProducts []uuid.UUID
	ExcludedProducts   []uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Order struct {
	ID                uuid.UUID
	OrderNumber       string
	UserID            uuid.UUID
	ShippingAddress   []byte
	PaymentMethod     string
	ItemsPrice        decimal.Decimal
	DiscountAmount    decimal.Decimal
	ShippingPrice     decimal.Decimal
	TaxPrice          decimal.Decimal
	TotalPrice        decimal.Decimal
	CouponCode        pgtype.Text
	CouponApplied     []byte
	IsPaid            bool
	PaidAt            pgtype.Timestamptz
	PaymentResult     []byte
	Status            string
	ReturnStatus      string
	ReturnRequestedAt pgtype.Timestamptz
	ReturnReason      string
	IsDelivered       bool
	DeliveredAt       pgtype.Timestamptz
	ShippedAt         pgtype.Timestamptz
	CancelledAt       pgtype.Timestamptz
	RefundedAt        pgtype.Timestamptz
	RefundAmount      decimal.NullDecimal
	IdempotencyKey    pgtype.Text
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Image     string
	Price     decimal.Decimal
	Quantity  int32
}

type Product struct {
	ID         uuid.UUID
	Name       string
	Image      string
	Price      decimal.Decimal
	FinalPrice decimal.Decimal
	Stock      int32
	SalesCount int32
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
