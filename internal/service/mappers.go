package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func toDomainOrder(o repository.Order, items []repository.OrderItem) (*domain.Order, error) {
	order := &domain.Order{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		UserID:            o.UserID,
		PaymentMethod:     domain.PaymentMethod(o.PaymentMethod),
		ItemsPrice:        o.ItemsPrice,
		DiscountAmount:    o.DiscountAmount,
		ShippingPrice:     o.ShippingPrice,
		TaxPrice:          o.TaxPrice,
		TotalPrice:        o.TotalPrice,
		IsPaid:            o.IsPaid,
		PaidAt:            timePtr(o.PaidAt),
		Status:            domain.OrderStatus(o.Status),
		ReturnStatus:      domain.ReturnStatus(o.ReturnStatus),
		ReturnRequestedAt: timePtr(o.ReturnRequestedAt),
		ReturnReason:      o.ReturnReason,
		IsDelivered:       o.IsDelivered,
		DeliveredAt:       timePtr(o.DeliveredAt),
		ShippedAt:         timePtr(o.ShippedAt),
		CancelledAt:       timePtr(o.CancelledAt),
		RefundedAt:        timePtr(o.RefundedAt),
		RefundAmount:      decimalPtr(o.RefundAmount),
		IdempotencyKey:    o.IdempotencyKey.String,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		Items:             make([]domain.OrderItem, 0, len(items)),
	}

	if len(o.ShippingAddress) > 0 {
		if err := json.Unmarshal(o.ShippingAddress, &order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	if len(o.CouponApplied) > 0 && string(o.CouponApplied) != "null" {
		var snap domain.CouponSnapshot
		if err := json.Unmarshal(o.CouponApplied, &snap); err != nil {
			return nil, fmt.Errorf("decode coupon snapshot: %w", err)
		}
		order.CouponApplied = &snap
	}
	if len(o.PaymentResult) > 0 && string(o.PaymentResult) != "null" {
		var pr domain.PaymentResult
		if err := json.Unmarshal(o.PaymentResult, &pr); err != nil {
			return nil, fmt.Errorf("decode payment result: %w", err)
		}
		order.PaymentResult = &pr
	}

	for _, it := range items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return order, nil
}

func toDomainCoupon(c repository.Coupon) *domain.Coupon {
	return &domain.Coupon{
		ID:                 c.ID,
		Code:               c.Code,
		Discount:           domain.Discount{Type: domain.DiscountType(c.DiscountType), Value: c.DiscountValue},
		MinPurchase:        c.MinPurchase,
		MaxDiscount:        decimalPtr(c.MaxDiscount),
		ValidFrom:          c.ValidFrom,
		ValidTo:            c.ValidTo,
		IsActive:           c.IsActive,
		UsageLimit:         int32Ptr(c.UsageLimit),
		TimesUsed:          c.TimesUsed,
		PerUserLimit:       int32Ptr(c.PerUserLimit),
		ApplicableProducts: c.ApplicableProducts,
		ExcludedProducts:   c.ExcludedProducts,
	}
}

func toDomainAddress(a repository.Address) domain.Address {
	return domain.Address{
		ID:         a.ID,
		UserID:     a.UserID,
		FullName:   a.FullName,
		Address:    a.AddressLine,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func toCartLines(rows []repository.GetCartItemsRow) []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(rows))
	for _, r := range rows {
		line := domain.CartLine{ProductID: r.ProductID, Quantity: r.Quantity}
		if r.ProductExists {
			line.Product = &domain.Product{
				ID:         r.ProductID,
				Name:       r.Name,
				Image:      r.Image,
				IsActive:   r.IsActive,
				Stock:      r.Stock,
				FinalPrice: r.FinalPrice,
				SalesCount: r.SalesCount,
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func int32Ptr(v pgtype.Int4) *int32 {
	if !v.Valid {
		return nil
	}
	i := v.Int32
	return &i
}

func nullUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func nullTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

