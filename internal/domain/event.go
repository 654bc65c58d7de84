package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderEventType names an order lifecycle event published to the notifier.
type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order.created"
	OrderEventPaid      OrderEventType = "order.paid"
	OrderEventCancelled OrderEventType = "order.cancelled"
	OrderEventRefunded  OrderEventType = "order.refunded"
	OrderEventShipped   OrderEventType = "order.shipped"
	OrderEventDelivered OrderEventType = "order.delivered"
)

// OrderEvent is the payload published when an order changes state.
// Consumers resolve the customer's contact details themselves.
type OrderEvent struct {
	Type        OrderEventType  `json:"type"`
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	UserID      uuid.UUID       `json:"userId"`
	Status      OrderStatus     `json:"status"`
	Total       decimal.Decimal `json:"total"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// NewOrderEvent builds an event of type t from o.
func NewOrderEvent(t OrderEventType, o *Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:        t,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      o.Status,
		Total:       o.TotalPrice,
		OccurredAt:  at,
	}
}
