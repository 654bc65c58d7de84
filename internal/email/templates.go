package email

import (
	"fmt"

	"github.com/dukerupert/mercato/internal/domain"
)

// EmailTemplate defines the interface for email templates
type EmailTemplate interface {
	Subject() string
	TemplateName() string
}

// OrderEmail is the data for every order lifecycle email.
type OrderEmail struct {
	Type         domain.OrderEventType
	Email        string
	CustomerName string
	StoreName    string
	OrderURL     string // optional link to the order in the storefront
	Order        *domain.Order
}

var orderTemplates = map[domain.OrderEventType]struct {
	subject  string
	template string
}{
	domain.OrderEventCreated:   {"Order Confirmation - %s", "order_created.html"},
	domain.OrderEventPaid:      {"Payment Received - %s", "order_paid.html"},
	domain.OrderEventShipped:   {"Your Order Has Shipped - %s", "order_shipped.html"},
	domain.OrderEventDelivered: {"Your Order Was Delivered - %s", "order_delivered.html"},
	domain.OrderEventCancelled: {"Order Cancelled - %s", "order_cancelled.html"},
	domain.OrderEventRefunded:  {"Refund Issued - %s", "order_refunded.html"},
}

func (e OrderEmail) Subject() string {
	t, ok := orderTemplates[e.Type]
	if !ok {
		return "Order Update - " + e.Order.OrderNumber
	}
	return fmt.Sprintf(t.subject, e.Order.OrderNumber)
}

func (e OrderEmail) TemplateName() string {
	return orderTemplates[e.Type].template
}

// Greeting returns the name to address the customer by.
func (e OrderEmail) Greeting() string {
	if e.CustomerName != "" {
		return e.CustomerName
	}
	return "there"
}
