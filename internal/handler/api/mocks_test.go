package api

import (
	"context"
	"errors"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/google/uuid"
)

var errNotImplemented = errors.New("not implemented")

// mockCartService implements domain.CartService for testing
type mockCartService struct {
	getCartFunc      func(ctx context.Context, userID uuid.UUID) (*domain.CartView, error)
	addItemFunc      func(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartView, error)
	updateItemFunc   func(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartView, error)
	removeItemFunc   func(ctx context.Context, userID, productID uuid.UUID) (*domain.CartView, error)
	clearFunc        func(ctx context.Context, userID uuid.UUID) error
	applyCouponFunc  func(ctx context.Context, userID uuid.UUID, code string) (*domain.CartView, error)
	removeCouponFunc func(ctx context.Context, userID uuid.UUID) (*domain.CartView, error)
}

func (m *mockCartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	if m.getCartFunc != nil {
		return m.getCartFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartView, error) {
	if m.addItemFunc != nil {
		return m.addItemFunc(ctx, userID, productID, quantity)
	}
	return nil, errNotImplemented
}

func (m *mockCartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartView, error) {
	if m.updateItemFunc != nil {
		return m.updateItemFunc(ctx, userID, productID, quantity)
	}
	return nil, errNotImplemented
}

func (m *mockCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.CartView, error) {
	if m.removeItemFunc != nil {
		return m.removeItemFunc(ctx, userID, productID)
	}
	return nil, errNotImplemented
}

func (m *mockCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if m.clearFunc != nil {
		return m.clearFunc(ctx, userID)
	}
	return errNotImplemented
}

func (m *mockCartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*domain.CartView, error) {
	if m.applyCouponFunc != nil {
		return m.applyCouponFunc(ctx, userID, code)
	}
	return nil, errNotImplemented
}

func (m *mockCartService) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	if m.removeCouponFunc != nil {
		return m.removeCouponFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

// mockOrderService implements domain.OrderService for testing
type mockOrderService struct {
	createOrderFunc   func(ctx context.Context, r domain.Requester, params domain.CreateOrderParams) (*domain.Order, error)
	getOrderFunc      func(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error)
	listOrdersFunc    func(ctx context.Context, r domain.Requester, filter domain.OrderFilter) (*domain.OrderList, error)
	cancelOrderFunc   func(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error)
	requestReturnFunc func(ctx context.Context, r domain.Requester, orderID uuid.UUID, reason string) (*domain.Order, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, r domain.Requester, params domain.CreateOrderParams) (*domain.Order, error) {
	if m.createOrderFunc != nil {
		return m.createOrderFunc(ctx, r, params)
	}
	return nil, errNotImplemented
}

func (m *mockOrderService) GetOrder(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	if m.getOrderFunc != nil {
		return m.getOrderFunc(ctx, r, orderID)
	}
	return nil, errNotImplemented
}

func (m *mockOrderService) ListOrders(ctx context.Context, r domain.Requester, filter domain.OrderFilter) (*domain.OrderList, error) {
	if m.listOrdersFunc != nil {
		return m.listOrdersFunc(ctx, r, filter)
	}
	return nil, errNotImplemented
}

func (m *mockOrderService) CancelOrder(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	if m.cancelOrderFunc != nil {
		return m.cancelOrderFunc(ctx, r, orderID)
	}
	return nil, errNotImplemented
}

func (m *mockOrderService) RequestReturn(ctx context.Context, r domain.Requester, orderID uuid.UUID, reason string) (*domain.Order, error) {
	if m.requestReturnFunc != nil {
		return m.requestReturnFunc(ctx, r, orderID, reason)
	}
	return nil, errNotImplemented
}

// mockPaymentService implements domain.PaymentService for testing
type mockPaymentService struct {
	processPaymentFunc      func(ctx context.Context, r domain.Requester, orderID uuid.UUID, params domain.ProcessPaymentParams) (*domain.Order, error)
	createPaymentIntentFunc func(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.PaymentIntent, error)
	processRefundFunc       func(ctx context.Context, r domain.Requester, orderID uuid.UUID, params domain.RefundParams) (*domain.Order, error)
}

func (m *mockPaymentService) ProcessPayment(ctx context.Context, r domain.Requester, orderID uuid.UUID, params domain.ProcessPaymentParams) (*domain.Order, error) {
	if m.processPaymentFunc != nil {
		return m.processPaymentFunc(ctx, r, orderID, params)
	}
	return nil, errNotImplemented
}

func (m *mockPaymentService) CreatePaymentIntent(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.PaymentIntent, error) {
	if m.createPaymentIntentFunc != nil {
		return m.createPaymentIntentFunc(ctx, r, orderID)
	}
	return nil, errNotImplemented
}

func (m *mockPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return errNotImplemented
}

func (m *mockPaymentService) ProcessRefund(ctx context.Context, r domain.Requester, orderID uuid.UUID, params domain.RefundParams) (*domain.Order, error) {
	if m.processRefundFunc != nil {
		return m.processRefundFunc(ctx, r, orderID, params)
	}
	return nil, errNotImplemented
}

// mockAdminService implements domain.AdminService for testing.
// Every order action goes through one hook keyed by method name.
type mockAdminService struct {
	calls      []string
	orderFunc  func(method string, r domain.Requester, orderID uuid.UUID) (*domain.Order, error)
	refundFunc func(ctx context.Context, r domain.Requester, orderID uuid.UUID, params domain.RefundParams) (*domain.Order, error)
	markFunc   func(ctx context.Context, r domain.Requester, orderID uuid.UUID, note string) (*domain.Order, error)
	listFunc   func(ctx context.Context, r domain.Requester, filter domain.OrderFilter) (*domain.OrderList, error)
}

func (m *mockAdminService) action(method string, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	m.calls = append(m.calls, method)
	if m.orderFunc != nil {
		return m.orderFunc(method, r, orderID)
	}
	return nil, errNotImplemented
}

func (m *mockAdminService) MarkPaid(ctx context.Context, r domain.Requester, orderID uuid.UUID, note string) (*domain.Order, error) {
	m.calls = append(m.calls, "MarkPaid")
	if m.markFunc != nil {
		return m.markFunc(ctx, r, orderID, note)
	}
	return nil, errNotImplemented
}

func (m *mockAdminService) ForceRefund(ctx context.Context, r domain.Requester, orderID uuid.UUID, params domain.RefundParams) (*domain.Order, error) {
	m.calls = append(m.calls, "ForceRefund")
	if m.refundFunc != nil {
		return m.refundFunc(ctx, r, orderID, params)
	}
	return nil, errNotImplemented
}

func (m *mockAdminService) MarkShipped(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	return m.action("MarkShipped", r, orderID)
}

func (m *mockAdminService) MarkDelivered(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	return m.action("MarkDelivered", r, orderID)
}

func (m *mockAdminService) ApproveReturn(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	return m.action("ApproveReturn", r, orderID)
}

func (m *mockAdminService) RejectReturn(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	return m.action("RejectReturn", r, orderID)
}

func (m *mockAdminService) CompleteReturn(ctx context.Context, r domain.Requester, orderID uuid.UUID) (*domain.Order, error) {
	return m.action("CompleteReturn", r, orderID)
}

func (m *mockAdminService) ListOrders(ctx context.Context, r domain.Requester, filter domain.OrderFilter) (*domain.OrderList, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, r, filter)
	}
	return nil, errNotImplemented
}

type mockReconciler struct {
	report *domain.ReconcileReport
	err    error
	runs   int
}

func (m *mockReconciler) Run(ctx context.Context) (*domain.ReconcileReport, error) {
	m.runs++
	return m.report, m.err
}
