package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for checkout and payment observability.
type BusinessMetrics struct {
	// Cart
	CartItemsAdded *prometheus.CounterVec
	CouponApplied  *prometheus.CounterVec

	// Orders
	OrdersCreated   *prometheus.CounterVec
	OrderValue      *prometheus.HistogramVec
	OrderItemCount  *prometheus.HistogramVec
	OrdersRejected  *prometheus.CounterVec
	OrdersCancelled prometheus.Counter
	ReturnsUpdated  *prometheus.CounterVec

	// Post-commit inventory and coupon updates that did not apply
	SideEffectFailures *prometheus.CounterVec
	Oversells          prometheus.Counter

	// Payments
	PaymentAttempts  *prometheus.CounterVec
	PaymentSucceeded *prometheus.CounterVec
	PaymentFailed    *prometheus.CounterVec
	RevenueCollected *prometheus.CounterVec
	RefundsIssued    *prometheus.CounterVec
	RefundAmount     *prometheus.CounterVec

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	WebhookLatency   *prometheus.HistogramVec

	// Background jobs
	JobsProcessed    *prometheus.CounterVec
	JobsFailed       *prometheus.CounterVec
	CountersRepaired *prometheus.CounterVec

	// Email delivery
	EmailSent   *prometheus.CounterVec
	EmailFailed *prometheus.CounterVec

	// External API performance
	StripeAPILatency *prometheus.HistogramVec
}

// NewBusinessMetrics creates all business metrics and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "mercato"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	subsystem := "business"

	m := &BusinessMetrics{
		// =======================================================================
		// Cart
		// =======================================================================
		CartItemsAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total add to cart actions",
			},
			[]string{"result"}, // result: added, capped
		),
		CouponApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "coupon_applied_total",
				Help:      "Coupon apply attempts on carts",
			},
			[]string{"result"}, // result: applied, rejected, not_found
		),

		// =======================================================================
		// Orders
		// =======================================================================
		OrdersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders created",
			},
			[]string{"payment_method"},
		),
		OrderValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value",
				Help:      "Order total distribution",
				Buckets:   []float64{10, 25, 50, 75, 100, 150, 200, 300, 500, 1000},
			},
			[]string{"payment_method"},
		),
		OrderItemCount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of distinct lines per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
			},
			[]string{"payment_method"},
		),
		OrdersRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_rejected_total",
				Help:      "Checkout attempts rejected before the order was written",
			},
			[]string{"reason"}, // reason: empty_cart, too_many_items, unavailable, coupon, address
		),
		OrdersCancelled: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_cancelled_total",
				Help:      "Total orders cancelled",
			},
		),
		ReturnsUpdated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "returns_total",
				Help:      "Return status changes",
			},
			[]string{"status"},
		),

		// =======================================================================
		// Side effects
		// =======================================================================
		SideEffectFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "side_effect_failures_total",
				Help:      "Post-commit counter updates that failed; repaired by reconciliation",
			},
			[]string{"operation"}, // operation: stock_decrement, sales_increment, coupon_usage, restock
		),
		Oversells: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "oversells_total",
				Help:      "Order lines whose conditional stock decrement matched no row",
			},
		),

		// =======================================================================
		// Payments
		// =======================================================================
		PaymentAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_attempts_total",
				Help:      "Total payment confirmation attempts",
			},
			[]string{"method"},
		),
		PaymentSucceeded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_succeeded_total",
				Help:      "Payments recorded on orders",
			},
			[]string{"method", "source"}, // source: sync, webhook, manual
		),
		PaymentFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_failed_total",
				Help:      "Payment confirmations rejected",
			},
			[]string{"method", "reason"},
		),
		RevenueCollected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "revenue_collected_total",
				Help:      "Total paid order value",
			},
			[]string{"method"},
		),
		RefundsIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refunds_issued_total",
				Help:      "Total refunds recorded",
			},
			[]string{"source"}, // source: provider, webhook, manual
		),
		RefundAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refund_amount_total",
				Help:      "Total refunded value",
			},
			[]string{"source"},
		),

		// =======================================================================
		// Webhooks
		// =======================================================================
		WebhookReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Verified webhooks received",
			},
			[]string{"event_type"},
		),
		WebhookProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processed_total",
				Help:      "Webhooks processed",
			},
			[]string{"event_type", "outcome"}, // outcome: applied, noop, ignored, stale
		),
		WebhookFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Webhooks that failed verification or processing",
			},
			[]string{"event_type", "reason"},
		),
		WebhookLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_duration_seconds",
				Help:      "Webhook processing time",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"event_type"},
		),

		// =======================================================================
		// Background jobs
		// =======================================================================
		JobsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_processed_total",
				Help:      "Background jobs completed",
			},
			[]string{"job_type"},
		),
		JobsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_failed_total",
				Help:      "Background jobs failed",
			},
			[]string{"job_type"},
		),
		CountersRepaired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "counters_repaired_total",
				Help:      "Rows whose denormalized counters were corrected by reconciliation",
			},
			[]string{"counter"}, // counter: coupon_times_used, product_sales_count
		),

		// =======================================================================
		// Email
		// =======================================================================
		EmailSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "email_sent_total",
				Help:      "Emails sent",
			},
			[]string{"template"},
		),
		EmailFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "email_failed_total",
				Help:      "Emails that failed to send",
			},
			[]string{"template"},
		),

		// =======================================================================
		// External APIs
		// =======================================================================
		StripeAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stripe_api_duration_seconds",
				Help:      "Stripe API call duration",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"}, // operation: get_payment_intent, create_payment_intent, refund
		),
	}

	return m
}

// Business is the global instance used by services and handlers.
// It is nil until InitBusinessMetrics runs; callers must check.
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace, nil)
	return Business
}
