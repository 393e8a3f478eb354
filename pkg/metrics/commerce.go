package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// CommerceMetrics tracks checkout, fulfillment and payment outcomes.
type CommerceMetrics struct {
	ordersPlaced     prometheus.Counter
	orderValue       prometheus.Histogram
	checkoutFailures *prometheus.CounterVec
	orderTransitions *prometheus.CounterVec
	deliveryUpdates  *prometheus.CounterVec
	payments         *prometheus.CounterVec
}

func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	m := &CommerceMetrics{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders successfully placed.",
		}),
		orderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "order_total_ghs",
			Help:    "Order totals including delivery fee.",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000},
		}),
		checkoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_failures_total",
			Help: "Checkout attempts rejected, by error code.",
		}, []string{"code"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status changes by target status.",
		}, []string{"status"}),
		deliveryUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delivery_status_updates_total",
			Help: "Delivery status changes by target status.",
		}, []string{"status"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment records by method and resulting status.",
		}, []string{"method", "status"}),
	}
	reg.MustRegister(m.ordersPlaced, m.orderValue, m.checkoutFailures, m.orderTransitions, m.deliveryUpdates, m.payments)
	return m
}

func (m *CommerceMetrics) OrderPlaced(total decimal.Decimal) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.orderValue.Observe(total.InexactFloat64())
}

func (m *CommerceMetrics) CheckoutFailed(code string) {
	if m == nil || m.checkoutFailures == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *CommerceMetrics) OrderTransitioned(status string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *CommerceMetrics) DeliveryUpdated(status string) {
	if m == nil || m.deliveryUpdates == nil {
		return
	}
	m.deliveryUpdates.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *CommerceMetrics) PaymentRecorded(method, status string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(method), normalizeLabel(status)).Inc()
}
