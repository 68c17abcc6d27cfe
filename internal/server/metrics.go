package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the checkout funnel counters exposed at /metrics.
type Metrics struct {
	CheckoutInitiated   prometheus.Counter
	PaymentOutcomes     *prometheus.CounterVec
	OrdersCommitted     prometheus.Counter
	OrderPersistFailure prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CheckoutInitiated: factory.NewCounter(prometheus.CounterOpts{
			Name: "checkout_sessions_initiated_total",
			Help: "Checkout sessions successfully opened against the payment provider.",
		}),
		PaymentOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_outcomes_total",
			Help: "Payment widget outcome signals by result.",
		}, []string{"outcome"}),
		OrdersCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "orders_committed_total",
			Help: "Orders durably written after a successful payment.",
		}),
		OrderPersistFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "order_persist_failures_total",
			Help: "Successful payments whose order write failed and needs support follow-up.",
		}),
	}
}
