package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Checkout groups the counters and histograms the order flow reports.
type Checkout struct {
	OrdersCreated     *prometheus.CounterVec
	OrdersFailed      *prometheus.CounterVec
	AllocationRetries prometheus.Counter
	CheckoutDuration  prometheus.Histogram
	UnitsAllocated    prometheus.Counter
	UnitsReleased     prometheus.Counter
}

// NewCheckout registers the checkout metrics on the given registerer.
func NewCheckout(reg prometheus.Registerer) *Checkout {
	factory := promauto.With(reg)
	return &Checkout{
		OrdersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vaanijya_orders_created_total",
			Help: "Orders created, labelled by payment method.",
		}, []string{"payment_method"}),
		OrdersFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vaanijya_orders_failed_total",
			Help: "Order attempts that failed, labelled by reason.",
		}, []string{"reason"}),
		AllocationRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "vaanijya_unit_allocation_retries_total",
			Help: "Unit allocations retried after a version conflict.",
		}),
		CheckoutDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vaanijya_checkout_duration_seconds",
			Help:    "End-to-end checkout latency.",
			Buckets: prometheus.DefBuckets,
		}),
		UnitsAllocated: factory.NewCounter(prometheus.CounterOpts{
			Name: "vaanijya_units_allocated_total",
			Help: "Serialized units marked sold.",
		}),
		UnitsReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "vaanijya_units_released_total",
			Help: "Serialized units returned to the pool by rollback.",
		}),
	}
}
