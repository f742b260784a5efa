// Package metrics exposes Prometheus collectors for the storefront.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records HTTP traffic and storefront business events.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	orders          *prometheus.CounterVec
	stockWarnings   prometheus.Counter
	cartRejections  *prometheus.CounterVec
	feedSubscribers *prometheus.GaugeVec
}

// New registers the storefront metrics on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capriccio_http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capriccio_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capriccio_orders_submitted_total",
			Help: "Submitted orders by persistence outcome.",
		}, []string{"outcome"}),
		stockWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "capriccio_stock_decrement_failures_total",
			Help: "Stock decrements that failed after an order was saved.",
		}),
		cartRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capriccio_cart_rejections_total",
			Help: "Cart mutations rejected by reason.",
		}, []string{"reason"}),
		feedSubscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "capriccio_feed_streams",
			Help: "Open live streams by topic.",
		}, []string{"topic"}),
	}
	reg.MustRegister(m.requests, m.duration, m.orders, m.stockWarnings, m.cartRejections, m.feedSubscribers)
	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// OrderSubmitted counts a submission, split by whether it was persisted.
func (m *Metrics) OrderSubmitted(persisted bool) {
	if m == nil || m.orders == nil {
		return
	}
	outcome := "persisted"
	if !persisted {
		outcome = "handoff_only"
	}
	m.orders.WithLabelValues(outcome).Inc()
}

// StockDecrementFailed counts failed post-order stock updates.
func (m *Metrics) StockDecrementFailed(n int) {
	if m == nil || m.stockWarnings == nil || n <= 0 {
		return
	}
	m.stockWarnings.Add(float64(n))
}

// CartRejected counts a rejected cart mutation.
func (m *Metrics) CartRejected(reason string) {
	if m == nil || m.cartRejections == nil {
		return
	}
	m.cartRejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// StreamOpened tracks a live stream for topic and returns its closer.
func (m *Metrics) StreamOpened(topic string) func() {
	if m == nil || m.feedSubscribers == nil {
		return func() {}
	}
	g := m.feedSubscribers.WithLabelValues(normalizeLabel(topic))
	g.Inc()
	return g.Dec
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
