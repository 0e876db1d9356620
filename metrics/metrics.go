// Package metrics exposes Prometheus instruments for bookings, coupons,
// the outbox and HTTP traffic. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry          *prometheus.Registry
	couponChecks      *prometheus.CounterVec
	bookingTransition *prometheus.CounterVec
	outboxDeliveries  *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registers every instrument on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		couponChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "puja_coupon_verifications_total",
			Help: "Coupon verifications by outcome code.",
		}, []string{"outcome"}),
		bookingTransition: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "puja_booking_transitions_total",
			Help: "Booking status transitions by target status.",
		}, []string{"status"}),
		outboxDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "puja_outbox_deliveries_total",
			Help: "Outbox delivery attempts by event kind and result.",
		}, []string{"kind", "result"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "puja_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) CouponChecked(outcome string) {
	if m == nil {
		return
	}
	m.couponChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BookingTransitioned(status string) {
	if m == nil {
		return
	}
	m.bookingTransition.WithLabelValues(status).Inc()
}

func (m *Metrics) OutboxDelivered(kind, result string) {
	if m == nil {
		return
	}
	m.outboxDeliveries.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
