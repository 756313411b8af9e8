// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "spendwise"

// Metrics groups the collectors used by the HTTP layer and the split engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	splitOps      *prometheus.CounterVec
	sharesWritten prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		splitOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_operations_total",
			Help:      "Committed split group operations by kind.",
		}, []string{"op"}),
		sharesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_shares_written_total",
			Help:      "Share records inserted for split groups.",
		}),
	}
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SplitOperation records a committed split operation (create, update,
// dissolve, delete) and the number of share records it wrote.
func (m *Metrics) SplitOperation(op string, shares int) {
	if m == nil {
		return
	}
	m.splitOps.WithLabelValues(op).Inc()
	if shares > 0 {
		m.sharesWritten.Add(float64(shares))
	}
}
