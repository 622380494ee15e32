// Package metrics exposes moderation and HTTP counters to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"appreview/internal/ports"
)

// Metrics implements ports.Metrics on top of a Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	reviewsSubmittedTotal   *prometheus.CounterVec
	reviewsDecidedTotal     *prometheus.CounterVec
	operationsRejectedTotal *prometheus.CounterVec
	searchResultsTotal      *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ ports.Metrics = (*Metrics)(nil)

func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.reviewsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appreview_reviews_submitted_total",
			Help: "Total number of reviews accepted for moderation",
		},
		[]string{"sentiment", "contradiction"},
	)

	m.reviewsDecidedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appreview_reviews_decided_total",
			Help: "Total number of moderation decisions",
		},
		[]string{"status"}, // approved, rejected
	)

	m.operationsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appreview_operations_rejected_total",
			Help: "Total number of submit/act operations refused by a precondition",
		},
		[]string{"operation", "reason"},
	)

	m.searchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appreview_search_results_total",
			Help: "Total number of catalog entries returned by search",
		},
		[]string{"kind"}, // results, suggestions
	)

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appreview_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appreview_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route"},
	)
}

// Registry returns the registry the collectors were registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.reviewsSubmittedTotal.Describe(ch)
	m.reviewsDecidedTotal.Describe(ch)
	m.operationsRejectedTotal.Describe(ch)
	m.searchResultsTotal.Describe(ch)
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.reviewsSubmittedTotal.Collect(ch)
	m.reviewsDecidedTotal.Collect(ch)
	m.operationsRejectedTotal.Collect(ch)
	m.searchResultsTotal.Collect(ch)
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
}

func (m *Metrics) ReviewSubmitted(label string, contradiction bool) {
	m.reviewsSubmittedTotal.WithLabelValues(label, strconv.FormatBool(contradiction)).Inc()
}

func (m *Metrics) ReviewDecided(status string) {
	m.reviewsDecidedTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) OperationRejected(operation string, reason string) {
	m.operationsRejectedTotal.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) SearchServed(kind string, results int) {
	m.searchResultsTotal.WithLabelValues(kind).Add(float64(results))
}

// ObserveHTTPRequest records one served request. route is the matched pattern, not the raw path.
func (m *Metrics) ObserveHTTPRequest(method string, route string, status int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
