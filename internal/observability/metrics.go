package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	borrowsTotal          prometheus.Counter
	returnsTotal          prometheus.Counter
	borrowConflictsTotal  prometheus.Counter
	overdueWarningsTotal  prometheus.Counter
	feedSubscribersActive prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		borrowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "circulation_borrows_total",
			Help: "Total number of successful book checkouts.",
		})

		returnsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "circulation_returns_total",
			Help: "Total number of successful book returns.",
		})

		borrowConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "circulation_borrow_conflicts_total",
			Help: "Total number of checkout attempts rejected because the book was unavailable.",
		})

		overdueWarningsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "circulation_overdue_warnings_total",
			Help: "Total number of overdue warnings issued on return.",
		})

		feedSubscribersActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "circulation_feed_subscribers_active",
			Help: "Number of currently connected circulation feed subscribers.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			borrowsTotal,
			returnsTotal,
			borrowConflictsTotal,
			overdueWarningsTotal,
			feedSubscribersActive,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// BorrowsTotal exposes the counter for successful checkouts.
func BorrowsTotal() prometheus.Counter {
	RegisterMetrics()
	return borrowsTotal
}

// ReturnsTotal exposes the counter for successful returns.
func ReturnsTotal() prometheus.Counter {
	RegisterMetrics()
	return returnsTotal
}

// BorrowConflictsTotal exposes the counter for rejected checkouts.
func BorrowConflictsTotal() prometheus.Counter {
	RegisterMetrics()
	return borrowConflictsTotal
}

// OverdueWarningsTotal exposes the counter for overdue warnings.
func OverdueWarningsTotal() prometheus.Counter {
	RegisterMetrics()
	return overdueWarningsTotal
}

// FeedSubscribersActive exposes the gauge of connected feed subscribers.
func FeedSubscribersActive() prometheus.Gauge {
	RegisterMetrics()
	return feedSubscribersActive
}
