// Package metrics exposes Prometheus instruments for roster status changes.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sampling_rosters"

// Sources of a status write
const (
	SourceAutomatic  = "automatic"
	SourceManual     = "manual"
	SourceWebhook    = "webhook"
	SourceNomination = "nomination_batch"
)

var (
	// statusTransitions counts applied status changes.
	// Labels: source, from, to
	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "status",
		Name:      "transitions_total",
		Help:      "Applied roster and nomination status transitions",
	}, []string{"source", "from", "to"})

	// statusUpdateErrors counts per-item failures inside batch runs.
	// Labels: source
	statusUpdateErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "status",
		Name:      "update_errors_total",
		Help:      "Per-item failures during status batches",
	}, []string{"source"})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "status",
		Name:      "batch_duration_seconds",
		Help:      "Duration of automatic status update batches",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"source"})

	// gatewayOutcomes counts post-save sync results.
	// Labels: outcome (updated, unchanged, failed)
	gatewayOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "sync_total",
		Help:      "Post-save status sync outcomes",
	}, []string{"outcome"})

	// httpRequests counts API requests.
	// Labels: method, route (the registered pattern), code
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests handled by the API",
	}, []string{"method", "route", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// RecordTransition records an applied status change
func RecordTransition(source, from, to string) {
	statusTransitions.WithLabelValues(source, from, to).Inc()
}

// RecordUpdateError records one failed item in a batch
func RecordUpdateError(source string) {
	statusUpdateErrors.WithLabelValues(source).Inc()
}

// ObserveBatch records how long a batch took
func ObserveBatch(source string, elapsed time.Duration) {
	batchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RecordGatewayOutcome records a post-save sync result
func RecordGatewayOutcome(outcome string) {
	gatewayOutcomes.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records one handled API request
func RecordHTTPRequest(method, route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
