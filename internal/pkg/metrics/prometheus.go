package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toolbridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "toolbridge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "toolbridge",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Drift detection metrics
	driftRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toolbridge",
			Subsystem: "drift",
			Name:      "records_total",
			Help:      "Total number of drift records emitted",
		},
		[]string{"severity", "change_kind"},
	)

	driftDetectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "toolbridge",
			Subsystem: "drift",
			Name:      "detection_duration_seconds",
			Help:      "Duration of schema drift detection in seconds",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5},
		},
	)

	// Maintenance proposal metrics
	proposalTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toolbridge",
			Subsystem: "proposal",
			Name:      "transitions_total",
			Help:      "Total number of proposal state transitions",
		},
		[]string{"to_status"},
	)

	suggestionDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toolbridge",
			Subsystem: "proposal",
			Name:      "suggestion_decisions_total",
			Help:      "Total number of description suggestion decisions",
		},
		[]string{"decision"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordDriftRecord records an emitted drift record
func RecordDriftRecord(severity, changeKind string) {
	driftRecordsTotal.WithLabelValues(severity, changeKind).Inc()
}

// ObserveDriftDetection records the duration of a detection pass
func ObserveDriftDetection(d time.Duration) {
	driftDetectionDuration.Observe(d.Seconds())
}

// RecordProposalTransition records a proposal status transition
func RecordProposalTransition(toStatus string) {
	proposalTransitionsTotal.WithLabelValues(toStatus).Inc()
}

// RecordSuggestionDecision records a description suggestion decision
func RecordSuggestionDecision(decision string) {
	suggestionDecisionsTotal.WithLabelValues(decision).Inc()
}
