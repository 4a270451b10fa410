package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	HTTPResponseSize  *prometheus.HistogramVec

	// Tool invocation metrics
	ToolRequestsTotal *prometheus.CounterVec
	ToolDuration      *prometheus.HistogramVec
	ToolErrorsTotal   *prometheus.CounterVec

	// Decision metrics
	SignalConfidence *prometheus.HistogramVec
	OrdersTotal      *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// confidenceBuckets are histogram buckets for confidence metrics (0 to 100)
var confidenceBuckets = []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

var (
	globalMetrics *Metrics
	metricsMu     sync.Mutex
)

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_server",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trading_server",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trading_server",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(128, 4, 8),
			},
			[]string{"method", "route"},
		),
		ToolRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_server",
				Subsystem: "tools",
				Name:      "requests_total",
				Help:      "Total number of tool invocations",
			},
			[]string{"tool"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trading_server",
				Subsystem: "tools",
				Name:      "duration_seconds",
				Help:      "Duration of tool invocations in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"tool", "status"},
		),
		ToolErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_server",
				Subsystem: "tools",
				Name:      "errors_total",
				Help:      "Total number of tool errors by kind",
			},
			[]string{"tool", "kind"},
		),
		SignalConfidence: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trading_server",
				Subsystem: "signal",
				Name:      "confidence",
				Help:      "Confidence of computed signals",
				Buckets:   confidenceBuckets,
			},
			[]string{"strategy"},
		),
		OrdersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_server",
				Subsystem: "orders",
				Name:      "dispatched_total",
				Help:      "Total number of dispatched orders by outcome",
			},
			[]string{"transaction_type", "status"},
		),
		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_server",
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"provider", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_server",
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"provider", "operation"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trading_server",
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"provider", "operation"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "trading_server",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"breaker"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_server",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"breaker"},
		),
	}
}

// GetMetrics returns the global metrics instance, initializing it on first use
func GetMetrics() *Metrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = NewMetrics(nil)
	}
	return globalMetrics
}

// SetMetrics overrides the global metrics instance (useful for testing)
func SetMetrics(m *Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	globalMetrics = m
}

// Timer measures a duration starting at creation
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed duration in seconds
func (t *Timer) Elapsed() float64 {
	return time.Since(t.start).Seconds()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(responseSize))
}

// RecordToolRequest records a tool invocation
func (m *Metrics) RecordToolRequest(tool string) {
	m.ToolRequestsTotal.WithLabelValues(tool).Inc()
}

// RecordToolDuration records the duration and status of a tool invocation
func (m *Metrics) RecordToolDuration(tool, status string, seconds float64) {
	m.ToolDuration.WithLabelValues(tool, status).Observe(seconds)
}

// RecordToolError records a tool error by kind
func (m *Metrics) RecordToolError(tool, kind string) {
	m.ToolErrorsTotal.WithLabelValues(tool, kind).Inc()
}

// RecordSignalConfidence records the confidence of a computed signal
func (m *Metrics) RecordSignalConfidence(strategy string, confidence float64) {
	m.SignalConfidence.WithLabelValues(strategy).Observe(confidence)
}

// RecordOrder records a dispatched order outcome
func (m *Metrics) RecordOrder(transactionType, status string) {
	m.OrdersTotal.WithLabelValues(transactionType, status).Inc()
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(provider, operation string, duration time.Duration) {
	m.ExternalAPIRequestsTotal.WithLabelValues(provider, operation).Inc()
	m.ExternalAPIDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(provider, operation string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(provider, operation).Inc()
}

// SetCircuitBreakerState records the state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(breaker string, state int) {
	m.CircuitBreakerState.WithLabelValues(breaker).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(breaker string) {
	m.CircuitBreakerTrips.WithLabelValues(breaker).Inc()
}
