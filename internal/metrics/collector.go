// Package metrics provides internal Prometheus metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/handoff"
)

// Collector registers and records all handoff and HTTP metrics. Pass
// prometheus.DefaultRegisterer in production; tests pass a fresh registry
// so repeated construction never collides.
type Collector struct {
	// Handoff metrics
	handoffsTotal   *prometheus.CounterVec
	handoffDuration *prometheus.HistogramVec
	blockedTotal    *prometheus.CounterVec
	outcomesTotal   *prometheus.CounterVec
	handoffsByHour  *prometheus.CounterVec

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates a collector with all metric vectors registered under
// the given namespace.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.handoffsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoffs_total",
			Help:      "Total number of executed handoff attempts",
		},
		[]string{"source", "target", "status"},
	)

	c.handoffDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handoff_duration_seconds",
			Help:      "Handoff execution duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"source", "target"},
	)

	c.blockedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoffs_blocked_total",
			Help:      "Total number of handoffs rejected by a policy guard",
		},
		[]string{"reason"}, // reason: lock, circular, rate_limit
	)

	c.outcomesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoff_outcomes_total",
			Help:      "Total number of recorded handoff outcomes",
		},
		[]string{"source", "target", "outcome"},
	)

	c.handoffsByHour = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoffs_by_hour_total",
			Help:      "Successful handoffs bucketed by hour of day",
		},
		[]string{"hour"},
	)

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordHandoff counts one executed handoff attempt.
func (c *Collector) RecordHandoff(route handoff.Route, status string, d time.Duration) {
	c.handoffsTotal.WithLabelValues(string(route.Source), string(route.Target), status).Inc()
	c.handoffDuration.WithLabelValues(string(route.Source), string(route.Target)).Observe(d.Seconds())
	if status == "success" {
		c.handoffsByHour.WithLabelValues(hourLabel(time.Now().Hour())).Inc()
	}
}

// RecordBlocked counts one policy rejection.
func (c *Collector) RecordBlocked(reason string) {
	c.blockedTotal.WithLabelValues(reason).Inc()
}

// RecordOutcome counts one recorded outcome label.
func (c *Collector) RecordOutcome(route handoff.Route, outcome handoff.Outcome) {
	c.outcomesTotal.WithLabelValues(string(route.Source), string(route.Target), string(outcome)).Inc()
}

// RecordHTTPRequest counts one HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

var _ handoff.MetricsRecorder = (*Collector)(nil)

func hourLabel(hour int) string {
	return time.Date(0, 1, 1, hour, 0, 0, 0, time.UTC).Format("15")
}

// statusClass groups HTTP status codes into 2xx/3xx/4xx/5xx.
func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
