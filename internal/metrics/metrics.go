package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	RequestCounter    *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	AttemptsSubmitted *prometheus.CounterVec
}

// New registers the collectors against the given registerer. Passing a
// fresh registry keeps tests independent of global state.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quizhost",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "quizhost",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AttemptsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quizhost",
				Name:      "attempts_submitted_total",
				Help:      "Attempt submissions by outcome",
			},
			[]string{"outcome"},
		),
	}
}
