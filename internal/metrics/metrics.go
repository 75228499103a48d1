package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Статусы доставки.
const (
	StatusSent      = "sent"
	StatusQueued    = "queued"
	StatusDry       = "dry"
	StatusFailed    = "failed"
	StatusSwallowed = "swallowed"
	StatusDuplicate = "duplicate"
)

var (
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_dispatch_total",
			Help: "Total number of notification dispatches per channel and outcome",
		},
		[]string{"channel", "status"},
	)

	dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_dispatch_duration_seconds",
			Help:    "Notification dispatch duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"channel"},
	)

	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_jobs_total",
			Help: "Total number of queued jobs processed by the worker",
		},
		[]string{"channel", "status"}, // status: queued|sent|failed|duplicate
	)

	rateLimitWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_rate_limit_wait_seconds",
			Help:    "Time spent waiting for provider rate limits",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"channel"},
	)

	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notify_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"channel"},
	)

	httpRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)
)

// RecordDispatch учитывает одну доставку (получатель, канал).
func RecordDispatch(channel, status string, duration time.Duration) {
	dispatchTotal.WithLabelValues(channel, status).Inc()
	dispatchDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordJob учитывает задачу, обработанную воркером.
func RecordJob(channel, status string) {
	jobsTotal.WithLabelValues(channel, status).Inc()
}

// RecordRateLimitWait учитывает ожидание лимитера.
func RecordRateLimitWait(channel string, wait time.Duration) {
	rateLimitWait.WithLabelValues(channel).Observe(wait.Seconds())
}

// SetCircuitBreakerState публикует состояние предохранителя.
func SetCircuitBreakerState(channel string, state int) {
	circuitBreakerState.WithLabelValues(channel).Set(float64(state))
}

// RecordHTTPRequest учитывает HTTP запрос.
func RecordHTTPRequest(method, route, code string, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, code).Observe(duration.Seconds())
}
