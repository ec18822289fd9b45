// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	signupsTotal     *prometheus.CounterVec
	loginsTotal      *prometheus.CounterVec
	resetsRequested  prometheus.Counter
	resetsCompleted  prometheus.Counter
	rateLimitedTotal *prometheus.CounterVec
)

// Register initializes all collectors against reg (DefaultRegisterer when
// nil) and returns the /metrics handler. Idempotent.
func Register(reg prometheus.Registerer) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	once.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authd_http_requests_total",
			Help: "HTTP requests processed.",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authd_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		signupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authd_signups_total",
			Help: "Signup attempts by role and outcome.",
		}, []string{"role", "outcome"})

		loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authd_logins_total",
			Help: "Login attempts by role and outcome.",
		}, []string{"role", "outcome"})

		resetsRequested = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authd_password_resets_requested_total",
			Help: "forgot-password requests accepted (generic response).",
		})

		resetsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authd_password_resets_completed_total",
			Help: "reset-password calls that consumed a token.",
		})

		rateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authd_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"path"})

		reg.MustRegister(
			httpRequestsTotal, httpRequestDuration,
			signupsTotal, loginsTotal,
			resetsRequested, resetsCompleted, rateLimitedTotal,
		)
	})

	return promhttp.Handler()
}

func ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func Signup(role, outcome string) {
	if signupsTotal != nil {
		signupsTotal.WithLabelValues(role, outcome).Inc()
	}
}

func Login(role, outcome string) {
	if loginsTotal != nil {
		loginsTotal.WithLabelValues(role, outcome).Inc()
	}
}

func ResetRequested() {
	if resetsRequested != nil {
		resetsRequested.Inc()
	}
}

func ResetCompleted() {
	if resetsCompleted != nil {
		resetsCompleted.Inc()
	}
}

func RateLimited(path string) {
	if rateLimitedTotal != nil {
		rateLimitedTotal.WithLabelValues(path).Inc()
	}
}
