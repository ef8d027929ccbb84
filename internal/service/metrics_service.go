package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth operations and outcomes used as metric labels.
const (
	OperationLogin    = "login"
	OperationRefresh  = "refresh"
	OperationRegister = "register"

	OutcomeSuccess        = "success"
	OutcomeUnknownUser    = "unknown_user"
	OutcomeInactive       = "inactive"
	OutcomeBadCredentials = "bad_credentials"
	OutcomeInvalidToken   = "invalid_token"
	OutcomeInvalidRefresh = "invalid_refresh_token"
	OutcomeValidation     = "validation"
	OutcomeError          = "error"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	problems        *prometheus.CounterVec
	authAttempts    *prometheus.CounterVec
	tokensIssued    prometheus.Counter
	refreshLockWait prometheus.Histogram
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	problems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "account_http_problems_total",
		Help: "Problem responses by route and problem code",
	}, []string{"path", "code"})

	authAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "account_auth_attempts_total",
		Help: "Account operations by outcome",
	}, []string{"operation", "outcome"})

	tokensIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "account_tokens_issued_total",
		Help: "Access/refresh token pairs issued",
	})

	refreshLockWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "account_refresh_lock_wait_seconds",
		Help:    "Time spent waiting for the per-user refresh lock",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, problems, authAttempts, tokensIssued, refreshLockWait, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		problems:        problems,
		authAttempts:    authAttempts,
		tokensIssued:    tokensIssued,
		refreshLockWait: refreshLockWait,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveProblem counts a problem response on a route.
func (m *MetricsService) ObserveProblem(path, code string) {
	if m == nil {
		return
	}
	m.problems.WithLabelValues(path, code).Inc()
}

// ObserveAuth counts one account operation outcome.
func (m *MetricsService) ObserveAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(operation, outcome).Inc()
	if outcome == OutcomeSuccess && operation != OperationRegister {
		m.tokensIssued.Inc()
	}
}

// ObserveRefreshLockWait records how long a refresh waited for its lock.
func (m *MetricsService) ObserveRefreshLockWait(duration time.Duration) {
	if m == nil {
		return
	}
	m.refreshLockWait.Observe(duration.Seconds())
}
