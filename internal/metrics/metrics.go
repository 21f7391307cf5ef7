package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus metric collectors for the dashboard gateway.
type Metrics struct {
	registry *prometheus.Registry

	// Gateway HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// FoodRescue backend call metrics.
	BackendDuration    *prometheus.HistogramVec
	BackendErrorsTotal *prometheus.CounterVec

	// Session metrics.
	SessionsCreatedTotal prometheus.Counter
	LogoutsTotal         prometheus.Counter

	// Action throttling.
	ActionRejectionsTotal prometheus.Counter

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodrescued_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodrescued_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodrescued_backend_request_duration_seconds",
			Help:    "FoodRescue backend request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),

		BackendErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodrescued_backend_errors_total",
			Help: "Total number of failed FoodRescue backend requests.",
		}, []string{"op", "kind"}),

		SessionsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodrescued_sessions_created_total",
			Help: "Total number of sessions opened by login or signup.",
		}),

		LogoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodrescued_logouts_total",
			Help: "Total number of explicit logouts.",
		}),

		ActionRejectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodrescued_action_rejections_total",
			Help: "Total number of throttled dashboard actions.",
		}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "foodrescued_server_start_time_seconds",
			Help: "Unix timestamp of server start.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BackendDuration,
		m.BackendErrorsTotal,
		m.SessionsCreatedTotal,
		m.LogoutsTotal,
		m.ActionRejectionsTotal,
		m.ServerStartTime,
		collectors.NewGoCollector(),
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	return m
}

// Registry exposes the private registry (used by the summary handler).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers DB pool gauges using the given stat function.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// ObserveBackendDuration implements backend.MetricsRecorder.
func (m *Metrics) ObserveBackendDuration(op string, seconds float64) {
	m.BackendDuration.WithLabelValues(op).Observe(seconds)
}

// IncBackendError implements backend.MetricsRecorder.
func (m *Metrics) IncBackendError(op, kind string) {
	m.BackendErrorsTotal.WithLabelValues(op, kind).Inc()
}

// IncActionRejection counts a throttled action.
func (m *Metrics) IncActionRejection() {
	m.ActionRejectionsTotal.Inc()
}

// Middleware records request count and duration per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, pattern, statusLabel(ww.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

func statusLabel(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code)
}
