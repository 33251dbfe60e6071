package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	subscriptions   prometheus.Gauge
	auditWrites     *prometheus.CounterVec
	auditSkipped    *prometheus.CounterVec
	opFailures      *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecrew_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sitecrew_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	subscriptions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sitecrew_realtime_subscriptions",
		Help: "Realtime subscriptions currently open.",
	})
	auditWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecrew_audit_writes_total",
		Help: "Audit record writes by result.",
	}, []string{"result"})
	auditSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecrew_audit_skipped_total",
		Help: "Sensitive operations not audited, by reason.",
	}, []string{"reason"})
	opFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecrew_operation_failures_total",
		Help: "Rejected operations by tag.",
	}, []string{"op"})
	registry.MustRegister(requests, duration, subscriptions, auditWrites, auditSkipped, opFailures)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		subscriptions:   subscriptions,
		auditWrites:     auditWrites,
		auditSkipped:    auditSkipped,
		opFailures:      opFailures,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Gatherer exposes the registry for tests and exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.DefaultGatherer
	}
	return m.registry
}

// SetSubscriptions records the number of open realtime subscriptions.
func (m *Metrics) SetSubscriptions(n int) {
	if m == nil {
		return
	}
	m.subscriptions.Set(float64(n))
}

// AuditWrite counts an audit persistence attempt.
func (m *Metrics) AuditWrite(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.auditWrites.WithLabelValues(result).Inc()
}

// AuditSkipped counts a sensitive operation that produced no audit record.
func (m *Metrics) AuditSkipped(reason string) {
	if m == nil {
		return
	}
	m.auditSkipped.WithLabelValues(reason).Inc()
}

// OperationFailed counts a rejected operation.
func (m *Metrics) OperationFailed(op string) {
	if m == nil {
		return
	}
	m.opFailures.WithLabelValues(op).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
