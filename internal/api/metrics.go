package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	readingsTotal   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	registryActions *prometheus.CounterVec
	wsClients       prometheus.GaugeFunc
}

// NewMetrics creates the collectors on a private registry, together with
// the Go runtime and process collectors. clients reports the number of
// connected WebSocket clients and may be nil.
func NewMetrics(clients func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		readingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartwaste_readings_ingested_total",
			Help: "Readings stored, by classified status.",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartwaste_http_requests_total",
			Help: "HTTP requests processed, by route pattern and status code.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartwaste_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		registryActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartwaste_registry_actions_total",
			Help: "Registry mutations, by action.",
		}, []string{"action"}),
	}
	if clients == nil {
		clients = func() int { return 0 }
	}
	m.wsClients = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "smartwaste_websocket_clients",
		Help: "Connected WebSocket clients.",
	}, func() float64 { return float64(clients()) })

	m.registry.MustRegister(
		m.readingsTotal,
		m.httpRequests,
		m.httpDuration,
		m.registryActions,
		m.wsClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ReadingIngested counts a stored reading.
func (m *Metrics) ReadingIngested(status string) {
	if m == nil {
		return
	}
	m.readingsTotal.WithLabelValues(status).Inc()
}

// RegistryAction counts a registry mutation.
func (m *Metrics) RegistryAction(action string) {
	if m == nil {
		return
	}
	m.registryActions.WithLabelValues(action).Inc()
}

// Middleware records request count and latency labelled by the matched
// chi route pattern, so ids in query strings never explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
