package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stale discard kinds.
const (
	KindSuggestions = "suggestions"
	KindResults     = "results"
)

// Manager holds the service's Prometheus collectors.
type Manager struct {
	Registry        *prometheus.Registry
	HTTPRequests    *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec
	StaleDiscards   *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	SearchesTotal   *prometheus.CounterVec
}

func NewManager(namespace string) *Manager {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "status"})

	upstreamLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of marketplace and geocoder calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"upstream"})

	upstreamErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_errors_total",
		Help:      "Failed marketplace and geocoder calls.",
	}, []string{"upstream"})

	staleDiscards := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_discards_total",
		Help:      "Responses dropped because a newer request superseded them.",
	}, []string{"kind"})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Open search WebSocket sessions.",
	})

	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Completed searches by result state.",
	}, []string{"state"})

	registry.MustRegister(
		httpRequests,
		upstreamLatency,
		upstreamErrors,
		staleDiscards,
		activeSessions,
		searches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:        registry,
		HTTPRequests:    httpRequests,
		UpstreamLatency: upstreamLatency,
		UpstreamErrors:  upstreamErrors,
		StaleDiscards:   staleDiscards,
		ActiveSessions:  activeSessions,
		SearchesTotal:   searches,
	}
}

// ObserveUpstream matches the Observe hooks of the upstream clients.
func (m *Manager) ObserveUpstream(upstream string, d time.Duration, err error) {
	m.UpstreamLatency.WithLabelValues(upstream).Observe(d.Seconds())
	if err != nil {
		m.UpstreamErrors.WithLabelValues(upstream).Inc()
	}
}

func (m *Manager) StaleDiscard(kind string) {
	m.StaleDiscards.WithLabelValues(kind).Inc()
}

func (m *Manager) Search(state string) {
	m.SearchesTotal.WithLabelValues(state).Inc()
}

func (m *Manager) SessionOpened() { m.ActiveSessions.Inc() }
func (m *Manager) SessionClosed() { m.ActiveSessions.Dec() }

// Handler exposes the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps WebSocket upgrades working through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Instrument counts requests served by next under the given route label.
func (m *Manager) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
