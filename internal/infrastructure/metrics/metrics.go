package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for source attempts
const (
	OutcomeHit   = "hit"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Metrics holds the Prometheus collectors for the service
type Metrics struct {
	SourceAttempts      *prometheus.CounterVec
	SourceLatency       *prometheus.HistogramVec
	Discoveries         *prometheus.CounterVec
	DiscoveryDuration   prometheus.Histogram
	GeocodeRequests     *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	Registry            *prometheus.Registry
}

// New creates the collectors and registers them with r
func New(r *prometheus.Registry) *Metrics {
	m := &Metrics{
		SourceAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfscout_source_attempts_total",
			Help: "Source fetches by source and outcome",
		}, []string{"source", "outcome"}),
		SourceLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shelfscout_source_latency_seconds",
			Help:    "Time spent fetching one term from one source",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"source"}),
		Discoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfscout_discoveries_total",
			Help: "Discovery runs by outcome",
		}, []string{"outcome"}),
		DiscoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shelfscout_discovery_duration_seconds",
			Help:    "End-to-end duration of a discovery run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9),
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfscout_geocode_requests_total",
			Help: "Geocoding lookups by operation and outcome",
		}, []string{"operation", "outcome"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		Registry: r,
	}

	r.MustRegister(
		m.SourceAttempts,
		m.SourceLatency,
		m.Discoveries,
		m.DiscoveryDuration,
		m.GeocodeRequests,
		m.HTTPRequestDuration,
		m.HTTPRequestsTotal,
	)

	return m
}

func (m *Metrics) ObserveSourceAttempt(source, outcome string, took time.Duration) {
	m.SourceAttempts.WithLabelValues(source, outcome).Inc()
	m.SourceLatency.WithLabelValues(source).Observe(took.Seconds())
}

func (m *Metrics) ObserveDiscovery(outcome string, took time.Duration) {
	m.Discoveries.WithLabelValues(outcome).Inc()
	m.DiscoveryDuration.Observe(took.Seconds())
}

func (m *Metrics) IncGeocode(operation, outcome string) {
	m.GeocodeRequests.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, path, status string, took time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(took.Seconds())
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
