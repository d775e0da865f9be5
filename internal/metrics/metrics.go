package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the wizard, the country list, and the
// HTTP front end.
type Metrics struct {
	registry *prometheus.Registry

	// Policies generated, by service type
	PoliciesGenerated *prometheus.CounterVec

	// Navigation blocked by validation, by step id
	ValidationFailures *prometheus.CounterVec

	// Failed country list loads
	CountryFetchFailures prometheus.Counter

	// Entries held by the country catalog
	CountryEntries prometheus.Gauge

	// Live wizard sessions
	ActiveSessions prometheus.Gauge

	// HTTP handler latency by route and status
	RequestLatency *prometheus.HistogramVec
}

// New creates a Metrics instance registered on its own registry, so several
// servers (or tests) can coexist in one process.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		PoliciesGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyforge_policies_generated_total",
			Help: "Total privacy policies generated by service type",
		}, []string{"type"}),

		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyforge_wizard_validation_failures_total",
			Help: "Total wizard steps that failed validation",
		}, []string{"step"}),

		CountryFetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "policyforge_country_fetch_failures_total",
			Help: "Total failed loads of the country reference list",
		}),

		CountryEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "policyforge_country_entries",
			Help: "Number of entries in the loaded country reference list",
		}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "policyforge_wizard_sessions",
			Help: "Number of wizard sessions held in memory",
		}),

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "policyforge_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status code",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),
	}
}

// IncrementGenerated records a generated policy.
func (m *Metrics) IncrementGenerated(serviceType string) {
	if m != nil {
		m.PoliciesGenerated.WithLabelValues(serviceType).Inc()
	}
}

// IncrementValidationFailure records a step that blocked navigation.
func (m *Metrics) IncrementValidationFailure(step string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(step).Inc()
	}
}

// IncrementCountryFetchFailure records a failed country list load.
func (m *Metrics) IncrementCountryFetchFailure() {
	if m != nil {
		m.CountryFetchFailures.Inc()
	}
}

// SetCountryEntries records the size of the country list.
func (m *Metrics) SetCountryEntries(n int) {
	if m != nil {
		m.CountryEntries.Set(float64(n))
	}
}

// SetActiveSessions records the number of wizard sessions.
func (m *Metrics) SetActiveSessions(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}

// ObserveRequest records the duration of an HTTP request.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, status).Observe(d.Seconds())
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
