package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeRecorded = "recorded"
	OutcomeNoop     = "noop"
	OutcomeClaimed  = "claimed"
	OutcomeAlready  = "already"
	OutcomeError    = "error"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	completions      *prometheus.CounterVec
	versionConflicts *prometheus.CounterVec
	claims           *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// New registers collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		completions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "progress_engine",
			Name:      "section_completions_total",
			Help:      "Section completion requests by module and outcome",
		}, []string{"module", "outcome"}),
		versionConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "progress_engine",
			Name:      "version_conflicts_total",
			Help:      "Completion record compare-and-set failures",
		}, []string{"module"}),
		claims: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "progress_engine",
			Name:      "certification_claims_total",
			Help:      "Certification claims by module and outcome",
		}, []string{"module", "outcome"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "progress_engine",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Completion(module, outcome string) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(module, outcome).Inc()
}

func (m *Metrics) VersionConflict(module string) {
	if m == nil {
		return
	}
	m.versionConflicts.WithLabelValues(module).Inc()
}

func (m *Metrics) Claim(module, outcome string) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(module, outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
