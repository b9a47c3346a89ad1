package observability

import (
	"time"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// External collaborators, used as the "service" label.
const (
	ServiceStations     = "stations"
	ServiceOrchestrator = "orchestrator"
	ServiceLLM          = "llm"
	ServiceStore        = "store"
)

var (
	knownOutcomes = []domain.Outcome{
		domain.OutcomeCreated,
		domain.OutcomeDelegated,
		domain.OutcomeProfileNotConfigured,
		domain.OutcomeClientNotConfigured,
		domain.OutcomePaymentInactive,
		domain.OutcomeQuotaExceeded,
	}
	knownServices = []string{ServiceStations, ServiceOrchestrator, ServiceLLM, ServiceStore}
)

// Metrics holds all Prometheus metrics for the agent.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	profiling       *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tys_operation_duration_seconds",
				Help:    "Duration of agent operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tys_external_errors_total",
				Help: "Total errors from external collaborators.",
			},
			[]string{"service"},
		),
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tys_provisioning_outcomes_total",
				Help: "Provisioning attempts by outcome.",
			},
			[]string{"outcome"},
		),
		profiling: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tys_profiling_total",
				Help: "Business profiling calls by result.",
			},
			[]string{"result"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tys_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tys_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordDuration records the duration of an operation.
func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrOutcome counts a provisioning outcome.
func (m *Metrics) IncrOutcome(o domain.Outcome) {
	m.outcomes.WithLabelValues(string(o)).Inc()
}

// IncrProfiling counts a profiling call ("success" or "error").
func (m *Metrics) IncrProfiling(result string) {
	m.profiling.WithLabelValues(result).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// Snapshot returns the provisioning counters for GET /v1/metrics/provisioning.
func (m *Metrics) Snapshot() *domain.ProvisioningMetrics {
	snap := &domain.ProvisioningMetrics{
		Outcomes:       make(map[string]int64, len(knownOutcomes)),
		ExternalErrors: make(map[string]int64, len(knownServices)),
	}

	for _, o := range knownOutcomes {
		v := int64(getCounterValue(m.outcomes, string(o)))
		snap.Outcomes[string(o)] = v
		snap.Attempts += v
	}
	for _, s := range knownServices {
		snap.ExternalErrors[s] = int64(getCounterValue(m.externalErrors, s))
	}

	snap.ProfilingCalls = int64(getCounterValue(m.profiling, "success") + getCounterValue(m.profiling, "error"))

	hits := getCounterValue(m.cacheHits, "profiler")
	misses := getCounterValue(m.cacheMisses, "profiler")
	if hits+misses > 0 {
		snap.ProfileCacheHit = hits / (hits + misses)
	}

	return snap
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
