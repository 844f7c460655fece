package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"embedding-harmonizer/internal/app/registry"
)

const namespace = "harmonizer"

// Metrics holds the prometheus collectors for the harmonizer. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	discoveryCycles     *prometheus.CounterVec
	discoveryDuration   prometheus.Histogram
	probes              *prometheus.CounterVec
	modelsByStatus      *prometheus.GaugeVec
	activeVersion       prometheus.Gauge
	standardizations    *prometheus.CounterVec
	dimensionMismatches *prometheus.CounterVec
	unknownModels       prometheus.Counter
	publishes           *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		discoveryCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "cycles_total",
			Help:      "Discovery cycles by outcome.",
		}, []string{"outcome"}),
		discoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of discovery cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "probes_total",
			Help:      "Probe embedding calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		modelsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "models",
			Help:      "Models in the active snapshot by status.",
		}, []string{"status"}),
		activeVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "active_version",
			Help:      "Version of the active registry snapshot.",
		}),
		standardizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "standardizer",
			Name:      "vectors_total",
			Help:      "Standardized vectors by action and padding strategy.",
		}, []string{"action", "strategy"}),
		dimensionMismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "standardizer",
			Name:      "dimension_mismatches_total",
			Help:      "Vectors rejected because their length contradicts the registry.",
		}, []string{"model_key"}),
		unknownModels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "standardizer",
			Name:      "unknown_models_total",
			Help:      "Vectors standardized without validation because the model is not registered.",
		}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "publishes_total",
			Help:      "Snapshot publishes by backend and outcome.",
		}, []string{"backend", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.discoveryCycles,
			m.discoveryDuration,
			m.probes,
			m.modelsByStatus,
			m.activeVersion,
			m.standardizations,
			m.dimensionMismatches,
			m.unknownModels,
			m.publishes,
		)
	}
	return m
}

// RecordCycle records the outcome and duration of a discovery cycle.
func (m *Metrics) RecordCycle(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.discoveryCycles.WithLabelValues(outcome).Inc()
	m.discoveryDuration.Observe(d.Seconds())
}

// RecordProbe records one probe call.
func (m *Metrics) RecordProbe(provider, outcome string) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(provider, outcome).Inc()
}

// ObserveSnapshot updates the registry gauges from the active snapshot.
func (m *Metrics) ObserveSnapshot(s *registry.Snapshot) {
	if m == nil || s == nil {
		return
	}
	report := registry.BuildReport(s)
	m.modelsByStatus.WithLabelValues(string(registry.StatusAvailable)).Set(float64(report.Available))
	m.modelsByStatus.WithLabelValues(string(registry.StatusNew)).Set(float64(report.New))
	m.modelsByStatus.WithLabelValues(string(registry.StatusDeprecated)).Set(float64(report.Deprecated))
	m.modelsByStatus.WithLabelValues(string(registry.StatusUnavailable)).Set(float64(report.Unavailable))
	m.activeVersion.Set(float64(s.Version()))
}

// RecordStandardize counts one standardized vector.
func (m *Metrics) RecordStandardize(action, strategy string) {
	if m == nil {
		return
	}
	m.standardizations.WithLabelValues(action, strategy).Inc()
}

// RecordDimensionMismatch counts a rejected vector.
func (m *Metrics) RecordDimensionMismatch(modelKey string) {
	if m == nil {
		return
	}
	m.dimensionMismatches.WithLabelValues(modelKey).Inc()
}

// RecordUnknownModel counts a vector standardized without validation.
func (m *Metrics) RecordUnknownModel() {
	if m == nil {
		return
	}
	m.unknownModels.Inc()
}

// RecordPublish counts a publish attempt against a persistence backend.
func (m *Metrics) RecordPublish(backend, outcome string) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(backend, outcome).Inc()
}
