package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/realdom/pkg/realdom"
)

// MetricsConfig configures the Prometheus recorder.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "realdom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for cycle and pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus recorder.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "realdom",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records update cycles as Prometheus metrics.
type Metrics struct {
	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram
	dirtyNodes    prometheus.Histogram
	pending       prometheus.Gauge
	passNodes     *prometheus.CounterVec
	passChanged   *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
}

var _ realdom.Recorder = (*Metrics)(nil)

// NewMetrics registers the cycle metrics. Registering twice on the same
// registry panics, as with any promauto metric.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycles_total",
			Help:        "Total number of update cycles",
			ConstLabels: config.ConstLabels,
		}),

		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycle_duration_seconds",
			Help:        "Update cycle duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		dirtyNodes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dirty_nodes",
			Help:        "Nodes with at least one stale state at the start of a cycle",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 10), // 1 to ~260k
		}),

		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pending_nodes",
			Help:        "Nodes left stale for the next cycle",
			ConstLabels: config.ConstLabels,
		}),

		passNodes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_nodes_total",
			Help:        "Total number of state computations",
			ConstLabels: config.ConstLabels,
		}, []string{"pass"}),

		passChanged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_changed_total",
			Help:        "Total number of state computations that changed the value",
			ConstLabels: config.ConstLabels,
		}, []string{"pass"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Time spent computing one state in a cycle, in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"pass"}),
	}
}

// RecordCycle implements realdom.Recorder.
func (m *Metrics) RecordCycle(r realdom.CycleReport) {
	m.cycles.Inc()
	m.cycleDuration.Observe(r.Duration.Seconds())
	m.dirtyNodes.Observe(float64(r.DirtyNodes))
	m.pending.Set(float64(r.Pending))

	for _, p := range r.Passes {
		if p.Nodes == 0 {
			// Idle this cycle.
			continue
		}
		m.passNodes.WithLabelValues(p.Name).Add(float64(p.Nodes))
		m.passChanged.WithLabelValues(p.Name).Add(float64(p.Changed))
		m.passDuration.WithLabelValues(p.Name).Observe(p.Duration.Seconds())
	}
}
