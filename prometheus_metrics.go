package mongos

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements the Metrics interface using Prometheus
type PrometheusMetrics struct {
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	registry   prometheus.Registerer
}

// NewPrometheusMetrics creates a new Prometheus metrics instance.
// If registry is nil, uses the default Prometheus registerer.
//
// Every standard metric is labelled by "database"; record them with
// tags "database", <name> (plus "operation" or "error_type" where registered).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	pm := &PrometheusMetrics{
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		registry:   registry,
	}

	pm.registerDefaultMetrics()
	return pm
}

// registerDefaultMetrics registers all standard connection metrics
func (p *PrometheusMetrics) registerDefaultMetrics() {
	p.gauges[MetricConnectionState] = promauto.With(p.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mongos",
			Subsystem: "connection",
			Name:      "state",
			Help:      "Ready state of the connection (0=disconnected, 1=connected, 2=connecting, 3=disconnecting)",
		},
		[]string{"database"},
	)

	p.gauges[MetricModelsRegistered] = promauto.With(p.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mongos",
			Name:      "models_registered",
			Help:      "Number of models in the connection's registry",
		},
		[]string{"database"},
	)

	p.counters[MetricConnectAttempts] = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mongos",
			Name:      "connect_attempts_total",
			Help:      "Total number of connect attempts started",
		},
		[]string{"database"},
	)

	p.counters[MetricConnectErrors] = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mongos",
			Name:      "connect_errors_total",
			Help:      "Total number of failed connect attempts",
		},
		[]string{"database", "error_type"},
	)

	p.counters[MetricDisconnects] = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mongos",
			Name:      "disconnects_total",
			Help:      "Total number of disconnects performed",
		},
		[]string{"database"},
	)

	p.counters[MetricDisconnectErrors] = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mongos",
			Name:      "disconnect_errors_total",
			Help:      "Total number of disconnects that reported an error",
		},
		[]string{"database"},
	)

	p.histograms[MetricConnectDuration] = promauto.With(p.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mongos",
			Name:      "operation_duration_seconds",
			Help:      "Duration of connect and disconnect operations in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"database", "operation"},
	)
}

// Increment increments a Prometheus counter
func (p *PrometheusMetrics) Increment(name string, tags ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	counter, ok := p.counters[name]
	if !ok {
		// Create dynamic counter if it doesn't exist
		counter = promauto.With(p.registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mongos",
				Name:      sanitizeMetricName(name),
				Help:      "Dynamic counter: " + name,
			},
			p.extractLabels(tags),
		)
		p.counters[name] = counter
	}

	labels := p.extractLabelValues(tags)
	counter.With(labels).Inc()
}

// Gauge sets a Prometheus gauge value
func (p *PrometheusMetrics) Gauge(name string, value float64, tags ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	gauge, ok := p.gauges[name]
	if !ok {
		gauge = promauto.With(p.registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "mongos",
				Name:      sanitizeMetricName(name),
				Help:      "Dynamic gauge: " + name,
			},
			p.extractLabels(tags),
		)
		p.gauges[name] = gauge
	}

	labels := p.extractLabelValues(tags)
	gauge.With(labels).Set(value)
}

// Histogram records a value in a Prometheus histogram
func (p *PrometheusMetrics) Histogram(name string, value float64, tags ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	histogram, ok := p.histograms[name]
	if !ok {
		histogram = promauto.With(p.registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mongos",
				Name:      sanitizeMetricName(name),
				Help:      "Dynamic histogram: " + name,
				Buckets:   prometheus.DefBuckets,
			},
			p.extractLabels(tags),
		)
		p.histograms[name] = histogram
	}

	labels := p.extractLabelValues(tags)
	histogram.With(labels).Observe(value)
}

// Timing records a duration in a Prometheus histogram
func (p *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...string) {
	p.Histogram(name, duration.Seconds(), tags...)
}

// extractLabels extracts label names from tags (every even index)
func (p *PrometheusMetrics) extractLabels(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	labels := make([]string, 0, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		labels = append(labels, tags[i])
	}
	return labels
}

// extractLabelValues creates a label map from tags (key-value pairs)
func (p *PrometheusMetrics) extractLabelValues(tags []string) prometheus.Labels {
	labels := make(prometheus.Labels)
	for i := 0; i+1 < len(tags); i += 2 {
		labels[tags[i]] = tags[i+1]
	}
	return labels
}

// sanitizeMetricName maps dotted metric names onto the Prometheus charset
func sanitizeMetricName(name string) string {
	out := []byte(name)
	for i, c := range out {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			out[i] = '_'
		}
	}
	return string(out)
}

// Registerer returns the underlying Prometheus registerer
func (p *PrometheusMetrics) Registerer() prometheus.Registerer {
	return p.registry
}
