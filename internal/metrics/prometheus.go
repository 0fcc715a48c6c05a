package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace is the Prometheus metric prefix for every gauge/counter
// this package exports, following the "<namespace>_<subsystem>_<name>"
// convention.
const namespace = "reqflux"

// PrometheusMirror republishes selected Collector registers into a
// dedicated Prometheus registry for the admin surface's /metrics
// endpoint. It holds its own registry rather than using the global
// default so tests can spin up independent instances.
type PrometheusMirror struct {
	registry *prometheus.Registry

	queueSize      prometheus.Gauge
	cacheSize      prometheus.Gauge
	openCircuits   prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

var newOnce sync.Once

// NewPrometheusMirror builds an isolated registry and registers the
// orchestrator's headline gauges and counters against it.
func NewPrometheusMirror() *PrometheusMirror {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusMirror{
		registry: reg,
		queueSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "queue", Name: "size",
			Help: "Number of items currently queued.",
		}),
		cacheSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "cache", Name: "entries",
			Help: "Number of live response cache entries.",
		}),
		openCircuits: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "breaker", Name: "open_endpoints",
			Help: "Number of endpoints whose circuit breaker is open.",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "requests", Name: "total",
			Help: "Total requests processed by terminal outcome.",
		}, []string{"outcome"}),
		requestLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "requests", Name: "duration_seconds",
			Help:    "Request send duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Registry exposes the underlying Prometheus registry for the admin
// HTTP handler to serve.
func (p *PrometheusMirror) Registry() *prometheus.Registry { return p.registry }

// SetQueueSize updates the queue-size gauge.
func (p *PrometheusMirror) SetQueueSize(n int) { p.queueSize.Set(float64(n)) }

// SetCacheSize updates the cache-entries gauge.
func (p *PrometheusMirror) SetCacheSize(n int) { p.cacheSize.Set(float64(n)) }

// SetOpenCircuits updates the open-breaker-count gauge.
func (p *PrometheusMirror) SetOpenCircuits(n int) { p.openCircuits.Set(float64(n)) }

// ObserveOutcome increments the requests-total counter for outcome
// ("success" or "failed") and records the duration histogram.
func (p *PrometheusMirror) ObserveOutcome(outcome string, durationSeconds float64) {
	p.requestsTotal.WithLabelValues(outcome).Inc()
	p.requestLatency.Observe(durationSeconds)
}
