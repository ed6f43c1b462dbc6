// Package prometheus records retrieval counters in a Prometheus registry.
package prometheus

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.Metrics = (*Metrics)(nil)

// Namespace prefixes every metric name.
const Namespace = "partnerdocs"

// Metrics implements driven.Metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	embeddingBatches *prometheus.CounterVec
	embeddingItems   *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	indexWrites      *prometheus.CounterVec
	contexts         *prometheus.CounterVec
	contextChunks    prometheus.Histogram
}

// Option configures Metrics.
type Option func(*options)

type options struct {
	runtime bool
}

// WithRuntimeCollectors also registers Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(o *options) {
		o.runtime = true
	}
}

// New creates Metrics with all collectors registered.
func New(opts ...Option) *Metrics {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		embeddingBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "embedding_batches_total",
			Help:      "Embedding provider calls by outcome.",
		}, []string{"outcome"}),
		embeddingItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "embedding_items_total",
			Help:      "Texts sent to the embedding provider by outcome.",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_lookups_total",
			Help:      "Partner document cache lookups by result.",
		}, []string{"result"}),
		indexWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_writes_total",
			Help:      "Chunk upserts by outcome.",
		}, []string{"outcome"}),
		contexts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "contexts_assembled_total",
			Help:      "Assembled contexts by selection path.",
		}, []string{"balanced"}),
		contextChunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "context_chunks",
			Help:      "Chunks per assembled context.",
			Buckets:   []float64{1, 2, 4, 6, 8, 10, 15, 20, 30, 50},
		}),
	}

	m.registry.MustRegister(
		m.embeddingBatches,
		m.embeddingItems,
		m.cacheLookups,
		m.indexWrites,
		m.contexts,
		m.contextChunks,
	)
	if o.runtime {
		m.registry.MustRegister(collectors.NewGoCollector())
		m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return m
}

// EmbeddingBatch implements driven.Metrics.
func (m *Metrics) EmbeddingBatch(items int, ok bool) {
	o := outcome(ok)
	m.embeddingBatches.WithLabelValues(o).Inc()
	m.embeddingItems.WithLabelValues(o).Add(float64(items))
}

// CacheLookup implements driven.Metrics.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// IndexWrite implements driven.Metrics.
func (m *Metrics) IndexWrite(ok bool) {
	m.indexWrites.WithLabelValues(outcome(ok)).Inc()
}

// ContextAssembled implements driven.Metrics.
func (m *Metrics) ContextAssembled(balanced bool, chunks int) {
	m.contexts.WithLabelValues(strconv.FormatBool(balanced)).Inc()
	m.contextChunks.Observe(float64(chunks))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
