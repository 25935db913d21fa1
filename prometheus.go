package slabkit

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector on top of Prometheus metrics.
type PrometheusCollector struct {
	chunks      *prometheus.CounterVec
	chunkBytes  *prometheus.CounterVec
	largeAllocs prometheus.Counter
	largeFrees  prometheus.Counter
	largeBytes  prometheus.Gauge
	reallocs    *prometheus.CounterVec
	arenaEvents *prometheus.CounterVec
}

// NewPrometheusCollector creates a PrometheusCollector and registers its metrics on reg.
// Metric names are prefixed with namespace (default "slabkit").
func NewPrometheusCollector(reg prometheus.Registerer, namespace string) (*PrometheusCollector, error) {
	if namespace == "" {
		namespace = "slabkit"
	}

	c := &PrometheusCollector{
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_chunks_mapped_total",
			Help:      "Chunks mapped by size-class pools",
		}, []string{"block_size"}),
		chunkBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_mapped_bytes_total",
			Help:      "Bytes mapped by size-class pools",
		}, []string{"block_size"}),
		largeAllocs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "large_allocs_total",
			Help:      "Large objects mapped directly",
		}),
		largeFrees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "large_frees_total",
			Help:      "Large objects unmapped",
		}),
		largeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "large_bytes",
			Help:      "Bytes currently mapped for large objects",
		}),
		reallocs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reallocs_total",
			Help:      "Reallocations by outcome",
		}, []string{"moved"}),
		arenaEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arena_events_total",
			Help:      "Arena store, stale and destroy events",
		}, []string{"arena", "event"}),
	}

	for _, m := range []prometheus.Collector{
		c.chunks,
		c.chunkBytes,
		c.largeAllocs,
		c.largeFrees,
		c.largeBytes,
		c.reallocs,
		c.arenaEvents,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// OnChunkMapped implements MetricsCollector.
func (c *PrometheusCollector) OnChunkMapped(blockSize, bytes int) {
	label := strconv.Itoa(blockSize)
	c.chunks.WithLabelValues(label).Inc()
	c.chunkBytes.WithLabelValues(label).Add(float64(bytes))
}

// OnLargeAlloc implements MetricsCollector.
func (c *PrometheusCollector) OnLargeAlloc(bytes int) {
	c.largeAllocs.Inc()
	c.largeBytes.Add(float64(bytes))
}

// OnLargeFree implements MetricsCollector.
func (c *PrometheusCollector) OnLargeFree(bytes int) {
	c.largeFrees.Inc()
	c.largeBytes.Sub(float64(bytes))
}

// OnRealloc implements MetricsCollector.
func (c *PrometheusCollector) OnRealloc(oldSize, newSize int, moved bool) {
	c.reallocs.WithLabelValues(strconv.FormatBool(moved)).Inc()
}

// OnStore implements MetricsCollector.
func (c *PrometheusCollector) OnStore(arena string) {
	c.arenaEvents.WithLabelValues(arena, "store").Inc()
}

// OnStale implements MetricsCollector.
func (c *PrometheusCollector) OnStale(arena string) {
	c.arenaEvents.WithLabelValues(arena, "stale").Inc()
}

// OnDestroy implements MetricsCollector.
func (c *PrometheusCollector) OnDestroy(arena string) {
	c.arenaEvents.WithLabelValues(arena, "destroy").Inc()
}
