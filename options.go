package slabkit

import (
	"log/slog"

	"github.com/hupe1980/slabkit/alloc"
	"github.com/hupe1980/slabkit/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	memoryLimit      int64
	controller       *resource.Controller
	capacities       alloc.Capacities
	prefault         bool
}

// Option configures a Runtime.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := slabkit.NewJSONLogger(slog.LevelInfo)
//	rt, _ := slabkit.New(slabkit.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for allocator and arena events.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &slabkit.BasicMetricsCollector{}
//	rt, _ := slabkit.New(slabkit.WithMetricsCollector(metrics))
//	// ... use rt ...
//	stats := metrics.GetStats()
//	fmt.Printf("Chunks: %d, Large: %d\n", stats.ChunksMapped, stats.LargeAllocs)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithMemoryLimit caps the bytes mapped by pools and large objects.
// Ignored when WithResourceController is also given.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithResourceController charges mapped memory against an existing controller,
// so several runtimes can share one budget.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithCapacities overrides the per-class pool capacities.
func WithCapacities(c alloc.Capacities) Option {
	return func(o *options) {
		o.capacities = c
	}
}

// WithPrefault asks pools to prefault new chunks.
func WithPrefault() Option {
	return func(o *options) {
		o.prefault = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		capacities:       alloc.DefaultCapacities,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
