package alloc

import (
	"log/slog"

	"github.com/hupe1980/slabkit/pool"
)

// Capacities holds the block capacity of each size-class pool, smallest class first.
// Every entry must be a valid pool capacity.
type Capacities [NumClasses]int

// DefaultCapacities favours small classes: 2Mi blocks of 64 bytes down to 64Ki blocks of 2 KiB.
var DefaultCapacities = Capacities{
	1024 * 2048,
	1024 * 1024,
	1024 * 512,
	1024 * 256,
	1024 * 128,
	1024 * 64,
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	capacities Capacities
	acquirer   pool.MemoryAcquirer
	metrics    MetricsObserver
	logger     *slog.Logger
	prefault   bool
}

// WithCapacities overrides the per-class pool capacities.
func WithCapacities(c Capacities) Option {
	return func(o *options) {
		o.capacities = c
	}
}

// WithMemoryAcquirer charges pool chunks and large objects against acquirer.
func WithMemoryAcquirer(acquirer pool.MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = acquirer
	}
}

// WithMetricsObserver sets the metrics observer.
func WithMetricsObserver(m MetricsObserver) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPrefault asks pools to prefault new chunks.
func WithPrefault() Option {
	return func(o *options) {
		o.prefault = true
	}
}
