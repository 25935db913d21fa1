package pool

import "log/slog"

// MemoryAcquirer reserves memory against a budget before chunks are mapped.
type MemoryAcquirer interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// Option configures a Pool.
type Option func(*Pool)

// WithMemoryAcquirer charges every mapped chunk against acquirer.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(p *Pool) {
		p.acquirer = acquirer
	}
}

// WithLogger sets the logger for slow-path events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = l
	}
}

// WithMetricsObserver sets the metrics observer.
func WithMetricsObserver(o MetricsObserver) Option {
	return func(p *Pool) {
		if o != nil {
			p.metrics = o
		}
	}
}

// WithPrefault advises the kernel to populate each chunk as soon as it is mapped.
func WithPrefault() Option {
	return func(p *Pool) {
		p.prefault = true
	}
}
