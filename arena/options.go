package arena

import (
	"fmt"
	"log/slog"
)

// Option configures a Store or Manager.
type Option func(*options)

type options struct {
	name    string
	logger  *slog.Logger
	metrics MetricsObserver
	drop    any
}

// WithName labels the arena in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
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

// WithDrop registers fn to run exactly once on every value when it is destroyed,
// before its slot is zeroed. T must match the arena's value type.
func WithDrop[T any](fn func(*T)) Option {
	return func(o *options) {
		o.drop = fn
	}
}

func buildOptions[T any](capacity int, optFns []Option) (options, func(*T), error) {
	o := options{
		name:    "arena",
		metrics: NoopMetricsObserver{},
	}
	if capacity <= 0 || capacity > MaxCapacity {
		return o, nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	for _, fn := range optFns {
		fn(&o)
	}

	if o.drop == nil {
		return o, nil, nil
	}
	drop, ok := o.drop.(func(*T))
	if !ok {
		return o, nil, fmt.Errorf("%w: got %T, want %T", ErrDropType, o.drop, drop)
	}
	return o, drop, nil
}
