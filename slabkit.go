package slabkit

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/slabkit/alloc"
	"github.com/hupe1980/slabkit/arena"
	"github.com/hupe1980/slabkit/resource"
)

// Runtime owns one allocator and the ambient services shared by everything
// built from it: a memory budget, a logger and a metrics collector.
type Runtime struct {
	alloc   *alloc.Manager
	rc      *resource.Controller
	logger  *Logger
	metrics MetricsCollector
	closed  atomic.Bool
}

// New creates a Runtime.
func New(optFns ...Option) (*Runtime, error) {
	o := applyOptions(optFns)

	rc := o.controller
	if rc == nil {
		rc = resource.NewController(resource.Config{MemoryLimitBytes: o.memoryLimit})
	}

	allocOpts := []alloc.Option{
		alloc.WithCapacities(o.capacities),
		alloc.WithMemoryAcquirer(rc),
		alloc.WithMetricsObserver(o.metricsCollector),
		alloc.WithLogger(o.logger.WithComponent("alloc").Logger),
	}
	if o.prefault {
		allocOpts = append(allocOpts, alloc.WithPrefault())
	}

	m, err := alloc.New(allocOpts...)
	if err != nil {
		return nil, fmt.Errorf("slabkit: %w", err)
	}

	o.logger.LogOpen(context.Background(), rc.MemoryLimit(), o.capacities)

	return &Runtime{
		alloc:   m,
		rc:      rc,
		logger:  o.logger,
		metrics: o.metricsCollector,
	}, nil
}

// Alloc returns the runtime's allocator.
func (rt *Runtime) Alloc() *alloc.Manager {
	return rt.alloc
}

// Resources returns the controller that budgets the runtime's memory.
func (rt *Runtime) Resources() *resource.Controller {
	return rt.rc
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *Logger {
	return rt.logger
}

// Metrics returns the runtime's metrics collector.
func (rt *Runtime) Metrics() MetricsCollector {
	return rt.metrics
}

// Stats returns a snapshot of allocator statistics.
func (rt *Runtime) Stats() alloc.Stats {
	return rt.alloc.Stats()
}

// Audit verifies every pool's free list. The allocator must be quiescent.
func (rt *Runtime) Audit(ctx context.Context) error {
	if rt.closed.Load() {
		return ErrClosed
	}
	err := rt.alloc.Audit()
	rt.logger.LogAudit(ctx, err)
	return err
}

// Close releases all memory owned by the allocator. Every pointer obtained from
// Alloc becomes invalid. Close is idempotent.
func (rt *Runtime) Close() error {
	if rt == nil || !rt.closed.CompareAndSwap(false, true) {
		return nil
	}
	stats := rt.alloc.Stats()
	err := rt.alloc.Close()
	rt.logger.LogClose(context.Background(), stats, err)
	return err
}

// NewArena creates a thread-safe arena that reports to rt's logger and metrics.
// opts are applied after the runtime's own, so they can override them.
func NewArena[T any](rt *Runtime, capacity int, opts ...arena.Option) (*arena.Manager[T], error) {
	if err := rt.usable(); err != nil {
		return nil, err
	}
	m, err := arena.NewManager[T](capacity, rt.arenaOptions(opts)...)
	if err != nil {
		rt.logger.LogArena(context.Background(), "manager", "", capacity, err)
		return nil, err
	}
	rt.logger.LogArena(context.Background(), "manager", m.Name(), capacity, nil)
	return m, nil
}

// NewStore creates a single-owner arena that reports to rt's logger and metrics.
func NewStore[T any](rt *Runtime, capacity int, opts ...arena.Option) (*arena.Store[T], error) {
	if err := rt.usable(); err != nil {
		return nil, err
	}
	s, err := arena.NewStore[T](capacity, rt.arenaOptions(opts)...)
	if err != nil {
		rt.logger.LogArena(context.Background(), "store", "", capacity, err)
		return nil, err
	}
	rt.logger.LogArena(context.Background(), "store", s.Name(), capacity, nil)
	return s, nil
}

func (rt *Runtime) usable() error {
	if rt == nil {
		return ErrNilRuntime
	}
	if rt.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (rt *Runtime) arenaOptions(opts []arena.Option) []arena.Option {
	return append([]arena.Option{
		arena.WithLogger(rt.logger.WithComponent("arena").Logger),
		arena.WithMetricsObserver(rt.metrics),
	}, opts...)
}
