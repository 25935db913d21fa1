package alloc

import "github.com/hupe1980/slabkit/pool"

// MetricsObserver observes allocator slow-path events.
// It is also handed to every size-class pool.
type MetricsObserver interface {
	pool.MetricsObserver
	// OnLargeAlloc is called after a large object has been mapped.
	OnLargeAlloc(bytes int)
	// OnLargeFree is called after a large object has been unmapped.
	OnLargeFree(bytes int)
	// OnRealloc is called for every Realloc; moved reports whether the data was copied.
	OnRealloc(oldSize, newSize int, moved bool)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct {
	pool.NoopMetricsObserver
}

func (NoopMetricsObserver) OnLargeAlloc(bytes int)                     {}
func (NoopMetricsObserver) OnLargeFree(bytes int)                      {}
func (NoopMetricsObserver) OnRealloc(oldSize, newSize int, moved bool) {}
