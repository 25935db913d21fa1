package slabkit

import (
	"sync/atomic"

	"github.com/hupe1980/slabkit/alloc"
	"github.com/hupe1980/slabkit/arena"
)

// MetricsCollector receives slow-path events from the allocator, its pools
// and every arena built from a Runtime.
// Implement this interface to integrate with monitoring systems; see
// PrometheusCollector for a ready-made one.
type MetricsCollector interface {
	alloc.MetricsObserver
	arena.MetricsObserver
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct {
	alloc.NoopMetricsObserver
	arenaNoopMetricsObserver
}

// arenaNoopMetricsObserver aliases arena.NoopMetricsObserver so it can be
// embedded alongside alloc.NoopMetricsObserver without a field-name clash.
type arenaNoopMetricsObserver = arena.NoopMetricsObserver

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ChunksMapped   atomic.Int64
	ChunkBytes     atomic.Int64
	LargeAllocs    atomic.Int64
	LargeFrees     atomic.Int64
	LargeBytes     atomic.Int64 // Currently mapped
	Reallocs       atomic.Int64
	ReallocsMoved  atomic.Int64
	ArenaStores    atomic.Int64
	ArenaStale     atomic.Int64
	ArenaDestroyed atomic.Int64
}

// OnChunkMapped implements MetricsCollector.
func (b *BasicMetricsCollector) OnChunkMapped(blockSize, bytes int) {
	b.ChunksMapped.Add(1)
	b.ChunkBytes.Add(int64(bytes))
}

// OnLargeAlloc implements MetricsCollector.
func (b *BasicMetricsCollector) OnLargeAlloc(bytes int) {
	b.LargeAllocs.Add(1)
	b.LargeBytes.Add(int64(bytes))
}

// OnLargeFree implements MetricsCollector.
func (b *BasicMetricsCollector) OnLargeFree(bytes int) {
	b.LargeFrees.Add(1)
	b.LargeBytes.Add(-int64(bytes))
}

// OnRealloc implements MetricsCollector.
func (b *BasicMetricsCollector) OnRealloc(oldSize, newSize int, moved bool) {
	b.Reallocs.Add(1)
	if moved {
		b.ReallocsMoved.Add(1)
	}
}

// OnStore implements MetricsCollector.
func (b *BasicMetricsCollector) OnStore(string) {
	b.ArenaStores.Add(1)
}

// OnStale implements MetricsCollector.
func (b *BasicMetricsCollector) OnStale(string) {
	b.ArenaStale.Add(1)
}

// OnDestroy implements MetricsCollector.
func (b *BasicMetricsCollector) OnDestroy(string) {
	b.ArenaDestroyed.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ChunksMapped:   b.ChunksMapped.Load(),
		ChunkBytes:     b.ChunkBytes.Load(),
		LargeAllocs:    b.LargeAllocs.Load(),
		LargeFrees:     b.LargeFrees.Load(),
		LargeBytes:     b.LargeBytes.Load(),
		Reallocs:       b.Reallocs.Load(),
		ReallocsMoved:  b.ReallocsMoved.Load(),
		ArenaStores:    b.ArenaStores.Load(),
		ArenaStale:     b.ArenaStale.Load(),
		ArenaDestroyed: b.ArenaDestroyed.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ChunksMapped   int64
	ChunkBytes     int64
	LargeAllocs    int64
	LargeFrees     int64
	LargeBytes     int64
	Reallocs       int64
	ReallocsMoved  int64
	ArenaStores    int64
	ArenaStale     int64
	ArenaDestroyed int64
}

// LiveObjects returns the number of arena values stored and not yet destroyed.
func (s BasicMetricsStats) LiveObjects() int64 {
	return s.ArenaStores - s.ArenaDestroyed
}
