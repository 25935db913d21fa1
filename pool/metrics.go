package pool

// MetricsObserver observes pool slow-path events.
type MetricsObserver interface {
	// OnChunkMapped is called after a new chunk has been mapped, outside the
	// pool's cursor lock.
	OnChunkMapped(blockSize int, bytes int)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnChunkMapped(blockSize int, bytes int) {}
