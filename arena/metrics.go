package arena

// MetricsObserver observes arena events. Arena is the name given with WithName.
type MetricsObserver interface {
	// OnStore is called after a value has been stored.
	OnStore(arena string)
	// OnStale is called when a handle failed to validate.
	OnStale(arena string)
	// OnDestroy is called after a value has been dropped and its slot recycled.
	OnDestroy(arena string)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnStore(arena string)   {}
func (NoopMetricsObserver) OnStale(arena string)   {}
func (NoopMetricsObserver) OnDestroy(arena string) {}
