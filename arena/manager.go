package arena

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/hupe1980/slabkit/internal/conv"
	"github.com/hupe1980/slabkit/queue"
)

// Generation and reference-count bits of the thread-safe manager.
const (
	// An odd generation means the slot holds a live, not yet freed value.
	genLive = uint32(1)
	genStep = uint32(2)

	// liveBit is set in the reference word from Store until the value is destroyed.
	// Exactly one goroutine observes the word drop to liveBit|0 and wins the
	// transition to 0; that goroutine destroys the value.
	liveBit = uint32(1) << 31
)

type managerSlot[T any] struct {
	generation atomic.Uint32
	refs       atomic.Uint32
	value      T
}

// Manager is the thread-safe generational arena.
// All methods except Close and Audit are safe for concurrent use.
type Manager[T any] struct {
	slots     []managerSlot[T]
	free      *queue.Queue32
	highWater atomic.Uint32
	capacity  uint32

	active  atomic.Int64
	pending atomic.Int64

	name    string
	drop    func(*T)
	logger  *slog.Logger
	metrics MetricsObserver
}

// Stats is a snapshot of manager occupancy.
type Stats struct {
	Capacity      int
	HighWaterMark int
	Active        int // Stored and not freed
	Pending       int // Freed, waiting for the last reference
}

// NewManager creates a Manager with room for capacity values.
func NewManager[T any](capacity int, optFns ...Option) (*Manager[T], error) {
	o, drop, err := buildOptions[T](capacity, optFns)
	if err != nil {
		return nil, err
	}

	free, err := queue.New32(queue.RoundCapacity(capacity))
	if err != nil {
		return nil, fmt.Errorf("arena: create free list: %w", err)
	}

	m := &Manager[T]{
		slots:    make([]managerSlot[T], capacity),
		free:     free,
		capacity: uint32(capacity), //nolint:gosec // capacity <= MaxCapacity
		name:     o.name,
		drop:     drop,
		logger:   o.logger,
		metrics:  o.metrics,
	}
	return m, nil
}

// Store places v in a free slot and returns its handle.
// It reports false when every slot is in use.
func (m *Manager[T]) Store(v T) (Handle, bool) {
	idx, ok := m.free.Dequeue()
	if !ok {
		if idx, ok = m.bump(); !ok {
			return Handle{}, false
		}
	}

	sl := &m.slots[idx]
	sl.value = v
	// Add, not Store: a stale Retain may hold a transient increment on this slot.
	sl.refs.Add(liveBit | 1)
	gen := sl.generation.Load() | genLive
	sl.generation.Store(gen)

	m.active.Add(1)
	m.metrics.OnStore(m.name)
	return Handle{Index: idx, Generation: gen}, true
}

func (m *Manager[T]) bump() (uint32, bool) {
	for {
		hw := m.highWater.Load()
		if hw >= m.capacity {
			return 0, false
		}
		if m.highWater.CompareAndSwap(hw, hw+1) {
			return hw, true
		}
	}
}

// Retain redeems h for a reference. It reports false if h is stale or was freed.
func (m *Manager[T]) Retain(h Handle) (Ref[T], bool) {
	if h.Generation&genLive == 0 || h.Index >= m.highWater.Load() {
		m.metrics.OnStale(m.name)
		return Ref[T]{}, false
	}

	sl := &m.slots[h.Index]
	// Take the reference before trusting the generation, so the slot cannot be
	// destroyed and recycled between the check and the increment.
	sl.refs.Add(1)
	if sl.generation.Load() != h.Generation {
		m.release(h.Index)
		m.metrics.OnStale(m.name)
		return Ref[T]{}, false
	}
	return newRef[T](h.Index), true
}

// Contains reports whether h still refers to a live, not yet freed value.
// The answer may be stale by the time the caller acts on it.
func (m *Manager[T]) Contains(h Handle) bool {
	if h.Generation&genLive == 0 || h.Index >= m.highWater.Load() {
		return false
	}
	return m.slots[h.Index].generation.Load() == h.Generation
}

// Get returns the value r refers to. The pointer is valid until r is released.
func (m *Manager[T]) Get(r Ref[T]) *T {
	return &m.slots[r.mustIndex()].value
}

// Clone adds a reference to the value r refers to. A held Ref cannot go
// stale, so no generation check is needed.
func (m *Manager[T]) Clone(r Ref[T]) Ref[T] {
	m.slots[r.mustIndex()].refs.Add(1)
	return r
}

// Handle returns the current handle of the value r refers to.
// If the value has been freed, the handle no longer validates.
func (m *Manager[T]) Handle(r Ref[T]) Handle {
	idx := r.mustIndex()
	return Handle{Index: idx, Generation: m.slots[idx].generation.Load()}
}

// IsDestroyed reports whether the value r refers to has been freed.
func (m *Manager[T]) IsDestroyed(r Ref[T]) bool {
	return m.slots[r.mustIndex()].generation.Load()&genLive == 0
}

// Release gives back r. The value is dropped when this was the last
// reference and the value has been freed.
func (m *Manager[T]) Release(r Ref[T]) {
	m.release(r.mustIndex())
}

// Free marks the value destroyed and drops the creator's reference.
// Only the caller holding the current handle succeeds; Free reports false if
// h is stale or the value was already freed.
func (m *Manager[T]) Free(h Handle) bool {
	if h.Generation&genLive == 0 || h.Index >= m.highWater.Load() {
		m.metrics.OnStale(m.name)
		return false
	}

	sl := &m.slots[h.Index]
	if !sl.generation.CompareAndSwap(h.Generation, (h.Generation&^genLive)+genStep) {
		m.metrics.OnStale(m.name)
		return false
	}

	m.active.Add(-1)
	m.pending.Add(1)
	m.release(h.Index)
	return true
}

func (m *Manager[T]) release(idx uint32) {
	sl := &m.slots[idx]
	if sl.refs.Add(^uint32(0)) != liveBit {
		return
	}
	if sl.refs.CompareAndSwap(liveBit, 0) {
		m.destroy(idx)
	}
}

func (m *Manager[T]) destroy(idx uint32) {
	sl := &m.slots[idx]
	if m.drop != nil {
		m.drop(&sl.value)
	}
	var zero T
	sl.value = zero
	m.pending.Add(-1)

	if !m.free.Enqueue(idx) {
		// One ring slot exists per arena slot.
		panic(fmt.Errorf("%w: free list full while recycling slot %d", ErrCorrupt, idx))
	}
	m.metrics.OnDestroy(m.name)
}

// Name returns the label given with WithName.
func (m *Manager[T]) Name() string {
	return m.name
}

// Capacity returns the number of slots.
func (m *Manager[T]) Capacity() int {
	n, _ := conv.Uint32ToInt(m.capacity)
	return n
}

// HighWaterMark returns the number of slots that have ever been used.
func (m *Manager[T]) HighWaterMark() int {
	n, _ := conv.Uint32ToInt(m.highWater.Load())
	return n
}

// Stats returns an occupancy snapshot.
func (m *Manager[T]) Stats() Stats {
	return Stats{
		Capacity:      m.Capacity(),
		HighWaterMark: m.HighWaterMark(),
		Active:        int(m.active.Load()),
		Pending:       int(m.pending.Load()),
	}
}

// Close drops every value that is still alive and releases the free list.
// The Manager must not be used afterwards.
func (m *Manager[T]) Close() error {
	dropped := 0
	hw := m.highWater.Load()
	for i := range hw {
		sl := &m.slots[i]
		if sl.refs.Load()&liveBit == 0 {
			continue
		}
		if m.drop != nil {
			m.drop(&sl.value)
		}
		var zero T
		sl.value = zero
		dropped++
	}
	if m.logger != nil {
		m.logger.Debug("Arena closed", "arena", m.name, "dropped", dropped)
	}
	m.slots = nil
	return m.free.Close()
}
