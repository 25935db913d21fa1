package arena

import (
	"iter"
	"log/slog"

	"github.com/hupe1980/slabkit/internal/conv"
)

// Generation bits of the single-owner store.
const (
	storeInitialized = uint32(1) << 0
	storeDestroyed   = uint32(1) << 1
	storeStep        = uint32(1) << 2

	nullSlot = ^uint32(0)
)

type storeSlot[T any] struct {
	value      T
	generation uint32
	refs       uint32
	next       uint32 // free-list link, nullSlot when not free-listed
}

// Store is the single-owner generational arena.
//
// A Store is not safe for concurrent use. All Refs are borrowed within the
// owner's exclusive access window.
type Store[T any] struct {
	slots     []storeSlot[T]
	highWater uint32
	freeHead  uint32
	active    uint32
	destroyed uint32

	name    string
	drop    func(*T)
	logger  *slog.Logger
	metrics MetricsObserver
}

// NewStore creates a Store with room for capacity values.
func NewStore[T any](capacity int, optFns ...Option) (*Store[T], error) {
	o, drop, err := buildOptions[T](capacity, optFns)
	if err != nil {
		return nil, err
	}

	s := &Store[T]{
		slots:    make([]storeSlot[T], capacity),
		freeHead: nullSlot,
		name:     o.name,
		drop:     drop,
		logger:   o.logger,
		metrics:  o.metrics,
	}
	return s, nil
}

// Store places v in a free slot and returns its handle.
// It reports false when every slot is in use.
func (s *Store[T]) Store(v T) (Handle, bool) {
	var idx uint32
	switch {
	case s.freeHead != nullSlot:
		idx = s.freeHead
		s.freeHead = s.slots[idx].next
	case int(s.highWater) < len(s.slots):
		idx = s.highWater
		s.highWater++
	default:
		return Handle{}, false
	}

	sl := &s.slots[idx]
	sl.value = v
	sl.generation |= storeInitialized
	sl.refs = 1 // held on behalf of the creator until Free
	sl.next = nullSlot
	s.active++

	s.metrics.OnStore(s.name)
	return Handle{Index: idx, Generation: sl.generation}, true
}

// Retain redeems h for a reference. It reports false if h is stale or was freed.
func (s *Store[T]) Retain(h Handle) (Ref[T], bool) {
	if !s.current(h) {
		s.metrics.OnStale(s.name)
		return Ref[T]{}, false
	}
	s.slots[h.Index].refs++
	return newRef[T](h.Index), true
}

// Contains reports whether h still refers to a live, not yet freed value.
func (s *Store[T]) Contains(h Handle) bool {
	return s.current(h)
}

func (s *Store[T]) current(h Handle) bool {
	if h.Index >= s.highWater || h.Generation&(storeInitialized|storeDestroyed) != storeInitialized {
		return false
	}
	return s.slots[h.Index].generation == h.Generation
}

// Get returns the value r refers to. The pointer is valid until r is released.
func (s *Store[T]) Get(r Ref[T]) *T {
	return &s.slots[r.mustIndex()].value
}

// Clone adds a reference to the value r refers to.
func (s *Store[T]) Clone(r Ref[T]) Ref[T] {
	s.slots[r.mustIndex()].refs++
	return r
}

// Handle returns the handle of the value r refers to.
// If the value has been freed, the handle no longer validates.
func (s *Store[T]) Handle(r Ref[T]) Handle {
	idx := r.mustIndex()
	return Handle{Index: idx, Generation: s.slots[idx].generation}
}

// IsDestroyed reports whether the value r refers to has been freed.
func (s *Store[T]) IsDestroyed(r Ref[T]) bool {
	return s.slots[r.mustIndex()].generation&storeDestroyed != 0
}

// Release gives back r. The value is dropped when this was the last
// reference and the value has been freed.
func (s *Store[T]) Release(r Ref[T]) {
	s.release(r.mustIndex())
}

// Free marks the value destroyed and drops the creator's reference.
// It reports false if h is stale or was already freed.
func (s *Store[T]) Free(h Handle) bool {
	if !s.current(h) {
		s.metrics.OnStale(s.name)
		return false
	}
	s.markDestroyed(h.Index)
	return true
}

// FreeRef marks the value r refers to as destroyed (if it is not already) and
// releases r. It reports whether this call marked the value.
func (s *Store[T]) FreeRef(r Ref[T]) bool {
	idx := r.mustIndex()
	marked := false
	if s.slots[idx].generation&storeDestroyed == 0 {
		s.markDestroyed(idx)
		marked = true
	}
	s.release(idx)
	return marked
}

func (s *Store[T]) markDestroyed(idx uint32) {
	s.slots[idx].generation |= storeDestroyed
	s.active--
	s.destroyed++
	s.release(idx)
}

func (s *Store[T]) release(idx uint32) {
	sl := &s.slots[idx]
	if sl.refs == 0 {
		panic("arena: release of unreferenced slot")
	}
	sl.refs--
	if sl.refs == 0 && sl.generation&storeDestroyed != 0 {
		s.destroy(idx)
	}
}

func (s *Store[T]) destroy(idx uint32) {
	sl := &s.slots[idx]
	sl.generation = (sl.generation &^ (storeInitialized | storeDestroyed)) + storeStep
	if s.drop != nil {
		s.drop(&sl.value)
	}
	var zero T
	sl.value = zero
	sl.next = s.freeHead
	s.freeHead = idx
	s.destroyed--

	s.metrics.OnDestroy(s.name)
}

// Name returns the label given with WithName.
func (s *Store[T]) Name() string {
	return s.name
}

// Capacity returns the number of slots.
func (s *Store[T]) Capacity() int {
	return len(s.slots)
}

// HighWaterMark returns the number of slots that have ever been used.
func (s *Store[T]) HighWaterMark() int {
	n, _ := conv.Uint32ToInt(s.highWater)
	return n
}

// Active returns the number of stored values that have not been freed.
func (s *Store[T]) Active() int {
	n, _ := conv.Uint32ToInt(s.active)
	return n
}

// Destroyed returns the number of freed values still kept alive by references.
func (s *Store[T]) Destroyed() int {
	n, _ := conv.Uint32ToInt(s.destroyed)
	return n
}

// Available returns the number of values that can still be stored.
func (s *Store[T]) Available() int {
	return len(s.slots) - s.Active() - s.Destroyed()
}

// All yields the handle and value of every stored value that has not been freed,
// in slot order. The Store must not be modified during iteration.
func (s *Store[T]) All() iter.Seq2[Handle, *T] {
	return func(yield func(Handle, *T) bool) {
		for i := range s.highWater {
			sl := &s.slots[i]
			if sl.generation&(storeInitialized|storeDestroyed) != storeInitialized {
				continue
			}
			if !yield(Handle{Index: i, Generation: sl.generation}, &sl.value) {
				return
			}
		}
	}
}

// Clear drops every value, including freed values with outstanding references,
// and makes all slots available again. Existing handles go stale and existing
// Refs must not be used afterwards.
func (s *Store[T]) Clear() {
	dropped := 0
	s.freeHead = nullSlot
	for i := s.highWater; i > 0; i-- {
		idx := i - 1
		sl := &s.slots[idx]
		if sl.generation&storeInitialized != 0 {
			if s.drop != nil {
				s.drop(&sl.value)
			}
			var zero T
			sl.value = zero
			sl.generation = (sl.generation &^ (storeInitialized | storeDestroyed)) + storeStep
			dropped++
			s.metrics.OnDestroy(s.name)
		}
		sl.refs = 0
		sl.next = s.freeHead
		s.freeHead = idx
	}
	s.active = 0
	s.destroyed = 0

	if s.logger != nil {
		s.logger.Debug("Arena cleared", "arena", s.name, "dropped", dropped)
	}
}

// Close drops every value that is still alive, including freed values with
// outstanding references. The Store must not be used afterwards.
func (s *Store[T]) Close() error {
	dropped := 0
	for i := range s.highWater {
		sl := &s.slots[i]
		if sl.generation&storeInitialized == 0 {
			continue
		}
		if s.drop != nil {
			s.drop(&sl.value)
		}
		dropped++
	}
	if s.logger != nil {
		s.logger.Debug("Arena closed", "arena", s.name, "dropped", dropped)
	}
	s.slots = nil
	s.highWater = 0
	s.freeHead = nullSlot
	s.active = 0
	s.destroyed = 0
	return nil
}
