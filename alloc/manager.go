package alloc

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/slabkit/internal/mmap"
	"github.com/hupe1980/slabkit/internal/spin"
	"github.com/hupe1980/slabkit/pool"
)

// Manager routes allocations to size-class pools or to direct page mappings.
// All methods except Close are safe for concurrent use.
type Manager struct {
	pools [NumClasses]*pool.Pool

	// large maps the base address of every large object to its mapping.
	large *spin.RWLock[map[uintptr]*mmap.Mapping]

	acquirer pool.MemoryAcquirer
	metrics  MetricsObserver
	logger   *slog.Logger

	largeAllocs   atomic.Uint64
	largeFailures atomic.Uint64
	inPlace       atomic.Uint64
	moved         atomic.Uint64
}

// Stats is a snapshot of allocator usage.
type Stats struct {
	Classes        [NumClasses]pool.Stats
	LargeObjects   int    // Currently mapped large objects
	LargeBytes     int64  // Bytes mapped for large objects
	LargeAllocs    uint64 // Historical: successful large allocations
	LargeFailures  uint64 // Historical: large allocations that returned nil
	ReallocInPlace uint64 // Historical: reallocs that kept the pointer
	ReallocMoved   uint64 // Historical: reallocs that copied
}

// New creates a Manager with one pool per size class.
func New(optFns ...Option) (*Manager, error) {
	o := options{
		capacities: DefaultCapacities,
		metrics:    NoopMetricsObserver{},
	}
	for _, fn := range optFns {
		fn(&o)
	}

	m := &Manager{
		large:    spin.NewRWLock(make(map[uintptr]*mmap.Mapping)),
		acquirer: o.acquirer,
		metrics:  o.metrics,
		logger:   o.logger,
	}

	poolOpts := []pool.Option{
		pool.WithMetricsObserver(o.metrics),
		pool.WithLogger(o.logger),
	}
	if o.acquirer != nil {
		poolOpts = append(poolOpts, pool.WithMemoryAcquirer(o.acquirer))
	}
	if o.prefault {
		poolOpts = append(poolOpts, pool.WithPrefault())
	}

	for c := range NumClasses {
		p, err := pool.New(ClassSize(c), o.capacities[c], poolOpts...)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("alloc: class %d: %w", ClassSize(c), err)
		}
		m.pools[c] = p
	}

	return m, nil
}

// Alloc returns memory for l, or nil if a large object cannot be mapped.
// Pooled memory is not zeroed.
func (m *Manager) Alloc(l Layout) unsafe.Pointer {
	return m.alloc(l.span(), l.Align)
}

// AllocZeroed is like Alloc but the first l.Size bytes are zero.
func (m *Manager) AllocZeroed(l Layout) unsafe.Pointer {
	n := l.span()
	c := ClassOf(n)
	if c < 0 {
		// Fresh anonymous mappings are zero-filled.
		return m.allocLarge(n, l.Align)
	}
	ptr := m.pools[c].Allocate()
	if l.Size > 0 {
		clear(unsafe.Slice((*byte)(ptr), l.Size))
	}
	return ptr
}

// Dealloc releases memory obtained for l. A nil ptr is ignored.
func (m *Manager) Dealloc(ptr unsafe.Pointer, l Layout) {
	if ptr == nil {
		return
	}
	m.dealloc(ptr, l.span())
}

// Realloc resizes the allocation at ptr from l to newSize bytes (alignment unchanged).
//
// If both sizes fall in the same size class, or both need the same number of
// pages on the large path, ptr is returned unchanged. Otherwise new memory is
// obtained, min(l.Size, newSize) bytes are copied, and the old memory is
// released. If the new memory cannot be obtained, Realloc returns nil and the
// old allocation stays valid.
func (m *Manager) Realloc(ptr unsafe.Pointer, l Layout, newSize int) unsafe.Pointer {
	if ptr == nil {
		return m.Alloc(Layout{Size: newSize, Align: l.Align})
	}

	oldN := l.span()
	newN := max(newSize, l.Align)
	oldClass, newClass := ClassOf(oldN), ClassOf(newN)

	if oldClass == newClass && (oldClass >= 0 || mmap.PageAlignedSize(oldN) == mmap.PageAlignedSize(newN)) {
		m.inPlace.Add(1)
		m.metrics.OnRealloc(l.Size, newSize, false)
		return ptr
	}

	next := m.alloc(newN, l.Align)
	if next == nil {
		return nil
	}
	if n := min(l.Size, newSize); n > 0 {
		copy(unsafe.Slice((*byte)(next), n), unsafe.Slice((*byte)(ptr), n))
	}
	m.dealloc(ptr, oldN)

	m.moved.Add(1)
	m.metrics.OnRealloc(l.Size, newSize, true)
	return next
}

// UsableSize returns the number of bytes actually reserved for l.
func (m *Manager) UsableSize(l Layout) int {
	n := l.span()
	if c := ClassOf(n); c >= 0 {
		return ClassSize(c)
	}
	return mmap.PageAlignedSize(n)
}

// Pool returns the pool serving class c.
func (m *Manager) Pool(c int) *pool.Pool {
	return m.pools[c]
}

func (m *Manager) alloc(n, align int) unsafe.Pointer {
	if c := ClassOf(n); c >= 0 {
		return m.pools[c].Allocate()
	}
	return m.allocLarge(n, align)
}

func (m *Manager) dealloc(ptr unsafe.Pointer, n int) {
	if c := ClassOf(n); c >= 0 {
		m.pools[c].Deallocate(ptr)
		return
	}
	m.freeLarge(ptr)
}

func (m *Manager) allocLarge(n, align int) unsafe.Pointer {
	if align > mmap.PageSize() {
		m.largeFailures.Add(1)
		return nil
	}

	size := mmap.PageAlignedSize(n)
	if m.acquirer != nil {
		if err := m.acquirer.AcquireMemory(int64(size)); err != nil {
			m.largeFailures.Add(1)
			if m.logger != nil {
				m.logger.Warn("Large allocation refused", "bytes", size, "error", err)
			}
			return nil
		}
	}

	mp, err := mmap.MapAnon(size)
	if err != nil {
		if m.acquirer != nil {
			m.acquirer.ReleaseMemory(int64(size))
		}
		m.largeFailures.Add(1)
		if m.logger != nil {
			m.logger.Warn("Large allocation failed", "bytes", size, "error", err)
		}
		return nil
	}

	ptr := mp.Pointer()
	m.large.Write(func(large *map[uintptr]*mmap.Mapping) {
		(*large)[uintptr(ptr)] = mp
	})

	m.largeAllocs.Add(1)
	m.metrics.OnLargeAlloc(size)
	if m.logger != nil {
		m.logger.Debug("Large object mapped", "bytes", size)
	}
	return ptr
}

func (m *Manager) freeLarge(ptr unsafe.Pointer) {
	var (
		mp *mmap.Mapping
		ok bool
	)
	m.large.Write(func(large *map[uintptr]*mmap.Mapping) {
		if mp, ok = (*large)[uintptr(ptr)]; ok {
			delete(*large, uintptr(ptr))
		}
	})

	if !ok {
		if m.logger != nil {
			m.logger.Error("Dealloc of unknown large object", "ptr", fmt.Sprintf("%#x", uintptr(ptr)))
		}
		return
	}

	size := mp.Size()
	if err := mp.Close(); err != nil && m.logger != nil {
		m.logger.Error("Unmap large object", "bytes", size, "error", err)
	}
	if m.acquirer != nil {
		m.acquirer.ReleaseMemory(int64(size))
	}
	m.metrics.OnLargeFree(size)
}

// Stats returns a snapshot of allocator statistics.
func (m *Manager) Stats() Stats {
	var s Stats
	for c, p := range m.pools {
		if p != nil {
			s.Classes[c] = p.Stats()
		}
	}

	m.large.Read(func(large *map[uintptr]*mmap.Mapping) {
		s.LargeObjects = len(*large)
		for _, mp := range *large {
			s.LargeBytes += int64(mp.Size())
		}
	})

	s.LargeAllocs = m.largeAllocs.Load()
	s.LargeFailures = m.largeFailures.Load()
	s.ReallocInPlace = m.inPlace.Load()
	s.ReallocMoved = m.moved.Load()
	return s
}

// Audit checks every pool's free list. See pool.Pool.Audit.
func (m *Manager) Audit() error {
	var errs []error
	for _, p := range m.pools {
		if p == nil {
			continue
		}
		if err := p.Audit(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases every pool and every large object.
// Memory obtained from the Manager is invalid afterwards.
func (m *Manager) Close() error {
	var errs []error
	for c, p := range m.pools {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
		m.pools[c] = nil
	}

	m.large.Write(func(large *map[uintptr]*mmap.Mapping) {
		for addr, mp := range *large {
			size := mp.Size()
			if err := mp.Close(); err != nil {
				errs = append(errs, err)
			}
			if m.acquirer != nil {
				m.acquirer.ReleaseMemory(int64(size))
			}
			delete(*large, addr)
		}
	})

	return errors.Join(errs...)
}
