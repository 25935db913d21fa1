package queue

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/hupe1980/slabkit/internal/mmap"
	"github.com/hupe1980/slabkit/internal/spin"
)

// Empty32 is the empty sentinel of Queue32.
const Empty32 = ^uint32(0)

// Queue32 is a bounded MPMC queue of uint32 values other than Empty32.
type Queue32 struct {
	_    cpu.CacheLinePad
	head spin.IndexLock
	_    cpu.CacheLinePad
	tail spin.IndexLock
	_    cpu.CacheLinePad

	mask    uint32
	slots   []atomic.Uint32
	mapping *mmap.Mapping
}

// New32 creates a Queue32. capacity must be a power of two (see RoundCapacity).
func New32(capacity int) (*Queue32, error) {
	if !validCapacity(capacity) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	m, err := mmap.MapAnon(capacity * 4)
	if err != nil {
		return nil, fmt.Errorf("queue: map ring buffer: %w", err)
	}

	q := &Queue32{
		mask:    uint32(capacity - 1), //nolint:gosec // capacity <= MaxCapacity
		slots:   unsafe.Slice((*atomic.Uint32)(m.Pointer()), capacity),
		mapping: m,
	}
	for i := range q.slots {
		q.slots[i].Store(Empty32)
	}
	return q, nil
}

// Enqueue stores v at the tail. It reports false if the queue is full.
// Enqueuing Empty32 panics.
func (q *Queue32) Enqueue(v uint32) bool {
	if v == Empty32 {
		panic("queue: enqueue of empty sentinel")
	}

	g := q.tail.Lock()
	pos := g.Read()
	slot := &q.slots[pos]
	if slot.Load() != Empty32 {
		g.Unlock()
		return false
	}
	slot.Store(v)
	g.Write((pos + 1) & q.mask)
	g.Unlock()
	return true
}

// Dequeue removes a value from the head. It reports false if the queue is empty.
func (q *Queue32) Dequeue() (uint32, bool) {
	g := q.head.Lock()
	pos := g.Read()
	slot := &q.slots[pos]
	v := slot.Load()
	if v == Empty32 {
		g.Unlock()
		return 0, false
	}
	slot.Store(Empty32)
	g.Write((pos + 1) & q.mask)
	g.Unlock()
	return v, true
}

// Clear drops every queued value and rewinds head and tail.
func (q *Queue32) Clear() {
	head := q.head.Lock()
	tail := q.tail.Lock()
	for i := range q.slots {
		q.slots[i].Store(Empty32)
	}
	tail.Write(0)
	head.Write(0)
	tail.Unlock()
	head.Unlock()
}

// Range calls fn for every queued value until fn returns false.
// Range does not lock; the result is only exact when the queue is quiescent.
func (q *Queue32) Range(fn func(v uint32) bool) {
	for i := range q.slots {
		if v := q.slots[i].Load(); v != Empty32 {
			if !fn(v) {
				return
			}
		}
	}
}

// Cap returns the capacity of the queue.
func (q *Queue32) Cap() int {
	return len(q.slots)
}

// Close unmaps the ring buffer.
func (q *Queue32) Close() error {
	q.slots = nil
	return q.mapping.Close()
}
