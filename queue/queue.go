package queue

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/hupe1980/slabkit/internal/mmap"
	"github.com/hupe1980/slabkit/internal/spin"
)

// Queue is a bounded MPMC queue of non-zero uint64 values.
type Queue struct {
	_    cpu.CacheLinePad
	head spin.IndexLock
	_    cpu.CacheLinePad
	tail spin.IndexLock
	_    cpu.CacheLinePad

	mask    uint32
	slots   []atomic.Uint64
	mapping *mmap.Mapping
}

// New creates a Queue. capacity must be a power of two (see RoundCapacity).
func New(capacity int) (*Queue, error) {
	if !validCapacity(capacity) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	m, err := mmap.MapAnon(capacity * 8)
	if err != nil {
		return nil, fmt.Errorf("queue: map ring buffer: %w", err)
	}

	return &Queue{
		mask:    uint32(capacity - 1), //nolint:gosec // capacity <= MaxCapacity
		slots:   unsafe.Slice((*atomic.Uint64)(m.Pointer()), capacity),
		mapping: m,
	}, nil
}

// Enqueue stores v at the tail. It reports false if the queue is full.
// Enqueuing the sentinel 0 panics.
func (q *Queue) Enqueue(v uint64) bool {
	if v == 0 {
		panic("queue: enqueue of empty sentinel")
	}

	g := q.tail.Lock()
	pos := g.Read()
	slot := &q.slots[pos]
	if slot.Load() != 0 {
		g.Unlock()
		return false
	}
	slot.Store(v)
	g.Write((pos + 1) & q.mask)
	g.Unlock()
	return true
}

// Dequeue removes a value from the head. It reports false if the queue is empty.
func (q *Queue) Dequeue() (uint64, bool) {
	g := q.head.Lock()
	pos := g.Read()
	slot := &q.slots[pos]
	v := slot.Load()
	if v == 0 {
		g.Unlock()
		return 0, false
	}
	slot.Store(0)
	g.Write((pos + 1) & q.mask)
	g.Unlock()
	return v, true
}

// Clear drops every queued value and rewinds head and tail.
func (q *Queue) Clear() {
	head := q.head.Lock()
	tail := q.tail.Lock()
	for i := range q.slots {
		q.slots[i].Store(0)
	}
	tail.Write(0)
	head.Write(0)
	tail.Unlock()
	head.Unlock()
}

// Range calls fn for every queued value until fn returns false.
// Range does not lock; the result is only exact when the queue is quiescent.
func (q *Queue) Range(fn func(v uint64) bool) {
	for i := range q.slots {
		if v := q.slots[i].Load(); v != 0 {
			if !fn(v) {
				return
			}
		}
	}
}

// Len counts the queued values. Like Range, it is exact only when quiescent.
func (q *Queue) Len() int {
	n := 0
	q.Range(func(uint64) bool {
		n++
		return true
	})
	return n
}

// Cap returns the capacity of the queue.
func (q *Queue) Cap() int {
	return len(q.slots)
}

// Close unmaps the ring buffer.
func (q *Queue) Close() error {
	q.slots = nil
	return q.mapping.Close()
}
