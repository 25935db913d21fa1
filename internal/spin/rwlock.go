package spin

import (
	"runtime"
	"sync/atomic"
)

const (
	writeLocked  = uint32(1) << 31
	writeRequest = uint32(1) << 30
)

// RWLock is a writer-preferring reader/writer spinlock guarding a payload of type T.
//
// Bit 31 of the state marks a held write lock, bit 30 a pending write request
// and the remaining bits count active readers. New readers back off while a
// request is pending, so a writer only waits for readers already inside.
//
// The zero value is an unlocked RWLock with a zero payload.
// An RWLock must not be copied after first use.
type RWLock[T any] struct {
	state   atomic.Uint32
	payload T
}

// NewRWLock creates an unlocked RWLock guarding payload.
func NewRWLock[T any](payload T) *RWLock[T] {
	return &RWLock[T]{payload: payload}
}

// RLock acquires a read lock.
func (rw *RWLock[T]) RLock() ReadGuard[T] {
	failures := 0
	for {
		cur := rw.state.Load()
		if cur < writeRequest && rw.state.CompareAndSwap(cur, cur+1) {
			return ReadGuard[T]{lock: rw}
		}
		failures = backoff(failures)
	}
}

// TryRLock acquires a read lock if no writer holds or requests the lock.
func (rw *RWLock[T]) TryRLock() (ReadGuard[T], bool) {
	cur := rw.state.Load()
	if cur < writeRequest && rw.state.CompareAndSwap(cur, cur+1) {
		return ReadGuard[T]{lock: rw}, true
	}
	return ReadGuard[T]{}, false
}

// Lock acquires the write lock.
func (rw *RWLock[T]) Lock() WriteGuard[T] {
	rw.acquireWrite()
	return WriteGuard[T]{lock: rw}
}

// TryLock acquires the write lock only if a request is pending and no reader is active.
// Callers typically pair it with MarkWriteRequest.
func (rw *RWLock[T]) TryLock() (WriteGuard[T], bool) {
	if rw.state.CompareAndSwap(writeRequest, writeLocked) {
		return WriteGuard[T]{lock: rw}, true
	}
	return WriteGuard[T]{}, false
}

// Read runs fn with shared access to the payload. The lock is released even if fn panics.
func (rw *RWLock[T]) Read(fn func(p *T)) {
	g := rw.RLock()
	defer g.Unlock()
	fn(g.Payload())
}

// Write runs fn with exclusive access to the payload. The lock is released even if fn panics.
func (rw *RWLock[T]) Write(fn func(p *T)) {
	g := rw.Lock()
	defer g.Unlock()
	fn(g.Payload())
}

// MarkWriteRequest announces a pending writer, blocking new readers.
func (rw *RWLock[T]) MarkWriteRequest() {
	rw.state.Or(writeRequest)
}

// UnmarkWriteRequest withdraws a pending write request.
func (rw *RWLock[T]) UnmarkWriteRequest() {
	rw.state.And(^writeRequest)
}

func (rw *RWLock[T]) acquireWrite() {
	failures := 0
	for {
		// Re-request every round: the previous writer's Unlock clears all flags.
		old := rw.state.Or(writeRequest)
		if old|writeRequest == writeRequest && rw.state.CompareAndSwap(writeRequest, writeLocked) {
			return
		}
		failures = backoff(failures)
	}
}

// ReadGuard represents a held read lock.
type ReadGuard[T any] struct {
	lock *RWLock[T]
}

// Payload returns the protected payload. It must only be read, and the
// pointer must not outlive the guard.
func (g *ReadGuard[T]) Payload() *T {
	return &g.lock.payload
}

// Unlock releases the read lock. Calling Unlock twice on the same guard panics.
func (g *ReadGuard[T]) Unlock() {
	l := g.lock
	if l == nil {
		panic("spin: unlock of unheld read guard")
	}
	g.lock = nil
	l.state.Add(^uint32(0))
}

// Upgrade converts the read lock into the write lock.
// The request bit is raised before the read lock is dropped so no new reader slips in.
func (g *ReadGuard[T]) Upgrade() WriteGuard[T] {
	l := g.lock
	l.state.Or(writeRequest)
	g.Unlock()
	l.acquireWrite()
	return WriteGuard[T]{lock: l}
}

// WriteGuard represents a held write lock.
type WriteGuard[T any] struct {
	lock *RWLock[T]
}

// Payload returns the protected payload. The pointer must not outlive the guard.
func (g *WriteGuard[T]) Payload() *T {
	return &g.lock.payload
}

// Unlock releases the write lock and clears any pending request.
func (g *WriteGuard[T]) Unlock() {
	l := g.lock
	if l == nil {
		panic("spin: unlock of unheld write guard")
	}
	g.lock = nil
	l.state.Store(0)
}

func backoff(failures int) int {
	failures++
	if failures >= yieldAfter {
		runtime.Gosched()
		return 0
	}
	return failures
}
