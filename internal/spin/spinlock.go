package spin

import "sync/atomic"

const (
	heldBit = uint32(1) << 31

	// ValueMask selects the caller value bits of the lock word.
	ValueMask = heldBit - 1

	// yieldAfter is the number of failed attempts before the waiter yields.
	yieldAfter = 3
)

// Lock is a spinlock carrying a 31-bit value and a payload of type T.
//
// The zero value is an unlocked lock with value 0 and a zero payload.
// A Lock must not be copied after first use.
type Lock[T any] struct {
	state   atomic.Uint32
	payload T
}

// IndexLock is a Lock without payload, used purely for its 31-bit value.
type IndexLock = Lock[struct{}]

// NewLock creates an unlocked Lock holding value (truncated to 31 bits) and payload.
func NewLock[T any](value uint32, payload T) *Lock[T] {
	l := &Lock[T]{payload: payload}
	l.state.Store(value & ValueMask)
	return l
}

// Lock spins until the lock is acquired and returns the guard for the critical section.
func (l *Lock[T]) Lock() Guard[T] {
	failures := 0
	cur := l.state.Load()
	for {
		if cur&heldBit == 0 {
			if l.state.CompareAndSwap(cur, cur|heldBit) {
				return Guard[T]{lock: l, value: cur}
			}
		}

		failures = backoff(failures)
		cur = l.state.Load()
	}
}

// TryLock makes a single acquisition attempt.
// It reports false without spinning if the lock is held or the attempt loses a race.
func (l *Lock[T]) TryLock() (Guard[T], bool) {
	cur := l.state.Load()
	if cur&heldBit != 0 {
		return Guard[T]{}, false
	}
	if !l.state.CompareAndSwap(cur, cur|heldBit) {
		return Guard[T]{}, false
	}
	return Guard[T]{lock: l, value: cur}, true
}

// Do runs fn while holding the lock. The lock is released even if fn panics.
func (l *Lock[T]) Do(fn func(g *Guard[T])) {
	g := l.Lock()
	defer g.Unlock()
	fn(&g)
}

// Locked reports whether the lock is currently held. The answer may be stale
// by the time the caller looks at it.
func (l *Lock[T]) Locked() bool {
	return l.state.Load()&heldBit != 0
}

// Value returns the stored value without locking.
// Callers must have exclusive access to the lock (construction or teardown).
func (l *Lock[T]) Value() uint32 {
	return l.state.Load() & ValueMask
}

// SetValue stores v without locking.
// Callers must have exclusive access to the lock (construction or teardown).
func (l *Lock[T]) SetValue(v uint32) {
	l.state.Store(v & ValueMask)
}

// Guard represents a held Lock.
//
// A Guard is released exactly once with Unlock. Copies of a Guard share the
// lock but not the pending value; only one copy may be unlocked.
type Guard[T any] struct {
	lock  *Lock[T]
	value uint32
}

// Read returns the value as it was at acquisition, or as last written through this guard.
func (g *Guard[T]) Read() uint32 {
	return g.value
}

// Write sets the value that Unlock will publish. Bits above 31 are discarded.
func (g *Guard[T]) Write(v uint32) {
	g.value = v & ValueMask
}

// Payload returns the protected payload. The pointer must not outlive the guard.
func (g *Guard[T]) Payload() *T {
	return &g.lock.payload
}

// Unlock publishes the value and releases the lock.
// Calling Unlock twice on the same guard panics.
func (g *Guard[T]) Unlock() {
	l := g.lock
	if l == nil {
		panic("spin: unlock of unheld guard")
	}
	g.lock = nil
	l.state.Store(g.value)
}
