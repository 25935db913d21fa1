// Package spin provides spinlocks for very short critical sections.
//
// # Payload Spinlock
//
// Lock packs a held bit and a 31-bit caller value into a single atomic word and
// guards an optional payload of type T. Acquiring the lock returns a Guard that
// exposes the value (Read/Write) and the payload (Payload); Unlock publishes the
// possibly updated value and releases the lock with a single atomic store.
//
//	var l spin.IndexLock
//	g := l.Lock()
//	next := g.Read() + 1
//	g.Write(next)
//	g.Unlock()
//
// The 31-bit value is typically an index or a packed counter, which lets a
// structure keep its hottest metadata in the lock word itself.
//
// # Read/Write Spinlock
//
// RWLock is a writer-preferring reader/writer spinlock: once a writer has
// announced itself, new readers wait until the writer is done.
//
// # Spin Policy
//
// Waiters retry the compare-and-swap a few times and then call runtime.Gosched.
// Spinlocks are only appropriate when the critical section is a handful of
// instructions and never blocks.
package spin
