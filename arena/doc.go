// Package arena provides generational handle arenas.
//
// An arena is a fixed-capacity array of slots. Storing a value returns a
// Handle, a plain {Index, Generation} pair that can be kept anywhere and
// compared by value. Redeeming a Handle with Retain yields a Ref, which counts
// as one reference to the slot and must be given back with Release.
//
// Every slot carries a generation counter. Freeing a value advances the
// generation, so handles issued before the free stop validating even after the
// slot is reused: a stale handle is detected, never silently aliased.
//
// Destruction is deferred. Free marks the value destroyed and drops the
// reference held on behalf of the creator; the value itself is dropped (the
// optional drop hook runs and the slot is zeroed) only when the last Ref is
// released. Only then does the index go back on the free list.
//
// # Variants
//
//   - Store is the single-owner variant. It performs no synchronization and
//     must be confined to one goroutine (or guarded externally).
//   - Manager is the thread-safe variant. Generations and reference counts are
//     atomics, free slots circulate through a queue.Queue32, and Free only
//     succeeds for the goroutine whose handle is still current.
//
// # Example
//
//	m, _ := arena.NewManager[Session](1024, arena.WithDrop(func(s *Session) { s.Close() }))
//	h, ok := m.Store(Session{ID: 1})
//	ref, ok := m.Retain(h)
//	m.Get(ref).Touch()
//	m.Release(ref)
//	m.Free(h)
//
// The arena arbitrates lifetimes, not access: concurrent mutation of a value
// through several Refs must be synchronized by the caller.
package arena
