// Package slabkit provides off-heap memory building blocks for Go programs that
// manage large numbers of small, fixed-size objects.
//
// The toolkit is layered:
//
//   - queue: bounded lock-based MPMC free-list queues backed by anonymous mappings
//   - pool: slab pools handing out blocks of one power-of-two size
//   - alloc: a size-class allocator over six pools plus direct page mappings
//   - arena: generational handle arenas, single-owner (Store) and thread-safe (Manager)
//   - resource: memory budget, worker limit and operation rate limit
//
// # Quick Start
//
// A Runtime wires an allocator to a memory budget, a logger and a metrics
// collector:
//
//	rt, err := slabkit.New(
//	    slabkit.WithMemoryLimit(256<<20),
//	    slabkit.WithLogger(slabkit.NewTextLogger(slog.LevelInfo)),
//	)
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	p := rt.Alloc().Alloc(alloc.MustLayout(128, 8))
//	defer rt.Alloc().Dealloc(p, alloc.MustLayout(128, 8))
//
// Arenas built from the runtime share its logger and metrics:
//
//	sessions, err := slabkit.NewArena[Session](rt, 1<<16, arena.WithName("sessions"))
//	h, ok := sessions.Store(Session{ID: 42})
//	ref, ok := sessions.Retain(h)
//	defer sessions.Release(ref)
//
// # Handles
//
// A Handle is a (slot index, generation) pair. It stays cheap to copy and never
// keeps a value alive. Retain upgrades a handle to a counted Ref, and fails once
// the value has been freed, even if the slot was reused since.
//
// # Memory
//
// Pools and large objects live outside the Go heap. They must only hold data
// without Go pointers: the garbage collector does not scan them.
//
// There is no global allocator. Go programs cannot replace the runtime's
// allocator, so every allocator is an explicitly constructed value.
package slabkit
