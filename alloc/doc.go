// Package alloc implements a size-class allocator on top of slab pools.
//
// A Manager owns one pool.Pool per size class (64, 128, 256, 512, 1024 and
// 2048 bytes). A request for Layout{Size, Align} is served from the smallest
// class that holds max(Size, Align) bytes; anything larger is mapped directly
// from the operating system, page aligned, and never pooled.
//
//	m, err := alloc.New()
//	if err != nil { ... }
//	defer m.Close()
//
//	l := alloc.MustLayout(100, 16)
//	p := m.Alloc(l)            // 128-byte class
//	p = m.Realloc(p, l, 3000)  // moves to the large path, first 100 bytes kept
//	m.Dealloc(p, alloc.MustLayout(3000, 16))
//
// Like any low-level allocator the caller supplies the original Layout on
// Dealloc and Realloc. Memory returned by the Manager lives outside the Go heap
// and must only hold pointer-free data.
//
// # Failure Model
//
// Pool exhaustion is fatal (the pool panics). The large-object path returns nil
// when the mapping fails, the memory budget refuses it, or the alignment exceeds
// the page size.
package alloc
