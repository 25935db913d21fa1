// Package mmap provides anonymous memory mappings for off-heap allocation.
//
// # Overview
//
// Every mapping is anonymous, private and read/write, sized to a multiple of the
// system page size, and zero-filled by the operating system. Mappings live
// outside the Go heap, so the garbage collector never scans or moves them.
// Callers must not store Go pointers inside mapped memory.
//
// # Usage
//
//	m, err := mmap.MapAnon(64 * 1024)
//	if err != nil { ... }
//	defer m.Close()
//
//	base := m.Pointer()   // stable address for pointer arithmetic
//	data := m.Bytes()     // same memory as a byte slice
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE, madvise(2) for hints
//   - Windows: VirtualAlloc/VirtualFree (Advise is a no-op)
//
// # Thread Safety
//
// Close is idempotent and protected by atomic operations. Callers must ensure
// no goroutine touches the memory after Close returns.
package mmap
