// Package pool implements a slab memory pool of fixed-size blocks.
//
// # Layout
//
// A Pool serves blocks of one size. Memory comes from anonymous mappings
// ("chunks") of blockSize*BlocksPerChunk bytes, rounded to the page size. At
// most MaxChunks chunks are mapped over the lifetime of the pool, so the total
// number of blocks is bounded by the capacity passed to New.
//
// The bump cursor is packed into the 31-bit value of a spinlock:
//
//	bits  0..15  blocks remaining in the newest chunk
//	bits 17..27  number of mapped chunks
//
// and the chunk table itself is the payload of that spinlock.
//
// # Allocation
//
// Allocate first pops a previously freed block from a bounded free-list queue
// and only falls back to bumping the cursor (mapping a new chunk when the
// newest one is used up) on a miss. Deallocate pushes the block back. Blocks
// are handed out from the end of a chunk towards its start.
//
// # Failure Model
//
// Running out of chunk table slots, failing to map a chunk, or being refused by
// the memory budget are fatal: Allocate panics with an error wrapping
// ErrChunksExhausted, ErrMapFailed or ErrBudgetExceeded. Deallocate does not
// validate its argument; passing a pointer that did not come from the same pool
// is undefined behaviour. Audit can verify the free list while the pool is quiescent.
//
// Blocks live outside the Go heap. They must only hold pointer-free data.
package pool
