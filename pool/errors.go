package pool

import "errors"

var (
	// ErrInvalidBlockSize is returned when the block size is not a power of two.
	ErrInvalidBlockSize = errors.New("pool: block size must be a power of two")
	// ErrInvalidCapacity is returned when the capacity is not a power of two in
	// [MaxChunks, MaxChunks*MaxBlocksPerChunk].
	ErrInvalidCapacity = errors.New("pool: invalid capacity")
	// ErrChunksExhausted is the fatal error raised when the chunk table is full.
	ErrChunksExhausted = errors.New("pool: max chunks exceeded")
	// ErrMapFailed is the fatal error raised when a chunk cannot be mapped.
	ErrMapFailed = errors.New("pool: chunk mapping failed")
	// ErrBudgetExceeded is the fatal error raised when the memory acquirer refuses a chunk.
	ErrBudgetExceeded = errors.New("pool: memory budget exceeded")
	// ErrFreeListOverflow is raised when a block is returned to a full free list.
	// It means more blocks were deallocated than allocated.
	ErrFreeListOverflow = errors.New("pool: free list overflow")
	// ErrCorrupt is returned by Audit when the free list is inconsistent.
	ErrCorrupt = errors.New("pool: free list corrupt")
)
