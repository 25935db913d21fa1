package pool

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/slabkit/internal/conv"
	"github.com/hupe1980/slabkit/internal/mmap"
	"github.com/hupe1980/slabkit/internal/spin"
	"github.com/hupe1980/slabkit/queue"
)

const (
	// MaxChunksShift is log2(MaxChunks).
	MaxChunksShift = 10
	// MaxChunks is the size of the chunk table.
	MaxChunks = 1 << MaxChunksShift
	// MaxBlocksPerChunk is the largest number of blocks a single chunk can hold.
	MaxBlocksPerChunk = 1 << 16

	blockMask  = MaxBlocksPerChunk - 1
	chunkShift = 17
)

type chunkTable [MaxChunks]*mmap.Mapping

// Pool is a slab allocator for blocks of a single size.
// All methods except Clear, Close and Audit are safe for concurrent use.
type Pool struct {
	// cursor packs (remaining | chunks<<chunkShift); the payload is the chunk table.
	cursor spin.Lock[chunkTable]
	free   *queue.Queue

	blockSize      int
	blocksPerChunk uint32
	chunkBytes     int

	acquirer MemoryAcquirer
	metrics  MetricsObserver
	logger   *slog.Logger
	prefault bool

	bumped   atomic.Uint64
	reused   atomic.Uint64
	released atomic.Uint64
}

// Stats is a snapshot of pool usage.
type Stats struct {
	BlockSize      int    // Size of every block in bytes
	BlocksPerChunk int    // Blocks carved from one chunk
	Chunks         int    // Currently mapped chunks
	BytesMapped    int64  // Chunks * page-aligned chunk size
	BumpAllocs     uint64 // Historical: blocks carved from chunks
	Reuses         uint64 // Historical: allocations served by the free list
	Deallocs       uint64 // Historical: blocks returned to the free list
}

// New creates a Pool of blockSize-byte blocks that can hand out at most capacity blocks.
//
// blockSize must be a power of two. capacity must be a power of two of at least
// MaxChunks; each chunk holds capacity/MaxChunks blocks. The free list is sized
// to capacity so every block can be returned.
func New(blockSize, capacity int, opts ...Option) (*Pool, error) {
	if blockSize <= 0 || blockSize&(blockSize-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}
	if capacity < MaxChunks || capacity > MaxChunks*MaxBlocksPerChunk || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	blocksPerChunk, err := conv.IntToUint32(capacity >> MaxChunksShift)
	if err != nil {
		return nil, err
	}

	free, err := queue.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("pool: create free list: %w", err)
	}

	p := &Pool{
		free:           free,
		blockSize:      blockSize,
		blocksPerChunk: blocksPerChunk,
		chunkBytes:     mmap.PageAlignedSize(blockSize * int(blocksPerChunk)),
		metrics:        NoopMetricsObserver{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// BlockSize returns the block size in bytes.
func (p *Pool) BlockSize() int {
	return p.blockSize
}

// Capacity returns the maximum number of blocks the pool can hand out.
func (p *Pool) Capacity() int {
	return int(p.blocksPerChunk) * MaxChunks
}

// Allocate returns a block of BlockSize bytes. The block is not zeroed.
// It panics if a new chunk is needed and cannot be obtained.
func (p *Pool) Allocate() unsafe.Pointer {
	if addr, ok := p.free.Dequeue(); ok {
		p.reused.Add(1)
		return unsafe.Pointer(uintptr(addr)) //nolint:govet // off-heap address from the free list
	}
	return p.bump()
}

// Deallocate returns a block to the pool.
//
// ptr must have been returned by Allocate on this pool and not been deallocated
// since. This is not checked.
func (p *Pool) Deallocate(ptr unsafe.Pointer) {
	if !p.free.Enqueue(uint64(uintptr(ptr))) {
		p.fatal(ErrFreeListOverflow, "free_list_cap", p.free.Cap())
	}
	p.released.Add(1)
}

func (p *Pool) bump() unsafe.Pointer {
	ptr, mapped := p.bumpLocked()
	p.bumped.Add(1)
	if mapped {
		p.metrics.OnChunkMapped(p.blockSize, p.chunkBytes)
		if p.logger != nil {
			p.logger.Debug("Pool chunk mapped", "block_size", p.blockSize, "bytes", p.chunkBytes)
		}
	}
	return ptr
}

// bumpLocked carves the next block under the cursor lock and reports whether
// a chunk had to be mapped for it.
func (p *Pool) bumpLocked() (unsafe.Pointer, bool) {
	g := p.cursor.Lock()
	defer g.Unlock()

	state := g.Read()
	remaining := state & blockMask
	chunks := state >> chunkShift

	mapped := false
	if remaining == 0 {
		if chunks >= MaxChunks {
			p.fatal(ErrChunksExhausted, "chunks", chunks)
		}
		m, err := p.mapChunk()
		if err != nil {
			p.fatal(err, "chunks", chunks)
		}
		g.Payload()[chunks] = m
		remaining = p.blocksPerChunk
		chunks++
		mapped = true
	}

	remaining--
	base := g.Payload()[chunks-1].Pointer()
	g.Write(remaining | chunks<<chunkShift)

	return unsafe.Add(base, uintptr(remaining)*uintptr(p.blockSize)), mapped
}

func (p *Pool) mapChunk() (*mmap.Mapping, error) {
	if p.acquirer != nil {
		if err := p.acquirer.AcquireMemory(int64(p.chunkBytes)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBudgetExceeded, err)
		}
	}

	m, err := mmap.MapAnon(p.chunkBytes)
	if err != nil {
		if p.acquirer != nil {
			p.acquirer.ReleaseMemory(int64(p.chunkBytes))
		}
		return nil, fmt.Errorf("%w: %w", ErrMapFailed, err)
	}

	if p.prefault {
		_ = m.Advise(mmap.AccessWillNeed)
	}
	return m, nil
}

func (p *Pool) fatal(err error, args ...any) {
	if p.logger != nil {
		p.logger.Error("Pool exhausted", append([]any{"block_size", p.blockSize, "error", err}, args...)...)
	}
	panic(fmt.Errorf("pool(%d): %w", p.blockSize, err))
}

// Stats returns a snapshot of the pool statistics.
func (p *Pool) Stats() Stats {
	g := p.cursor.Lock()
	chunks := int(g.Read() >> chunkShift)
	g.Unlock()

	return Stats{
		BlockSize:      p.blockSize,
		BlocksPerChunk: int(p.blocksPerChunk),
		Chunks:         chunks,
		BytesMapped:    int64(chunks) * int64(p.chunkBytes),
		BumpAllocs:     p.bumped.Load(),
		Reuses:         p.reused.Load(),
		Deallocs:       p.released.Load(),
	}
}

// Clear unmaps every chunk and empties the free list.
// Every block handed out before Clear becomes invalid. Clear must not run
// concurrently with other methods.
func (p *Pool) Clear() {
	p.free.Clear()

	g := p.cursor.Lock()
	chunks := g.Read() >> chunkShift
	table := g.Payload()
	for i := range chunks {
		if table[i] != nil {
			_ = table[i].Close()
			table[i] = nil
			if p.acquirer != nil {
				p.acquirer.ReleaseMemory(int64(p.chunkBytes))
			}
		}
	}
	g.Write(0)
	g.Unlock()
}

// Close releases all chunks and the free list. The pool must not be used afterwards.
func (p *Pool) Close() error {
	p.Clear()
	return p.free.Close()
}
