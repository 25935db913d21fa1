package pool

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

type chunkSpan struct {
	origin uintptr // chunk base, used for block alignment
	start  uintptr // first block ever handed out
	end    uintptr // one past the last block
}

// Audit verifies the free list while the pool is quiescent.
//
// Every free-listed block must lie inside a mapped chunk, in the part of the
// chunk that the bump cursor has already handed out, on a block boundary, and
// appear only once. Audit returns an error wrapping ErrCorrupt otherwise.
func (p *Pool) Audit() error {
	spans := p.spans()
	bs := uintptr(p.blockSize)

	seen := roaring64.New()
	var err error
	p.free.Range(func(v uint64) bool {
		addr := uintptr(v)
		i := sort.Search(len(spans), func(i int) bool { return spans[i].end > addr })
		if i == len(spans) || addr < spans[i].start {
			err = fmt.Errorf("%w: block %#x is not inside a handed-out chunk region", ErrCorrupt, addr)
			return false
		}
		if (addr-spans[i].origin)%bs != 0 {
			err = fmt.Errorf("%w: block %#x is not aligned to %d", ErrCorrupt, addr, bs)
			return false
		}
		if !seen.CheckedAdd(v) {
			err = fmt.Errorf("%w: block %#x is free-listed twice", ErrCorrupt, addr)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	if n := seen.GetCardinality(); n > p.bumped.Load() {
		return fmt.Errorf("%w: %d free blocks but only %d carved", ErrCorrupt, n, p.bumped.Load())
	}
	return nil
}

func (p *Pool) spans() []chunkSpan {
	g := p.cursor.Lock()
	defer g.Unlock()

	state := g.Read()
	remaining := uintptr(state & blockMask)
	chunks := state >> chunkShift
	table := g.Payload()
	bs := uintptr(p.blockSize)

	spans := make([]chunkSpan, 0, chunks)
	for i := range chunks {
		origin := uintptr(table[i].Pointer())
		s := chunkSpan{
			origin: origin,
			start:  origin,
			end:    origin + uintptr(p.blocksPerChunk)*bs,
		}
		if i == chunks-1 {
			// Blocks are carved from the end; those below the cursor are untouched.
			s.start = origin + remaining*bs
		}
		spans = append(spans, s)
	}

	slices.SortFunc(spans, func(a, b chunkSpan) int { return cmp.Compare(a.start, b.start) })
	return spans
}
