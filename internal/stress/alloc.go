package stress

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/hupe1980/slabkit/alloc"
	"github.com/hupe1980/slabkit/resource"
	"github.com/hupe1980/slabkit/testutil"
	"golang.org/x/sync/errgroup"
)

const allocAlign = 8

// verifyBlock checks block contents. Tests replace it to simulate corruption.
var verifyBlock = checkBlock

type block struct {
	ptr    unsafe.Pointer
	layout alloc.Layout
	fill   byte
}

// RunAlloc has every worker allocate cfg.Objects blocks of random size up to
// cfg.MaxSize, fill them, grow or shrink half of them with Realloc, verify the
// contents and release everything. Requests refused by the memory budget count
// as failures, not errors.
func RunAlloc(ctx context.Context, m *alloc.Manager, rc *resource.Controller, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if cfg.MaxSize <= 0 {
		return Report{}, fmt.Errorf("%w: max size must be positive, got %d", ErrInvalidConfig, cfg.MaxSize)
	}

	var ops, failures atomic.Int64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := range cfg.Workers {
		g.Go(func() error {
			if err := rc.AcquireBackground(gctx); err != nil {
				return err
			}
			defer rc.ReleaseBackground()

			rng := testutil.NewRNG(cfg.Seed + int64(w))
			blocks := make([]block, 0, cfg.Objects)
			defer func() {
				for _, b := range blocks {
					m.Dealloc(b.ptr, b.layout)
				}
			}()

			for range cfg.Iterations {
				if err := rc.AcquireOps(gctx, cfg.Objects); err != nil {
					return err
				}

				blocks = blocks[:0]
				for i, size := range rng.Sizes(cfg.Objects, cfg.MaxSize) {
					l := alloc.MustLayout(size, allocAlign)
					p := m.Alloc(l)
					ops.Add(1)
					if p == nil {
						failures.Add(1)
						continue
					}
					b := block{ptr: p, layout: l, fill: byte(w*31 + i)}
					fillBlock(b)
					blocks = append(blocks, b)
				}

				for i := range blocks {
					if i%2 == 1 {
						continue
					}
					b := &blocks[i]
					newSize := rng.Intn(cfg.MaxSize) + 1
					p := m.Realloc(b.ptr, b.layout, newSize)
					ops.Add(1)
					if p == nil {
						failures.Add(1)
						continue
					}
					keep := min(b.layout.Size, newSize)
					b.ptr = p
					b.layout = alloc.MustLayout(newSize, allocAlign)
					if err := verifyBlock(b.ptr, keep, b.fill); err != nil {
						return fmt.Errorf("worker %d realloc: %w", w, err)
					}
					fillBlock(*b)
				}

				for len(blocks) > 0 {
					b := blocks[len(blocks)-1]
					if err := verifyBlock(b.ptr, b.layout.Size, b.fill); err != nil {
						return fmt.Errorf("worker %d: %w", w, err)
					}
					blocks = blocks[:len(blocks)-1]
					m.Dealloc(b.ptr, b.layout)
					ops.Add(1)
				}
			}
			return nil
		})
	}

	err := g.Wait()

	r := Report{
		Workload:   "alloc",
		Workers:    cfg.Workers,
		Objects:    cfg.Objects,
		Iterations: cfg.Iterations,
		Operations: ops.Load(),
		Failures:   failures.Load(),
	}
	if err != nil {
		r.finish(start, nil)
		r.Audit = "skipped"
		return r, err
	}

	var auditErr error
	if s := m.Stats(); s.LargeObjects != 0 {
		auditErr = fmt.Errorf("%w: %d large objects", ErrLeak, s.LargeObjects)
	} else {
		auditErr = m.Audit()
	}
	r.finish(start, auditErr)
	return r, auditErr
}

func fillBlock(b block) {
	buf := unsafe.Slice((*byte)(b.ptr), b.layout.Size)
	for i := range buf {
		buf[i] = b.fill + byte(i)
	}
}

func checkBlock(ptr unsafe.Pointer, n int, fill byte) error {
	buf := unsafe.Slice((*byte)(ptr), n)
	for i, v := range buf {
		if v != fill+byte(i) {
			return fmt.Errorf("%w: byte %d is %#x, want %#x", ErrCorruptValue, i, v, fill+byte(i))
		}
	}
	return nil
}
