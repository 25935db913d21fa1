package stress

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/hupe1980/slabkit/arena"
	"github.com/hupe1980/slabkit/resource"
	"github.com/hupe1980/slabkit/testutil"
	"golang.org/x/sync/errgroup"
)

// Payload is the value stored by the arena workload.
type Payload struct {
	Worker    int
	Object    int
	Iteration int
}

// RunArena has every worker repeatedly store cfg.Objects values, read each back
// through a counted reference, and free them all. m must hold at least
// cfg.Workers*cfg.Objects values. rc may be nil; when set it bounds the number
// of concurrently running workers and the rate of stores. Each worker frees
// its values in a random order.
func RunArena(ctx context.Context, m *arena.Manager[Payload], rc *resource.Controller, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if need := cfg.Workers * cfg.Objects; need > m.Capacity() {
		return Report{}, fmt.Errorf("%w: %d workers x %d objects exceed capacity %d",
			ErrInvalidConfig, cfg.Workers, cfg.Objects, m.Capacity())
	}

	var ops, retries atomic.Int64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := range cfg.Workers {
		g.Go(func() error {
			if err := rc.AcquireBackground(gctx); err != nil {
				return err
			}
			defer rc.ReleaseBackground()

			rng := testutil.NewRNG(cfg.Seed + int64(w))
			handles := make([]arena.Handle, cfg.Objects)
			live := 0
			defer func() {
				for _, h := range handles[:live] {
					m.Free(h)
				}
			}()
			for it := range cfg.Iterations {
				if err := rc.AcquireOps(gctx, cfg.Objects); err != nil {
					return err
				}

				for i := range handles {
					v := Payload{Worker: w, Object: i, Iteration: it}
					for {
						h, ok := m.Store(v)
						if ok {
							handles[i] = h
							live = i + 1
							break
						}
						if err := gctx.Err(); err != nil {
							return err
						}
						retries.Add(1)
						runtime.Gosched()
					}
				}

				for i, h := range handles {
					ref, ok := m.Retain(h)
					if !ok {
						return fmt.Errorf("%w: worker %d lost %s", ErrCorruptValue, w, h)
					}
					got := *m.Get(ref)
					m.Release(ref)
					if got != (Payload{Worker: w, Object: i, Iteration: it}) {
						return fmt.Errorf("%w: %s holds %+v", ErrCorruptValue, h, got)
					}
				}

				for _, i := range rng.Perm(len(handles)) {
					h := handles[i]
					if !m.Free(h) {
						return fmt.Errorf("%w: free of %s rejected", ErrCorruptValue, h)
					}
				}

				live = 0
				ops.Add(int64(4 * cfg.Objects))
			}
			return nil
		})
	}

	err := g.Wait()

	r := Report{
		Workload:   "arena",
		Workers:    cfg.Workers,
		Objects:    cfg.Objects,
		Iterations: cfg.Iterations,
		Operations: ops.Load(),
		Retries:    retries.Load(),
	}
	if err != nil {
		r.finish(start, nil)
		r.Audit = "skipped"
		return r, err
	}

	var auditErr error
	if s := m.Stats(); s.Active != 0 || s.Pending != 0 {
		auditErr = fmt.Errorf("%w: %d active, %d pending", ErrLeak, s.Active, s.Pending)
	} else {
		auditErr = m.Audit()
	}
	r.finish(start, auditErr)
	return r, auditErr
}
