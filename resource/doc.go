// Package resource implements the Controller for process-wide memory budgets and
// workload governance.
//
// The Controller covers three resource types:
//
//   - Memory: track and cap bytes mapped by pools and the large-object path (non-blocking, fail-fast)
//   - Concurrency: cap the number of concurrent background workers
//   - Throughput: rate-limit operations issued by load generators
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                        Controller                           │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Memory Limit   │  Background     │  Ops Rate Limiter       │
//	│  (fail-fast)    │  Workers (sem)  │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireMemory  │  AcquireBack-   │  AcquireOps             │
//	│  WaitMemory     │  ground         │  TryAcquireOps          │
//	│  ReleaseMemory  │  TryAcquire     │                         │
//	│  MemoryUsage    │  Release        │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for the hard limit and an atomic
// counter for usage. AcquireMemory never blocks; it returns
// ErrMemoryLimitExceeded when the limit would be exceeded. The Controller
// satisfies pool.MemoryAcquirer, so a single budget can be shared by every
// size class of an allocator:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 256 << 20,
//	})
//
//	m, err := alloc.New(alloc.WithMemoryAcquirer(rc))
//
// # Background Worker Limits
//
//	rc := resource.NewController(resource.Config{
//	    MaxBackgroundWorkers: 4,
//	})
//
//	if err := rc.AcquireBackground(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseBackground()
//
// # Ops Rate Limiting
//
//	rc := resource.NewController(resource.Config{
//	    OpsLimitPerSec: 100_000,
//	})
//
//	if err := rc.AcquireOps(ctx, 1); err != nil {
//	    return err
//	}
//
// All methods are safe on a nil *Controller, which behaves as unlimited.
package resource
