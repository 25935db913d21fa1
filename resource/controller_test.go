package resource

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/slabkit/internal/mmap"
	"github.com/hupe1980/slabkit/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ pool.MemoryAcquirer = (*Controller)(nil)

func TestController_Memory(t *testing.T) {
	// Test with limit
	c := NewController(Config{MemoryLimitBytes: 100})

	// Acquire 50
	err := c.AcquireMemory(50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.MemoryUsage())

	// Acquire 40
	err = c.AcquireMemory(40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should fail - limit exceeded)
	err = c.AcquireMemory(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Release 50
	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	// Now Acquire 20 should succeed
	err = c.AcquireMemory(20)
	require.NoError(t, err)
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	err := c.AcquireMemory(1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_WaitMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.WaitMemory(t.Context(), 100))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	err := c.WaitMemory(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(100), c.MemoryUsage())

	// Larger than the limit can never succeed
	err = c.WaitMemory(t.Context(), 101)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)

	done := make(chan error, 1)
	go func() {
		done <- c.WaitMemory(context.Background(), 10)
	}()

	c.ReleaseMemory(10)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitMemory did not wake after release")
	}
	assert.Equal(t, int64(100), c.MemoryUsage())
}

func TestController_Concurrency(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 2})
	assert.Equal(t, 2, c.MaxBackgroundWorkers())

	// Acquire 2
	require.NoError(t, c.AcquireBackground(t.Context()))
	require.NoError(t, c.AcquireBackground(t.Context()))

	// Try 3rd
	assert.False(t, c.TryAcquireBackground())

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireBackground(ctx))

	// Release 1
	c.ReleaseBackground()

	// Try 3rd again
	assert.True(t, c.TryAcquireBackground())
}

func TestController_DefaultWorkers(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, 1, c.MaxBackgroundWorkers())
}

func TestController_Ops(t *testing.T) {
	c := NewController(Config{OpsLimitPerSec: 100})

	// The bucket starts full
	assert.True(t, c.TryAcquireOps(100))
	assert.False(t, c.TryAcquireOps(100))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.Error(t, c.AcquireOps(ctx, 1))

	// Unlimited
	c2 := NewController(Config{})
	assert.True(t, c2.TryAcquireOps(1_000_000))
	assert.NoError(t, c2.AcquireOps(t.Context(), 1_000_000))
}

func TestController_InternalChecks(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})
	assert.NoError(t, c.AcquireMemory(-1))
	assert.NoError(t, c.WaitMemory(t.Context(), 0))

	c.ReleaseMemory(-1)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_MemoryLimit(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 1024})
	assert.Equal(t, int64(1024), c.MemoryLimit())

	c2 := NewController(Config{})
	assert.Equal(t, int64(0), c2.MemoryLimit())
}

func TestController_NilSafe(t *testing.T) {
	var c *Controller

	// All methods should be nil-safe
	assert.NoError(t, c.AcquireMemory(100))
	assert.NoError(t, c.WaitMemory(t.Context(), 100))
	c.ReleaseMemory(100)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())

	assert.NoError(t, c.AcquireBackground(t.Context()))
	assert.True(t, c.TryAcquireBackground())
	c.ReleaseBackground()
	assert.Equal(t, 1, c.MaxBackgroundWorkers())

	assert.NoError(t, c.AcquireOps(t.Context(), 100))
	assert.True(t, c.TryAcquireOps(100))
}

func TestController_PoolBudget(t *testing.T) {
	chunk := int64(mmap.PageAlignedSize(64))
	c := NewController(Config{MemoryLimitBytes: 2 * chunk})

	// One block per chunk, so every Allocate maps a new chunk.
	p, err := pool.New(64, pool.MaxChunks, pool.WithMemoryAcquirer(c))
	require.NoError(t, err)

	require.NotNil(t, p.Allocate())
	require.NotNil(t, p.Allocate())
	assert.Equal(t, 2*chunk, c.MemoryUsage())

	var perr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				perr, _ = r.(error)
				if perr == nil {
					perr = fmt.Errorf("%v", r)
				}
			}
		}()
		p.Allocate()
	}()
	require.Error(t, perr)
	assert.True(t, errors.Is(perr, pool.ErrBudgetExceeded))
	assert.ErrorIs(t, perr, ErrMemoryLimitExceeded)

	require.NoError(t, p.Close())
	assert.Equal(t, int64(0), c.MemoryUsage())
}
