package queue

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -4, 3, 100, MaxCapacity + 1} {
		_, err := New(c)
		assert.ErrorIs(t, err, ErrInvalidCapacity, "capacity %d", c)

		_, err = New32(c)
		assert.ErrorIs(t, err, ErrInvalidCapacity, "capacity %d", c)
	}
}

func TestRoundCapacity(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, 1},
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{1000, 1024},
		{1024, 1024},
		{1025, 2048},
		{MaxCapacity * 2, MaxCapacity},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundCapacity(tt.in), "RoundCapacity(%d)", tt.in)
		assert.True(t, validCapacity(RoundCapacity(tt.in)))
	}
}

func TestQueue_CapacityInvariant(t *testing.T) {
	for _, n := range []int{1, 2, 64, 4096} {
		q, err := New(n)
		require.NoError(t, err)

		for i := range n {
			require.True(t, q.Enqueue(uint64(i+1)), "enqueue %d of %d", i, n)
		}
		assert.False(t, q.Enqueue(uint64(n+1)), "enqueue beyond capacity must fail")
		assert.Equal(t, n, q.Len())

		v, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, uint64(1), v)
		assert.True(t, q.Enqueue(uint64(n+1)), "a dequeue must free exactly one slot")
		assert.False(t, q.Enqueue(uint64(n+2)))

		require.NoError(t, q.Close())
	}
}

func TestQueue_Wraparound(t *testing.T) {
	q, err := New(4096)
	require.NoError(t, err)
	defer q.Close()

	for range 20 {
		for i := range 4096 {
			require.True(t, q.Enqueue(uint64(i+1)))
		}
		for i := range 4096 {
			v, ok := q.Dequeue()
			require.True(t, ok)
			require.Equal(t, uint64(i+1), v)
		}
		_, ok := q.Dequeue()
		require.False(t, ok)
	}

	for i := range 3 * 4096 {
		require.True(t, q.Enqueue(uint64(i+1)))
		v, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, uint64(i+1), v)
	}
}

func TestQueue_EmptyAndSentinel(t *testing.T) {
	q, err := New(8)
	require.NoError(t, err)
	defer q.Close()

	_, ok := q.Dequeue()
	assert.False(t, ok)
	assert.Panics(t, func() { q.Enqueue(0) })
	assert.Equal(t, 8, q.Cap())
}

func TestQueue_ClearAndRange(t *testing.T) {
	q, err := New(16)
	require.NoError(t, err)
	defer q.Close()

	for i := range 10 {
		require.True(t, q.Enqueue(uint64(100+i)))
	}

	sum := uint64(0)
	q.Range(func(v uint64) bool {
		sum += v
		return true
	})
	assert.Equal(t, uint64(10*100+45), sum)

	visited := 0
	q.Range(func(uint64) bool {
		visited++
		return visited < 3
	})
	assert.Equal(t, 3, visited)

	q.Clear()
	assert.Equal(t, 0, q.Len())
	_, ok := q.Dequeue()
	assert.False(t, ok)

	for i := range 16 {
		require.True(t, q.Enqueue(uint64(i+1)), "cleared queue must accept a full ring")
	}
}

func TestQueue32_ZeroIsAValue(t *testing.T) {
	q, err := New32(4)
	require.NoError(t, err)
	defer q.Close()

	for i := range uint32(4) {
		require.True(t, q.Enqueue(i))
	}
	assert.False(t, q.Enqueue(4))

	for i := range uint32(4) {
		v, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.Dequeue()
	assert.False(t, ok)

	assert.Panics(t, func() { q.Enqueue(Empty32) })

	require.True(t, q.Enqueue(0))
	q.Clear()
	count := 0
	q.Range(func(uint32) bool {
		count++
		return true
	})
	assert.Zero(t, count)
}

func TestQueue_MPMC(t *testing.T) {
	const (
		producers = 4
		consumers = 4
		perWorker = 20000
		total     = producers * perWorker
	)

	q, err := New(1024)
	require.NoError(t, err)
	defer q.Close()

	seen := make([]atomic.Int32, total+1)
	var received atomic.Int64
	var wg sync.WaitGroup

	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				v := uint64(p*perWorker + i + 1)
				for !q.Enqueue(v) {
					runtime.Gosched()
				}
			}
		}()
	}
	for range consumers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for received.Load() < total {
				v, ok := q.Dequeue()
				if !ok {
					runtime.Gosched()
					continue
				}
				seen[v].Add(1)
				received.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(total), received.Load())
	for v := 1; v <= total; v++ {
		if n := seen[v].Load(); n != 1 {
			t.Fatalf("value %d dequeued %d times", v, n)
		}
	}
}

func BenchmarkQueue_EnqueueDequeue(b *testing.B) {
	q, err := New(1024)
	require.NoError(b, err)
	defer q.Close()

	b.ReportAllocs()
	for b.Loop() {
		q.Enqueue(1)
		q.Dequeue()
	}
}

func BenchmarkQueue_Parallel(b *testing.B) {
	q, err := New(1 << 16)
	require.NoError(b, err)
	defer q.Close()

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if q.Enqueue(1) {
				q.Dequeue()
			}
		}
	})
}
