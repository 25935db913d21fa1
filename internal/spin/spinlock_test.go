package spin

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_ValueRoundTrip(t *testing.T) {
	l := NewLock[int](42, 0)
	assert.Equal(t, uint32(42), l.Value())

	g := l.Lock()
	assert.True(t, l.Locked())
	assert.Equal(t, uint32(42), g.Read())
	g.Write(ValueMask)
	g.Unlock()

	assert.False(t, l.Locked())
	assert.Equal(t, ValueMask, l.Value())
}

func TestLock_WriteTruncatesHeldBit(t *testing.T) {
	var l IndexLock
	g := l.Lock()
	g.Write(0xFFFFFFFF)
	assert.Equal(t, ValueMask, g.Read())
	g.Unlock()

	assert.False(t, l.Locked(), "writing the top bit must not leave the lock held")
	assert.Equal(t, ValueMask, l.Value())
}

func TestLock_TryLock(t *testing.T) {
	var l IndexLock
	l.SetValue(7)

	g, ok := l.TryLock()
	require.True(t, ok)
	assert.Equal(t, uint32(7), g.Read())

	_, ok = l.TryLock()
	assert.False(t, ok, "second TryLock must fail while held")

	g.Unlock()
	g2, ok := l.TryLock()
	require.True(t, ok)
	g2.Unlock()
}

func TestLock_DoubleUnlockPanics(t *testing.T) {
	var l IndexLock
	g := l.Lock()
	g.Unlock()
	assert.Panics(t, func() { g.Unlock() })
}

func TestLock_DoReleasesOnPanic(t *testing.T) {
	var l IndexLock
	assert.Panics(t, func() {
		l.Do(func(g *Guard[struct{}]) {
			g.Write(3)
			panic("boom")
		})
	})
	assert.False(t, l.Locked())
	assert.Equal(t, uint32(3), l.Value())
}

func TestLock_Payload(t *testing.T) {
	l := NewLock(0, [4]uint64{})
	g := l.Lock()
	g.Payload()[2] = 99
	g.Unlock()

	g = l.Lock()
	assert.Equal(t, uint64(99), g.Payload()[2])
	g.Unlock()
}

func TestLock_Contention(t *testing.T) {
	const (
		workers    = 8
		increments = 10000
	)

	l := NewLock(0, 0)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range increments {
				g := l.Lock()
				g.Write(g.Read() + 1)
				*g.Payload() += 2
				g.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint32(workers*increments), l.Value())
	g := l.Lock()
	assert.Equal(t, 2*workers*increments, *g.Payload())
	g.Unlock()
}

func BenchmarkLock_Uncontended(b *testing.B) {
	var l IndexLock
	b.ReportAllocs()
	for b.Loop() {
		g := l.Lock()
		g.Write(g.Read() + 1)
		g.Unlock()
	}
}

func BenchmarkLock_Parallel(b *testing.B) {
	var l IndexLock
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			g := l.Lock()
			g.Write(g.Read() + 1)
			g.Unlock()
		}
	})
}
