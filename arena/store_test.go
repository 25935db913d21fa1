package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore[int](0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = NewStore[int](MaxCapacity + 1)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = NewStore[int](8, WithDrop(func(*string) {}))
	assert.ErrorIs(t, err, ErrDropType)
}

func TestStore_FillFreeRefill(t *testing.T) {
	const capacity = 1024

	s, err := NewStore[int](capacity)
	require.NoError(t, err)

	handles := make([]Handle, capacity)
	for i := range capacity {
		h, ok := s.Store(i)
		require.True(t, ok)
		handles[i] = h
	}
	_, ok := s.Store(capacity)
	assert.False(t, ok, "store beyond capacity must fail")

	for i, h := range handles {
		ref, ok := s.Retain(h)
		require.True(t, ok)
		assert.Equal(t, i, *s.Get(ref))
		s.Release(ref)
	}

	for _, h := range handles {
		require.True(t, s.Free(h))
	}
	assert.Zero(t, s.Active())
	assert.Zero(t, s.Destroyed())
	require.NoError(t, s.Audit())

	for i := range capacity {
		_, ok := s.Store(i + capacity)
		require.True(t, ok, "recycled store %d", i)
	}
	assert.Equal(t, capacity, s.HighWaterMark(), "refill must reuse slots, not grow")
	assert.Equal(t, capacity, s.Active())
	assert.Zero(t, s.Available())
	require.NoError(t, s.Audit())
}

func TestStore_GenerationRoundTrip(t *testing.T) {
	s, err := NewStore[string](1)
	require.NoError(t, err)

	old, ok := s.Store("first")
	require.True(t, ok)
	require.True(t, s.Free(old))

	fresh, ok := s.Store("second")
	require.True(t, ok)
	assert.Equal(t, old.Index, fresh.Index, "the only slot is reused")
	assert.NotEqual(t, old.Generation, fresh.Generation)

	_, ok = s.Retain(old)
	assert.False(t, ok, "stale handle must not validate against the reused slot")
	assert.False(t, s.Contains(old))
	assert.False(t, s.Free(old))

	ref, ok := s.Retain(fresh)
	require.True(t, ok)
	assert.Equal(t, "second", *s.Get(ref))
	s.Release(ref)
}

func TestStore_ForgedHandles(t *testing.T) {
	s, err := NewStore[int](4)
	require.NoError(t, err)

	h, _ := s.Store(1)
	require.True(t, s.Free(h))

	// The freed slot now carries an even generation without flags.
	forged := Handle{Index: h.Index, Generation: s.slots[h.Index].generation}
	_, ok := s.Retain(forged)
	assert.False(t, ok)

	_, ok = s.Retain(Handle{Index: 3, Generation: 1})
	assert.False(t, ok, "slot above the high-water mark")
}

func TestStore_DeferredDestruction(t *testing.T) {
	drops := 0
	s, err := NewStore[int](4, WithDrop(func(v *int) {
		drops++
		*v = -1
	}))
	require.NoError(t, err)

	h, _ := s.Store(42)
	ref, ok := s.Retain(h)
	require.True(t, ok)

	require.True(t, s.Free(h))
	assert.False(t, s.Free(h), "free is idempotent")
	assert.Zero(t, drops, "value must outlive the free while referenced")
	assert.True(t, s.IsDestroyed(ref))
	assert.Equal(t, 42, *s.Get(ref))
	assert.Equal(t, 1, s.Destroyed())
	assert.Zero(t, s.Active())
	assert.Equal(t, 3, s.Available())

	_, ok = s.Retain(h)
	assert.False(t, ok, "a freed handle cannot be redeemed")
	_, ok = s.Retain(s.Handle(ref))
	assert.False(t, ok)

	s.Release(ref)
	assert.Equal(t, 1, drops)
	assert.Zero(t, s.Destroyed())
	assert.Zero(t, s.slots[h.Index].value, "slot is zeroed after drop")
	require.NoError(t, s.Audit())
}

func TestStore_CloneAndFreeRef(t *testing.T) {
	drops := 0
	s, err := NewStore[int](2, WithDrop(func(*int) { drops++ }))
	require.NoError(t, err)

	h, _ := s.Store(7)
	ref, _ := s.Retain(h)
	clone := s.Clone(ref)
	assert.Equal(t, h, s.Handle(ref))

	assert.True(t, s.FreeRef(ref), "first FreeRef marks the value")
	assert.Zero(t, drops)
	assert.False(t, s.FreeRef(clone), "already marked")
	assert.Equal(t, 1, drops)
	require.NoError(t, s.Audit())
}

func TestStore_InsertRemoveRounds(t *testing.T) {
	const capacity = 1024

	s, err := NewStore[uint64](capacity)
	require.NoError(t, err)

	handles := make([]Handle, 0, capacity)
	for round := range 16 {
		handles = handles[:0]
		for i := range capacity {
			h, ok := s.Store(uint64(round*capacity + i))
			require.True(t, ok)
			handles = append(handles, h)
		}
		for i, h := range handles {
			ref, ok := s.Retain(h)
			require.True(t, ok)
			require.Equal(t, uint64(round*capacity+i), *s.Get(ref))
			require.True(t, s.Free(h))
			s.Release(ref)
		}
		require.NoError(t, s.Audit())
	}
	assert.Equal(t, capacity, s.HighWaterMark())
}

func TestStore_InvalidRefPanics(t *testing.T) {
	s, err := NewStore[int](1)
	require.NoError(t, err)

	assert.Panics(t, func() { s.Get(Ref[int]{}) })
	assert.Panics(t, func() { s.Release(Ref[int]{}) })
}

func TestStore_AuditDetectsCycle(t *testing.T) {
	s, err := NewStore[int](4)
	require.NoError(t, err)

	h, _ := s.Store(1)
	require.True(t, s.Free(h))
	require.NoError(t, s.Audit())

	s.slots[h.Index].next = h.Index
	assert.ErrorIs(t, s.Audit(), ErrCorrupt)
}

func TestStore_Close(t *testing.T) {
	var dropped []int
	s, err := NewStore[int](4, WithDrop(func(v *int) { dropped = append(dropped, *v) }))
	require.NoError(t, err)

	s.Store(1)
	h, _ := s.Store(2)
	ref, _ := s.Retain(h)
	s.Free(h) // still referenced
	h3, _ := s.Store(3)
	s.Free(h3) // dropped right away
	require.Equal(t, []int{3}, dropped)
	_ = ref

	require.NoError(t, s.Close())
	assert.ElementsMatch(t, []int{3, 1, 2}, dropped)
	assert.Zero(t, s.HighWaterMark())
}

func TestStore_All(t *testing.T) {
	s, err := NewStore[int](8)
	require.NoError(t, err)

	handles := make([]Handle, 5)
	for i := range handles {
		handles[i], _ = s.Store(i * 10)
	}
	require.True(t, s.Free(handles[1]))

	// Freed but still referenced values are skipped as well.
	ref, ok := s.Retain(handles[3])
	require.True(t, ok)
	require.True(t, s.Free(handles[3]))

	got := map[Handle]int{}
	for h, v := range s.All() {
		assert.True(t, s.Contains(h))
		got[h] = *v
	}
	assert.Equal(t, map[Handle]int{handles[0]: 0, handles[2]: 20, handles[4]: 40}, got)

	for _, v := range s.All() {
		*v++
	}
	r, _ := s.Retain(handles[2])
	assert.Equal(t, 21, *s.Get(r))
	s.Release(r)
	s.Release(ref)

	n := 0
	for range s.All() {
		n++
		break
	}
	assert.Equal(t, 1, n, "iteration stops when the consumer does")
}

func TestStore_Clear(t *testing.T) {
	var dropped []int
	s, err := NewStore[int](4, WithDrop(func(v *int) { dropped = append(dropped, *v) }))
	require.NoError(t, err)

	h1, _ := s.Store(1)
	h2, _ := s.Store(2)
	_, ok := s.Retain(h2)
	require.True(t, ok)
	require.True(t, s.Free(h2)) // kept alive by the reference
	h3, _ := s.Store(3)
	require.True(t, s.Free(h3))
	require.Equal(t, []int{3}, dropped)

	s.Clear()
	assert.ElementsMatch(t, []int{3, 1, 2}, dropped)
	assert.Zero(t, s.Active())
	assert.Zero(t, s.Destroyed())
	assert.Equal(t, 4, s.Available())
	require.NoError(t, s.Audit())

	for _, h := range []Handle{h1, h2, h3} {
		assert.False(t, s.Contains(h), "handle %s must be stale after Clear", h)
		_, ok := s.Retain(h)
		assert.False(t, ok)
	}
	for range s.All() {
		t.Fatal("cleared store must be empty")
	}

	for i := range 3 {
		h, ok := s.Store(100 + i)
		require.True(t, ok)
		assert.NotEqual(t, h1, h)
	}
	assert.Equal(t, 3, s.HighWaterMark(), "Clear reuses slots before growing")
	_, ok = s.Store(103)
	require.True(t, ok)
	assert.Equal(t, 4, s.HighWaterMark())
	require.NoError(t, s.Audit())
}

func BenchmarkStore_StoreFree(b *testing.B) {
	s, err := NewStore[int](1024)
	require.NoError(b, err)

	b.ReportAllocs()
	for b.Loop() {
		h, _ := s.Store(1)
		s.Free(h)
	}
}
