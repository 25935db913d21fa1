package arena

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Audit verifies the free list of a quiescent Store.
//
// Every free-listed slot must be below the high-water mark, hold no value and
// no references, and appear once; the free list must account for every slot
// below the high-water mark that is neither active nor destroyed.
func (s *Store[T]) Audit() error {
	seen := bitset.New(uint(len(s.slots)))
	free := 0
	for idx := s.freeHead; idx != nullSlot; idx = s.slots[idx].next {
		if idx >= s.highWater {
			return fmt.Errorf("%w: free slot %d beyond high-water mark %d", ErrCorrupt, idx, s.highWater)
		}
		if seen.Test(uint(idx)) {
			return fmt.Errorf("%w: slot %d free-listed twice", ErrCorrupt, idx)
		}
		seen.Set(uint(idx))

		sl := &s.slots[idx]
		if sl.generation&(storeInitialized|storeDestroyed) != 0 || sl.refs != 0 {
			return fmt.Errorf("%w: free slot %d is in use (generation %d, refs %d)", ErrCorrupt, idx, sl.generation, sl.refs)
		}
		free++
	}

	if want := int(s.highWater) - int(s.active) - int(s.destroyed); free != want {
		return fmt.Errorf("%w: %d free-listed slots, want %d", ErrCorrupt, free, want)
	}
	return nil
}

// Audit verifies the free list of a quiescent Manager.
//
// Every free-listed index must be below the high-water mark, belong to a slot
// that holds no value, and appear once; the free list must account for every
// slot below the high-water mark that is neither active nor pending.
func (m *Manager[T]) Audit() error {
	hw := m.highWater.Load()
	seen := bitset.New(uint(len(m.slots)))

	var err error
	m.free.Range(func(idx uint32) bool {
		switch {
		case idx >= hw:
			err = fmt.Errorf("%w: free slot %d beyond high-water mark %d", ErrCorrupt, idx, hw)
		case seen.Test(uint(idx)):
			err = fmt.Errorf("%w: slot %d free-listed twice", ErrCorrupt, idx)
		case m.slots[idx].generation.Load()&genLive != 0 || m.slots[idx].refs.Load()&liveBit != 0:
			err = fmt.Errorf("%w: free slot %d holds a live value", ErrCorrupt, idx)
		default:
			seen.Set(uint(idx))
			return true
		}
		return false
	})
	if err != nil {
		return err
	}

	want := int64(hw) - m.active.Load() - m.pending.Load()
	if got := int64(seen.Count()); got != want {
		return fmt.Errorf("%w: %d free-listed slots, want %d", ErrCorrupt, got, want)
	}
	return nil
}
