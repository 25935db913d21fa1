package arena

import "fmt"

// MaxCapacity is the largest supported arena capacity.
const MaxCapacity = 1 << 30

// Handle identifies a stored value. It carries no ownership and may go stale.
type Handle struct {
	Index      uint32
	Generation uint32
}

func (h Handle) String() string {
	return fmt.Sprintf("%d@%d", h.Index, h.Generation)
}

const refValid = uint32(1) << 31

// Ref is one counted reference to a live value, obtained from Store, Retain or Clone.
//
// Every Ref must be released exactly once. Copying a Ref does not add a
// reference; use Clone for that. The zero Ref is invalid.
type Ref[T any] struct {
	word uint32
}

func newRef[T any](index uint32) Ref[T] {
	return Ref[T]{word: index | refValid}
}

// Valid reports whether r was issued by an arena.
func (r Ref[T]) Valid() bool {
	return r.word&refValid != 0
}

// Index returns the slot index r refers to.
func (r Ref[T]) Index() uint32 {
	return r.word &^ refValid
}

func (r Ref[T]) mustIndex() uint32 {
	if !r.Valid() {
		panic("arena: use of invalid Ref")
	}
	return r.Index()
}
