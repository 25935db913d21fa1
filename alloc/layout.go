package alloc

import (
	"fmt"
	"math/bits"
)

const (
	// NumClasses is the number of pooled size classes.
	NumClasses = 6
	// MinClassSize is the smallest size class in bytes.
	MinClassSize = 1 << minClassShift
	// MaxClassSize is the largest size class in bytes.
	MaxClassSize = MinClassSize << (NumClasses - 1)

	minClassShift = 6
)

// Layout describes the size and alignment of an allocation.
type Layout struct {
	Size  int
	Align int
}

// NewLayout validates size and align. align must be a power of two.
func NewLayout(size, align int) (Layout, error) {
	if size < 0 {
		return Layout{}, fmt.Errorf("%w: negative size %d", ErrInvalidLayout, size)
	}
	if align <= 0 || align&(align-1) != 0 {
		return Layout{}, fmt.Errorf("%w: align %d is not a power of two", ErrInvalidLayout, align)
	}
	return Layout{Size: size, Align: align}, nil
}

// MustLayout is like NewLayout but panics on invalid input.
func MustLayout(size, align int) Layout {
	l, err := NewLayout(size, align)
	if err != nil {
		panic(err)
	}
	return l
}

// span is the number of bytes that must be reserved: blocks are aligned to their size.
func (l Layout) span() int {
	return max(l.Size, l.Align)
}

// ClassSize returns the block size of class c.
func ClassSize(c int) int {
	return MinClassSize << c
}

// ClassOf returns the size class serving n bytes, or -1 for the large-object path.
// Zero-byte requests use the smallest class.
func ClassOf(n int) int {
	if n <= MinClassSize {
		return 0
	}
	k := bits.Len(uint(n - 1)) //nolint:gosec // n > MinClassSize
	c := k - minClassShift
	if c >= NumClasses {
		return -1
	}
	return c
}
