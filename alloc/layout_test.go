package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 0},
		{63, 0},
		{64, 0},
		{65, 1},
		{100, 1},
		{128, 1},
		{129, 2},
		{256, 2},
		{512, 3},
		{1000, 4},
		{1024, 4},
		{2047, 5},
		{2048, 5},
		{2049, -1},
		{1 << 20, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassOf(tt.n), "ClassOf(%d)", tt.n)
		if tt.want >= 0 {
			assert.GreaterOrEqual(t, ClassSize(tt.want), tt.n, "class must hold the request")
		}
	}
}

func TestNewLayout(t *testing.T) {
	l, err := NewLayout(100, 16)
	assert.NoError(t, err)
	assert.Equal(t, 100, l.span())

	l, err = NewLayout(8, 256)
	assert.NoError(t, err)
	assert.Equal(t, 256, l.span(), "alignment larger than size reserves the alignment")

	_, err = NewLayout(-1, 8)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = NewLayout(8, 0)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = NewLayout(8, 24)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	assert.Panics(t, func() { MustLayout(8, 3) })
}
