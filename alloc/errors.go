package alloc

import "errors"

var (
	// ErrInvalidLayout is returned for negative sizes or non power-of-two alignments.
	ErrInvalidLayout = errors.New("alloc: invalid layout")
)
