package slabkit

import "errors"

var (
	// ErrClosed is returned when a closed Runtime is used.
	ErrClosed = errors.New("slabkit: runtime closed")

	// ErrNilRuntime is returned when an arena is requested from a nil Runtime.
	ErrNilRuntime = errors.New("slabkit: nil runtime")
)
