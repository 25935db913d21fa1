package queue

import "errors"

var (
	// ErrInvalidCapacity is returned when the capacity is not a power of two in [1, MaxCapacity].
	ErrInvalidCapacity = errors.New("queue: capacity must be a power of two")
)
