package arena

import "errors"

var (
	// ErrInvalidCapacity is returned when the capacity is outside [1, MaxCapacity].
	ErrInvalidCapacity = errors.New("arena: invalid capacity")
	// ErrDropType is returned when the drop hook does not match the arena's value type.
	ErrDropType = errors.New("arena: drop hook type mismatch")
	// ErrCorrupt is returned by Audit when the free list or slot states are inconsistent.
	ErrCorrupt = errors.New("arena: corrupt")
)
