package queue

import "math/bits"

// MaxCapacity is the largest supported queue capacity.
// Ring positions are kept in the 31-bit value of a spinlock.
const MaxCapacity = 1 << 30

// RoundCapacity returns the smallest valid capacity that holds at least n values.
// Values below 1 round to 1; values above MaxCapacity return MaxCapacity.
func RoundCapacity(n int) int {
	if n <= 1 {
		return 1
	}
	if n >= MaxCapacity {
		return MaxCapacity
	}
	return 1 << bits.Len(uint(n-1))
}

func validCapacity(capacity int) bool {
	return capacity > 0 && capacity <= MaxCapacity && capacity&(capacity-1) == 0
}
