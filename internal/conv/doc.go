// Package conv provides checked integer conversions for sizes and slot indices.
//
// Slot indices and block counts are stored as uint32 to keep hot words small;
// these helpers guard the boundary with Go's platform-sized int. Conversions
// that are provably safe by construction (loop indices below a validated
// capacity) use direct casts instead.
package conv
