// Package stress drives concurrent workloads against arenas and allocators and
// verifies their free lists afterwards.
//
// Both workloads are closed loops: every worker returns everything it took
// before the run ends, so a correct implementation finishes with no live
// values and a free list that passes Audit.
package stress
