// Package testutil provides testing utilities for slabkit.
//
// It backs the package tests and the internal stress workloads.
//
// # Deterministic Randomness
//
//	rng := testutil.NewRNG(seed)
//	sizes := rng.Sizes(1000, 4096)   // allocation sizes in [1, 4096]
//	order := rng.Perm(len(handles))  // release order
//
// RNG is safe for concurrent use, but workers that need reproducible
// sequences should own one RNG each.
package testutil
