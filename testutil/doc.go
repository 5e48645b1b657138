// Package testutil provides testing utilities for vecsight.
//
// This package is intended for use in tests and benchmarks only.
// It provides a deterministic, thread-safe RNG plus generators for
// clustered embeddings and ready-made datasets.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.GaussianVectors(100, 16)
//	vecs, labels := rng.ClusteredVectors(300, 16, 3, 0.1)
//
// # Datasets
//
//	ds := testutil.ClusteredDataset(t, rng, 150, 8, 3)
package testutil
