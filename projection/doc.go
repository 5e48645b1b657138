// Package projection fits a low-dimensional manifold embedding for visualization.
//
// The algorithm follows the fuzzy-topology approach: an exact k-nearest-neighbor
// graph is turned into local membership strengths (each point's distance to its
// nearest neighbor is subtracted and a per-point bandwidth is solved so the
// memberships sum to log2(k)), the directed graph is symmetrized with a fuzzy
// union and a layout is optimized by stochastic gradient descent with negative
// sampling.
//
// When category labels are supplied, edges between points of different categories
// are attenuated (a categorical intersection), which pulls same-category points
// closer together.
//
// A Model is not invertible and cannot be updated incrementally: any change to the
// fit set requires a new Fit. Fits are deterministic for a fixed seed.
//
//	m, err := projection.Fit(ctx, scaled, labels, projection.WithNeighbors(15))
//	coords := m.Embedding()
package projection
