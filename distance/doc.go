// Package distance provides vector distance calculations over float64 embeddings.
//
// # Supported Metrics
//
//   - MetricEuclidean: L2 distance (default)
//   - MetricCosine: 1 - cosine similarity
//   - MetricManhattan: L1 distance
//
// # Usage
//
//	fn, err := distance.Provider(distance.MetricEuclidean)
//	d := fn(a, b)
package distance
