// Package knn computes exact k-nearest-neighbor graphs.
//
// Neighbors are ordered by ascending distance with ties broken by the lower
// row index, so results are deterministic regardless of worker scheduling.
package knn

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecsight/distance"
)

// ErrInvalidK is returned when k is out of range for the point set.
var ErrInvalidK = errors.New("knn: invalid k")

// chunkSize is the number of rows handled by one worker task.
const chunkSize = 64

// Graph holds the k nearest neighbors of each row.
type Graph struct {
	K         int
	Indices   [][]int
	Distances [][]float64
}

// KDistance returns the distance from row i to its k-th neighbor.
func (g *Graph) KDistance(i int) float64 {
	return g.Distances[i][g.K-1]
}

type options struct {
	workers int
}

// Option configures graph construction.
type Option func(*options)

// WithWorkers bounds the number of goroutines used. Values < 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Build computes the k nearest neighbors of every point among the other points.
// A point is never its own neighbor; exact duplicates of it are.
// Requires 1 <= k < len(points).
func Build(ctx context.Context, points [][]float64, k int, fn distance.Func, opts ...Option) (*Graph, error) {
	if k < 1 || k >= len(points) {
		return nil, fmt.Errorf("%w: k=%d with %d points", ErrInvalidK, k, len(points))
	}
	return run(ctx, points, points, k, fn, true, opts)
}

// Search computes the k nearest reference points of every query.
// Requires 1 <= k <= len(ref).
func Search(ctx context.Context, ref, queries [][]float64, k int, fn distance.Func, opts ...Option) (*Graph, error) {
	if k < 1 || k > len(ref) {
		return nil, fmt.Errorf("%w: k=%d with %d reference points", ErrInvalidK, k, len(ref))
	}
	return run(ctx, ref, queries, k, fn, false, opts)
}

func run(ctx context.Context, ref, queries [][]float64, k int, fn distance.Func, excludeSelf bool, opts []Option) (*Graph, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	n := len(queries)
	idxData := make([]int, n*k)
	distData := make([]float64, n*k)
	g := &Graph{
		K:         k,
		Indices:   make([][]int, n),
		Distances: make([][]float64, n),
	}
	for i := range n {
		g.Indices[i] = idxData[i*k : (i+1)*k : (i+1)*k]
		g.Distances[i] = distData[i*k : (i+1)*k : (i+1)*k]
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(o.workers)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		eg.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				self := -1
				if excludeSelf {
					self = i
				}
				nearest(queries[i], ref, self, fn, g.Indices[i], g.Distances[i])
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}

// nearest fills idx/dist (len k) with the k closest reference rows to q,
// skipping row self. Uses sorted insertion; k is small in practice.
func nearest(q []float64, ref [][]float64, self int, fn distance.Func, idx []int, dist []float64) {
	k := len(idx)
	filled := 0
	for j, r := range ref {
		if j == self {
			continue
		}
		d := fn(q, r)
		if filled == k && !less(d, j, dist[k-1], idx[k-1]) {
			continue
		}

		pos := filled
		if filled < k {
			filled++
		} else {
			pos = k - 1
		}
		for pos > 0 && less(d, j, dist[pos-1], idx[pos-1]) {
			dist[pos] = dist[pos-1]
			idx[pos] = idx[pos-1]
			pos--
		}
		dist[pos] = d
		idx[pos] = j
	}
}

func less(d1 float64, i1 int, d2 float64, i2 int) bool {
	if d1 != d2 {
		return d1 < d2
	}
	return i1 < i2
}
