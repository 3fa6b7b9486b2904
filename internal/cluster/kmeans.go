// Package cluster implements the batch categorization pipeline: embed
// unlabeled messages, group them with k-means, and help a human (optionally
// assisted by the LLM) attach a category label to each group.
package cluster

import (
	"fmt"
	"math"
	"math/rand"
)

// KMeansOptions controls the clustering run. The zero value is not usable;
// use DefaultKMeansOptions.
type KMeansOptions struct {
	K        int
	MaxIters int
	Seed     int64
}

// DefaultKMeansOptions mirrors the defaults the pipeline has always used:
// a fixed seed so reruns over the same data produce the same clusters.
func DefaultKMeansOptions(k int) KMeansOptions {
	return KMeansOptions{K: k, MaxIters: 100, Seed: 0}
}

// KMeans assigns each vector to one of opts.K clusters and returns the
// assignment slice, indexed like vectors. Initialization is k-means++ with a
// seeded source, so results are deterministic for a given input and seed.
func KMeans(vectors [][]float32, opts KMeansOptions) ([]int, error) {
	n := len(vectors)
	if n == 0 {
		return nil, fmt.Errorf("no vectors to cluster")
	}
	if opts.K <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", opts.K)
	}
	if opts.K > n {
		return nil, fmt.Errorf("k=%d exceeds vector count %d", opts.K, n)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	centroids := initCentroids(vectors, opts.K, rng)

	assignments := make([]int, n)
	for iter := 0; iter < opts.MaxIters; iter++ {
		changed := false
		for i, v := range vectors {
			best := nearest(v, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}

		// Recompute centroids as cluster means.
		sums := make([][]float64, opts.K)
		counts := make([]int, opts.K)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := assignments[i]
			counts[c]++
			for d, x := range v {
				sums[c][d] += float64(x)
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Reseed an empty cluster from a random point.
				centroids[c] = append([]float32(nil), vectors[rng.Intn(n)]...)
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = float32(sums[c][d] / float64(counts[c]))
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	return assignments, nil
}

// initCentroids picks k starting centroids with k-means++ weighting.
func initCentroids(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	n := len(vectors)
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, append([]float32(nil), vectors[rng.Intn(n)]...))

	dists := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, v := range vectors {
			d := math.Inf(1)
			for _, c := range centroids {
				if sq := sqDist(v, c); sq < d {
					d = sq
				}
			}
			dists[i] = d
			total += d
		}

		if total == 0 {
			// All remaining points coincide with existing centroids.
			centroids = append(centroids, append([]float32(nil), vectors[rng.Intn(n)]...))
			continue
		}

		r := rng.Float64() * total
		acc := 0.0
		pick := n - 1
		for i, d := range dists {
			acc += d
			if acc >= r {
				pick = i
				break
			}
		}
		centroids = append(centroids, append([]float32(nil), vectors[pick]...))
	}
	return centroids
}

func nearest(v []float32, centroids [][]float32) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(v, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func sqDist(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
