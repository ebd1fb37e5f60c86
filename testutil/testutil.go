package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/vecload/source"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniform fills dst with random values in range [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformVectors generates num row-major vectors with values in [0, 1),
// returned as one flat slice of num*dim elements.
func (r *RNG) UniformVectors(num, dim int) []float32 {
	data := make([]float32, num*dim)
	r.FillUniform(data)
	return data
}

// BruteForceNeighbors returns, for every query row, the ids of the k train
// rows closest in squared L2 distance. Ties keep the lower id first.
func BruteForceNeighbors(train, queries []float32, dim, k int) []int64 {
	n := len(train) / dim
	k = min(k, n)

	type result struct {
		id   int
		dist float32
	}
	results := make([]result, n)

	var out []int64
	for q := 0; q+dim <= len(queries); q += dim {
		query := queries[q : q+dim]
		for i := range n {
			results[i] = result{id: i, dist: squaredL2(query, train[i*dim:(i+1)*dim])}
		}
		sort.SliceStable(results, func(a, b int) bool {
			return results[a].dist < results[b].dist
		})
		for _, r := range results[:k] {
			out = append(out, int64(r.id))
		}
	}
	return out
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Dataset generates a random train/test/neighbors file with n train rows, m
// test rows and k exact neighbors per test row. Neighbor ids are stored as
// int64, like the ann-benchmarks HDF5 files.
func Dataset(r *RNG, n, m, dim, k int) source.MemoryFile {
	train := r.UniformVectors(n, dim)
	test := r.UniformVectors(m, dim)
	neighbors := BruteForceNeighbors(train, test, dim, k)

	return source.MemoryFile{
		"train":     mustArray(n, dim, train),
		"test":      mustArray(m, dim, test),
		"neighbors": mustArray(m, min(k, n), neighbors),
	}
}

func mustArray(rows, cols int, data any) *source.MemoryArray {
	a, err := source.NewMemoryArray(rows, cols, data)
	if err != nil {
		panic(err)
	}
	return a
}
