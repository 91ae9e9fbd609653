package loader

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// generateSubset picks floor(n*fraction) manifest indices (at least one)
// with a seeded shuffle and returns them in manifest order. A fraction of 1
// keeps every record.
func generateSubset(n int, fraction float64, seed uint64) ([]int, error) {
	if math.IsNaN(fraction) || fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("%w: subset fraction must be in (0, 1], got %g", ErrInvalidConfig, fraction)
	}

	if fraction == 1 || n == 0 {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	count := max(1, int(math.Floor(float64(n)*fraction)))
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	indices := rng.Perm(n)[:count]
	sort.Ints(indices)
	return indices, nil
}
