package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/lectern0/lectern/internal/search"
)

// FakeEmbedder derives a deterministic unit vector from the text content.
// Identical texts embed identically, so tests can assert nearest-neighbor
// behavior without API access.
type FakeEmbedder struct{}

// Embed hashes the text into a seeded pseudo-random vector of the store's
// dimensionality, normalized to unit length.
func (FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float32, search.VectorDimension)
	var norm float64
	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}
