package embeddings

import (
	"context"
	"math"
)

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int
	// Name returns the name/identifier of the embedding model.
	Name() string
}

// Normalize scales v to unit length in place and returns it. The 1e-8 floor
// keeps zero vectors at zero instead of producing NaNs.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + 1e-8
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// Dot is the inner product of two equal-length vectors. For unit vectors it
// is the cosine similarity.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
