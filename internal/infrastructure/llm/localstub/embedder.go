package localstub

import (
	"context"
	"crypto/sha256"
	"math"
)

// Embedder produces deterministic, unit-normalized vectors derived from a
// sha256 hash of the text. Same text, same vector; no network. It exists so
// offline and test deployments exercise the exact storage and comparison
// paths the remote provider uses.
type Embedder struct {
	dimensions int
}

func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = 1536
	}
	return &Embedder{dimensions: dimensions}
}

func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (e *Embedder) vector(text string) []float32 {
	hash := sha256.Sum256([]byte(text))

	vec := make([]float32, e.dimensions)
	var norm float64
	for i := range vec {
		b := hash[i%len(hash)]
		// Byte (0-255) to float in [-1, 1].
		v := float64(b)/127.5 - 1.0
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}
