package localstub

import (
	"context"
	"math"
	"testing"
)

func TestEmbedDeterministic(t *testing.T) {
	e := New(64)

	a, err := e.EmbedQuery(context.Background(), "retrieval augmented generation")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	b, err := e.EmbedQuery(context.Background(), "retrieval augmented generation")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical vectors for identical text at index %d", i)
		}
	}
}

func TestEmbedDimensionAndNorm(t *testing.T) {
	e := New(1536)
	vectors, err := e.Embed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	for _, vec := range vectors {
		if len(vec) != 1536 {
			t.Fatalf("expected dimension 1536, got %d", len(vec))
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if math.Abs(math.Sqrt(norm)-1.0) > 1e-3 {
			t.Fatalf("expected unit-normalized vector, got norm %f", math.Sqrt(norm))
		}
	}
}

func TestEmbedDistinctTexts(t *testing.T) {
	e := New(64)
	vectors, err := e.Embed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	same := true
	for i := range vectors[0] {
		if vectors[0][i] != vectors[1][i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected different vectors for different texts")
	}
}

func TestNewNormalizesDimensions(t *testing.T) {
	if e := New(0); e.Dimensions() != 1536 {
		t.Fatalf("expected default 1536 dimensions, got %d", e.Dimensions())
	}
}
