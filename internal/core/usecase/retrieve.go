package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/toolkitrag/grounded/internal/core/domain"
	"github.com/toolkitrag/grounded/internal/core/ports"
)

// RetrieveUseCase produces the ranked candidate set for a query: embed,
// search, threshold, dedupe. An empty result is a valid outcome signaling
// no relevant grounding, never an error.
type RetrieveUseCase struct {
	embedder  ports.Embedder
	store     ports.VectorStore
	topK      int
	threshold float64
}

func NewRetrieveUseCase(embedder ports.Embedder, store ports.VectorStore, topK int, threshold float64) *RetrieveUseCase {
	if topK <= 0 {
		topK = 5
	}
	return &RetrieveUseCase{
		embedder:  embedder,
		store:     store,
		topK:      topK,
		threshold: threshold,
	}
}

func (uc *RetrieveUseCase) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalCandidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrValidation, "retrieve", errors.New("query is required"))
	}
	if topK <= 0 {
		topK = uc.topK
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := uc.store.Search(ctx, queryVector, topK, true)
	if err != nil {
		return nil, fmt.Errorf("search vector store: %w", err)
	}

	// Candidates arrive sorted by descending similarity, so the first
	// occurrence of a duplicated text span is the one to keep.
	seen := make(map[string]struct{}, len(candidates))
	out := make([]domain.RetrievalCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity < uc.threshold {
			continue
		}
		if _, dup := seen[c.Chunk.Text]; dup {
			continue
		}
		seen[c.Chunk.Text] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}
