package config

import "testing"

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("RAG_SIMILARITY_THRESHOLD", "")
	t.Setenv("RAG_MAX_CONTEXT_CHARS", "")
	t.Setenv("CHUNK_MAX_CHARS", "")
	t.Setenv("CHUNK_OVERLAP", "")
	t.Setenv("EMBEDDING_DIMENSIONS", "")

	cfg := Load()
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RAGTopK)
	}
	if cfg.RAGSimilarityThreshold != 0.65 {
		t.Fatalf("expected default threshold 0.65, got %f", cfg.RAGSimilarityThreshold)
	}
	if cfg.RAGMaxContextChars != 4000 {
		t.Fatalf("expected default context chars 4000, got %d", cfg.RAGMaxContextChars)
	}
	if cfg.ChunkMaxChars != 1200 {
		t.Fatalf("expected default chunk max 1200, got %d", cfg.ChunkMaxChars)
	}
	if cfg.ChunkOverlap != 150 {
		t.Fatalf("expected default overlap 150, got %d", cfg.ChunkOverlap)
	}
	if cfg.EmbeddingDimensions != 1536 {
		t.Fatalf("expected default dimensions 1536, got %d", cfg.EmbeddingDimensions)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RAG_TOP_K", "8")
	t.Setenv("RAG_SIMILARITY_THRESHOLD", "0.72")
	t.Setenv("EMBEDDING_PROVIDER", "local-stub")
	t.Setenv("OPENAI_TEMPERATURE", "0.3")

	cfg := Load()
	if cfg.RAGTopK != 8 {
		t.Fatalf("expected top k 8, got %d", cfg.RAGTopK)
	}
	if cfg.RAGSimilarityThreshold != 0.72 {
		t.Fatalf("expected threshold 0.72, got %f", cfg.RAGSimilarityThreshold)
	}
	if cfg.EmbeddingProvider != "local-stub" {
		t.Fatalf("expected provider override, got %q", cfg.EmbeddingProvider)
	}
	if cfg.OpenAITemperature != 0.3 {
		t.Fatalf("expected temperature 0.3, got %f", cfg.OpenAITemperature)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("RAG_TOP_K", "lots")
	t.Setenv("RAG_SIMILARITY_THRESHOLD", "high")

	cfg := Load()
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected fallback top k 5, got %d", cfg.RAGTopK)
	}
	if cfg.RAGSimilarityThreshold != 0.65 {
		t.Fatalf("expected fallback threshold 0.65, got %f", cfg.RAGSimilarityThreshold)
	}
}
