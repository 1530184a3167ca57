package domain

import "time"

// RefusalMessage is the fixed answer returned when no grounding is
// available. The language model is never invoked for a refusal.
const RefusalMessage = "Not found in the toolkit"

// RetrievalCandidate pairs a chunk with its similarity to one query.
// Transient; never persisted.
type RetrievalCandidate struct {
	Chunk           Chunk   `json:"chunk"`
	DocumentVersion string  `json:"document_version"`
	Similarity      float64 `json:"similarity"`
}

// Citation references a chunk that grounded part of an answer. Every
// citation must map to a candidate from the same answer's retrieval set.
type Citation struct {
	ChunkID         string  `json:"chunk_id"`
	Heading         string  `json:"heading,omitempty"`
	Cluster         string  `json:"cluster,omitempty"`
	ToolName        string  `json:"tool_name,omitempty"`
	Excerpt         string  `json:"excerpt"`
	Similarity      float64 `json:"similarity"`
	DocumentVersion string  `json:"document_version,omitempty"`
}

// Answer is the outcome of one grounded generation. Refused answers carry
// the fixed refusal text and no citations; they are a designed outcome,
// not an error.
type Answer struct {
	Text       string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	Confidence float64    `json:"confidence"`
	Refused    bool       `json:"refused"`
	Reason     string     `json:"reason,omitempty"`
}

// ChatLog records one question/answer exchange. Immutable once created.
type ChatLog struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id,omitempty"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	Confidence float64    `json:"confidence"`
	Refused    bool       `json:"refused"`
	CreatedAt  time.Time  `json:"created_at"`
}
