package domain

import "time"

type DocumentStatus string

const (
	StatusPending DocumentStatus = "pending"
	StatusReady   DocumentStatus = "ready"
	StatusFailed  DocumentStatus = "failed"
)

// Document is one ingested version of the toolkit source. Versions are
// never hard-deleted; superseded versions are deactivated so citations in
// historical chat logs stay interpretable.
type Document struct {
	ID             string         `json:"id"`
	VersionTag     string         `json:"version_tag"`
	SourceFilename string         `json:"source_filename"`
	StoragePath    string         `json:"storage_path"`
	UploadedBy     string         `json:"uploaded_by,omitempty"`
	Status         DocumentStatus `json:"status"`
	Error          string         `json:"error,omitempty"`
	ChunkCount     int            `json:"chunk_count"`
	Active         bool           `json:"active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ChunkMeta is the heading context a chunk inherits from its position in
// the source document.
type ChunkMeta struct {
	Heading  string `json:"heading,omitempty"`
	Section  string `json:"section,omitempty"`
	Cluster  string `json:"cluster,omitempty"`
	ToolName string `json:"tool_name,omitempty"`
}

// Block is one parsed paragraph or heading unit handed to the chunker,
// carrying the metadata active at that point in the document.
type Block struct {
	Text string
	Meta ChunkMeta
}

// ChunkDraft is chunker output: ordered text segments with metadata but no
// identity or embedding yet.
type ChunkDraft struct {
	Index int
	Text  string
	Meta  ChunkMeta
}

// Chunk is a persisted slice of a document. Chunks are immutable; a reindex
// replaces the whole set for a document.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	Meta       ChunkMeta `json:"meta"`
	CreatedAt  time.Time `json:"created_at"`
}
