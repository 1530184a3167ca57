package ports

import (
	"context"
	"io"

	"github.com/toolkitrag/grounded/internal/core/domain"
)

// IngestCommand carries one document upload.
type IngestCommand struct {
	VersionTag       string
	SourceFilename   string
	UploadedBy       string
	Body             io.Reader
	CreateEmbeddings bool
}

// DocumentIngestor is the inbound contract for ingestion and the document
// lifecycle.
type DocumentIngestor interface {
	Ingest(ctx context.Context, cmd IngestCommand) (*domain.Document, error)
	Reindex(ctx context.Context, documentID string) (int, error)
	ReindexAll(ctx context.Context) (int, error)
	SetActive(ctx context.Context, documentID string, active bool) (*domain.Document, error)
}

// Retriever produces the ranked, thresholded candidate set for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalCandidate, error)
}

// AnswerService is the inbound contract for grounded question answering.
type AnswerService interface {
	Answer(ctx context.Context, userID, question string, topK int) (*domain.Answer, error)
}

// DocumentReader is the inbound read model for document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
