package ports

import (
	"context"
	"io"

	"github.com/toolkitrag/grounded/internal/core/domain"
)

// DocumentRepository persists and reads document metadata. Create must
// surface domain.ErrValidation when the version tag is already taken, so
// concurrent ingests of the same tag serialize to first-writer-wins.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListIDs(ctx context.Context) ([]string, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// ChatLogStore appends immutable question/answer records.
type ChatLogStore interface {
	Append(ctx context.Context, entry *domain.ChatLog) error
}

// ObjectStorage keeps the original uploaded files so reindex can re-parse
// them.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ReindexQueue publishes/consumes bulk reindex jobs.
type ReindexQueue interface {
	PublishReindexRequested(ctx context.Context, documentID string) error
	SubscribeReindexRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentParser turns a source file into ordered blocks with heading
// context. The parser is chosen by filename extension.
type DocumentParser interface {
	Parse(ctx context.Context, filename string, r io.Reader) ([]domain.Block, error)
}

// Chunker splits parsed blocks into overlapping, paragraph-aligned drafts.
type Chunker interface {
	Split(blocks []domain.Block) []domain.ChunkDraft
}

// Embedder builds fixed-dimension vectors for chunks and query text.
// Implementations retry transient backend failures a bounded number of
// times and surface the rest as domain.ErrEmbeddingProvider.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// VectorStore persists chunk sets with their vectors and performs
// similarity search.
//
// ReplaceChunks atomically swaps a document's chunk set (and its recorded
// chunk count): readers see either the old set or the new one, never a mix.
// A nil vectors slice stores the chunks without embeddings; such chunks are
// never returned by Search. Search returns up to topK candidates in strictly
// descending similarity, ties broken by chunk creation time then ordinal,
// restricted to active documents when activeOnly is set.
type VectorStore interface {
	ReplaceChunks(ctx context.Context, doc *domain.Document, drafts []domain.ChunkDraft, vectors [][]float32) ([]domain.Chunk, error)
	Search(ctx context.Context, queryVector []float32, topK int, activeOnly bool) ([]domain.RetrievalCandidate, error)
	DeleteChunks(ctx context.Context, documentID string) error
}

// AnswerModel is the language-model backend used for grounded generation.
type AnswerModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
