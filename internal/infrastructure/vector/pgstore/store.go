package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/toolkitrag/grounded/internal/core/domain"
)

// Store persists chunks with their embeddings in Postgres and performs
// cosine similarity search via pgvector. Activity filtering, ordering and
// tie-breaking are pushed into the query so callers never post-filter.
type Store struct {
	db         *sql.DB
	dimensions int
}

func New(db *sql.DB, dimensions int) *Store {
	return &Store{db: db, dimensions: dimensions}
}

// EnsureSchema creates the chunk table. The vector dimension is fixed at
// creation time and must match the configured embedding provider.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return domain.WrapError(domain.ErrStorage, "ensure pgvector extension", err)
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS toolkit_chunks (
	id UUID PRIMARY KEY,
	document_id UUID NOT NULL REFERENCES toolkit_documents(id),
	chunk_index INTEGER NOT NULL,
	chunk_text TEXT NOT NULL,
	heading TEXT,
	section TEXT,
	cluster TEXT,
	tool_name TEXT,
	embedding vector(%d),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_toolkit_chunks_document_id ON toolkit_chunks(document_id);
`, s.dimensions)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return domain.WrapError(domain.ErrStorage, "ensure chunk schema", err)
	}
	return nil
}

// ReplaceChunks swaps the document's chunk set in one transaction: old
// chunks are deleted, the new set is inserted, and the document's
// chunk_count and status (taken from doc.Status) move to match. Readers
// see the old set or the new one, never a mix. A nil vectors slice stores
// chunks without embeddings; those are invisible to Search.
func (s *Store) ReplaceChunks(
	ctx context.Context,
	doc *domain.Document,
	drafts []domain.ChunkDraft,
	vectors [][]float32,
) ([]domain.Chunk, error) {
	if vectors != nil && len(vectors) != len(drafts) {
		return nil, domain.WrapError(domain.ErrStorage, "replace chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(drafts)))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "begin chunk swap tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM toolkit_chunks WHERE document_id = $1`, doc.ID); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "delete old chunks", err)
	}

	now := time.Now().UTC()
	chunks := make([]domain.Chunk, 0, len(drafts))
	for i, draft := range drafts {
		var embedding any
		if vectors != nil {
			embedding = pgvector.NewVector(vectors[i])
		}
		chunk := domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Index:      draft.Index,
			Text:       draft.Text,
			Meta:       draft.Meta,
			CreatedAt:  now,
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO toolkit_chunks (id, document_id, chunk_index, chunk_text, heading, section, cluster, tool_name, embedding, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
			chunk.ID, chunk.DocumentID, chunk.Index, chunk.Text,
			nullable(chunk.Meta.Heading), nullable(chunk.Meta.Section),
			nullable(chunk.Meta.Cluster), nullable(chunk.Meta.ToolName),
			embedding, chunk.CreatedAt,
		)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStorage, "insert chunk", err)
		}
		chunks = append(chunks, chunk)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE toolkit_documents
SET chunk_count = $2, status = $3, error_message = '', updated_at = $4
WHERE id = $1
`, doc.ID, len(chunks), string(doc.Status), now); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "update chunk count", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "commit chunk swap tx", err)
	}
	return chunks, nil
}

// Search returns up to topK candidates in strictly descending cosine
// similarity. Ties break by chunk creation time then ordinal so identical
// queries against identical data are reproducible.
func (s *Store) Search(
	ctx context.Context,
	queryVector []float32,
	topK int,
	activeOnly bool,
) ([]domain.RetrievalCandidate, error) {
	if topK <= 0 {
		topK = 5
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.document_id, c.chunk_index, c.chunk_text,
       COALESCE(c.heading, ''), COALESCE(c.section, ''), COALESCE(c.cluster, ''), COALESCE(c.tool_name, ''),
       c.created_at, d.version_tag,
       1 - (c.embedding <=> $1) AS similarity
FROM toolkit_chunks c
JOIN toolkit_documents d ON d.id = c.document_id
WHERE c.embedding IS NOT NULL
  AND ($2::boolean IS FALSE OR d.is_active)
ORDER BY similarity DESC, c.created_at ASC, c.chunk_index ASC
LIMIT $3
`, pgvector.NewVector(queryVector), activeOnly, topK)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "vector search", err)
	}
	defer rows.Close()

	out := make([]domain.RetrievalCandidate, 0, topK)
	for rows.Next() {
		var candidate domain.RetrievalCandidate
		if err := rows.Scan(
			&candidate.Chunk.ID, &candidate.Chunk.DocumentID, &candidate.Chunk.Index, &candidate.Chunk.Text,
			&candidate.Chunk.Meta.Heading, &candidate.Chunk.Meta.Section,
			&candidate.Chunk.Meta.Cluster, &candidate.Chunk.Meta.ToolName,
			&candidate.Chunk.CreatedAt, &candidate.DocumentVersion, &candidate.Similarity,
		); err != nil {
			return nil, domain.WrapError(domain.ErrStorage, "scan search row", err)
		}
		out = append(out, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "iterate search rows", err)
	}
	return out, nil
}

func (s *Store) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM toolkit_chunks WHERE document_id = $1`, documentID); err != nil {
		return domain.WrapError(domain.ErrStorage, "delete chunks", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
