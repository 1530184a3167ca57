package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toolkitrag/grounded/internal/core/domain"
	"github.com/toolkitrag/grounded/internal/core/ports"
)

// IngestUseCase orchestrates parse -> chunk -> embed -> store for one
// document version, and the reindex path that re-runs the same pipeline
// over the stored original file.
type IngestUseCase struct {
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	parser   ports.DocumentParser
	chunker  ports.Chunker
	embedder ports.Embedder
	store    ports.VectorStore
	queue    ports.ReindexQueue
}

func NewIngestUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	parser ports.DocumentParser,
	chunker ports.Chunker,
	embedder ports.Embedder,
	store ports.VectorStore,
	queue ports.ReindexQueue,
) *IngestUseCase {
	return &IngestUseCase{
		repo:     repo,
		storage:  storage,
		parser:   parser,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		queue:    queue,
	}
}

func (uc *IngestUseCase) Ingest(ctx context.Context, cmd ports.IngestCommand) (*domain.Document, error) {
	if strings.TrimSpace(cmd.VersionTag) == "" {
		return nil, domain.WrapError(domain.ErrValidation, "ingest document", errors.New("version tag is required"))
	}
	if cmd.Body == nil {
		return nil, domain.WrapError(domain.ErrValidation, "ingest document", errors.New("document body is required"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(cmd.SourceFilename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, cmd.Body); err != nil {
		return nil, fmt.Errorf("save source file: %w", err)
	}

	doc := &domain.Document{
		ID:             id,
		VersionTag:     strings.TrimSpace(cmd.VersionTag),
		SourceFilename: cmd.SourceFilename,
		StoragePath:    storageKey,
		UploadedBy:     cmd.UploadedBy,
		Status:         domain.StatusPending,
		Active:         false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The version_tag unique constraint makes this the serialization point
	// for concurrent ingests of the same tag.
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	chunkCount, err := uc.rebuildChunks(ctx, doc, cmd.CreateEmbeddings)
	if err != nil {
		return nil, err
	}
	doc.ChunkCount = chunkCount

	if cmd.CreateEmbeddings {
		if err := uc.repo.SetActive(ctx, doc.ID, true); err != nil {
			return nil, err
		}
		doc.Active = true
	}
	return doc, nil
}

// Reindex re-parses the stored original file and atomically swaps the
// document's chunk set. Embeddings are always recreated. The active flag
// is untouched: activation stays an explicit admin action.
func (uc *IngestUseCase) Reindex(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, err
	}
	return uc.rebuildChunks(ctx, doc, true)
}

// ReindexAll enqueues one reindex job per known document and returns the
// number enqueued. The worker drains the queue.
func (uc *IngestUseCase) ReindexAll(ctx context.Context) (int, error) {
	ids, err := uc.repo.ListIDs(ctx)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, id := range ids {
		if err := uc.queue.PublishReindexRequested(ctx, id); err != nil {
			return enqueued, fmt.Errorf("enqueue reindex for %s: %w", id, err)
		}
		enqueued++
	}
	return enqueued, nil
}

func (uc *IngestUseCase) SetActive(ctx context.Context, documentID string, active bool) (*domain.Document, error) {
	if err := uc.repo.SetActive(ctx, documentID, active); err != nil {
		return nil, err
	}
	return uc.repo.GetByID(ctx, documentID)
}

// rebuildChunks runs parse -> chunk -> embed -> swap for the document. On
// failure the document is marked failed with the failing stage recorded,
// and no partial chunk set is left behind: the swap is transactional, so
// the prior set (possibly empty) stays intact.
func (uc *IngestUseCase) rebuildChunks(ctx context.Context, doc *domain.Document, createEmbeddings bool) (int, error) {
	drafts, err := uc.parseAndChunk(ctx, doc)
	if err != nil {
		return 0, uc.markFailed(ctx, doc.ID, err)
	}

	var vectors [][]float32
	if createEmbeddings {
		texts := make([]string, len(drafts))
		for i, d := range drafts {
			texts[i] = d.Text
		}
		vectors, err = uc.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, uc.markFailed(ctx, doc.ID, fmt.Errorf("embed: %w", err))
		}
		if len(vectors) != len(drafts) {
			err = domain.WrapError(domain.ErrEmbeddingProvider, "embed",
				fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(drafts)))
			return 0, uc.markFailed(ctx, doc.ID, err)
		}
	}

	doc.Status = domain.StatusReady
	if !createEmbeddings {
		doc.Status = domain.StatusPending
	}

	chunks, err := uc.store.ReplaceChunks(ctx, doc, drafts, vectors)
	if err != nil {
		return 0, uc.markFailed(ctx, doc.ID, fmt.Errorf("store: %w", err))
	}
	return len(chunks), nil
}

func (uc *IngestUseCase) parseAndChunk(ctx context.Context, doc *domain.Document) ([]domain.ChunkDraft, error) {
	reader, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer reader.Close()

	blocks, err := uc.parser.Parse(ctx, doc.SourceFilename, reader)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	drafts := uc.chunker.Split(blocks)
	if len(drafts) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "chunk", errors.New("chunking produced zero chunks"))
	}
	return drafts, nil
}

func (uc *IngestUseCase) markFailed(ctx context.Context, documentID string, cause error) error {
	if cause == nil {
		return nil
	}
	if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, cause.Error()); failErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", cause, failErr)
	}
	return cause
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
