package bootstrap

import (
	"context"
	"fmt"

	"github.com/toolkitrag/grounded/internal/config"
	"github.com/toolkitrag/grounded/internal/core/ports"
	"github.com/toolkitrag/grounded/internal/core/usecase"
	"github.com/toolkitrag/grounded/internal/infrastructure/chunking"
	"github.com/toolkitrag/grounded/internal/infrastructure/llm/localstub"
	"github.com/toolkitrag/grounded/internal/infrastructure/llm/openai"
	"github.com/toolkitrag/grounded/internal/infrastructure/parser"
	natsqueue "github.com/toolkitrag/grounded/internal/infrastructure/queue/nats"
	"github.com/toolkitrag/grounded/internal/infrastructure/repository/postgres"
	"github.com/toolkitrag/grounded/internal/infrastructure/storage/localfs"
	"github.com/toolkitrag/grounded/internal/infrastructure/vector/pgstore"
)

type App struct {
	Config config.Config

	Queue    ports.ReindexQueue
	Repo     ports.DocumentRepository
	IngestUC ports.DocumentIngestor
	AnswerUC ports.AnswerService
	SearchUC ports.Retriever

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure document schema: %w", err)
	}

	chatLogs := postgres.NewChatLogRepository(db)
	if err := chatLogs.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure chat log schema: %w", err)
	}

	vectorStore := pgstore.New(db, cfg.EmbeddingDimensions)
	if err := vectorStore.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure chunk schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := natsqueue.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init reindex queue: %w", err)
	}

	embedder, model, err := buildProviders(cfg)
	if err != nil {
		return nil, err
	}

	chunker := chunking.NewChunker(cfg.ChunkMaxChars, cfg.ChunkOverlap)
	parsers := parser.NewRegistry()

	ingestUC := usecase.NewIngestUseCase(repo, storage, parsers, chunker, embedder, vectorStore, queue)
	retrieveUC := usecase.NewRetrieveUseCase(embedder, vectorStore, cfg.RAGTopK, cfg.RAGSimilarityThreshold)
	answerUC := usecase.NewAnswerUseCase(retrieveUC, model, chatLogs, cfg.RAGMaxContextChars)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC: ingestUC,
		AnswerUC: answerUC,
		SearchUC: retrieveUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// buildProviders resolves the embedding and chat backends once at startup.
// The local stub exists for air-gapped and test deployments; it never calls
// out and produces deterministic vectors.
func buildProviders(cfg config.Config) (ports.Embedder, ports.AnswerModel, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		client := openai.New(openai.Config{
			BaseURL:     cfg.OpenAIBaseURL,
			APIKey:      cfg.OpenAIAPIKey,
			EmbedModel:  cfg.OpenAIEmbedModel,
			ChatModel:   cfg.OpenAIChatModel,
			Temperature: cfg.OpenAITemperature,
			Dimensions:  cfg.EmbeddingDimensions,
		})
		return openai.NewEmbedder(client), openai.NewGenerator(client), nil
	case "local-stub":
		client := openai.New(openai.Config{
			BaseURL:     cfg.OpenAIBaseURL,
			APIKey:      cfg.OpenAIAPIKey,
			ChatModel:   cfg.OpenAIChatModel,
			Temperature: cfg.OpenAITemperature,
		})
		return localstub.New(cfg.EmbeddingDimensions), openai.NewGenerator(client), nil
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
