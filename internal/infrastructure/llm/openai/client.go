package openai

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/toolkitrag/grounded/internal/core/domain"
	"github.com/toolkitrag/grounded/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible backend for embeddings and chat
// completions. Calls run under the shared resilience executor: transient
// failures (timeouts, rate limits, 5xx) retry a bounded number of times,
// permanent ones surface immediately.
type Client struct {
	baseURL     string
	apiKey      string
	embedModel  string
	chatModel   string
	temperature float64
	dimensions  int
	httpClient  *http.Client
	executor    *resilience.Executor
}

type Config struct {
	BaseURL     string
	APIKey      string
	EmbedModel  string
	ChatModel   string
	Temperature float64
	Dimensions  int
	Executor    *resilience.Executor
}

func New(cfg Config) *Client {
	executor := cfg.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		embedModel:  cfg.EmbedModel,
		chatModel:   cfg.ChatModel,
		temperature: cfg.Temperature,
		dimensions:  cfg.Dimensions,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		executor:    executor,
	}
}

// Embedder adapts the client to the embedding port.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Dimensions() int {
	return e.client.dimensions
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}
	// Only text-embedding-3-* models accept an explicit dimensions knob.
	if strings.HasPrefix(e.client.embedModel, "text-embedding-3") {
		request["dimensions"] = e.client.dimensions
	}

	var response struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}

	call := func(ctx context.Context) error {
		return e.client.postJSON(ctx, "/v1/embeddings", request, &response, "embeddings")
	}
	if err := e.client.executor.Execute(ctx, "openai.embeddings", call, classifyBackendError); err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingProvider, "embed texts", wrapTemporaryIfNeeded(err))
	}

	if len(response.Data) != len(texts) {
		return nil, domain.WrapError(domain.ErrEmbeddingProvider, "embed texts",
			fmt.Errorf("vectors/texts mismatch: %d/%d", len(response.Data), len(texts)))
	}

	sort.Slice(response.Data, func(i, j int) bool {
		return response.Data[i].Index < response.Data[j].Index
	})
	out := make([][]float32, len(response.Data))
	for i, d := range response.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingProvider, "embed query",
			fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

// Generator adapts the client to the answer-model port.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	request := map[string]any{
		"model":       g.client.chatModel,
		"temperature": g.client.temperature,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	call := func(ctx context.Context) error {
		return g.client.postJSON(ctx, "/v1/chat/completions", request, &response, "chat")
	}
	if err := g.client.executor.Execute(ctx, "openai.chat", call, classifyBackendError); err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "chat completion", wrapTemporaryIfNeeded(err))
	}

	if len(response.Choices) == 0 {
		return "", domain.WrapError(domain.ErrGeneration, "chat completion",
			fmt.Errorf("empty choices in response"))
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
