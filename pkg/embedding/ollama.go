package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/ollama/ollama/api"
)

// OllamaEngine generates embeddings with a local Ollama server.
type OllamaEngine struct {
	client *api.Client
	model  string

	mu   sync.Mutex
	dims int // learned from the first response
}

// NewOllamaEngine creates an engine backed by the Ollama server at hostURL
// (e.g. "http://localhost:11434").
func NewOllamaEngine(hostURL, model string) *OllamaEngine {
	parsed, err := url.Parse(hostURL)
	if err != nil {
		parsed, _ = url.Parse("http://localhost:11434")
	}
	return &OllamaEngine{
		client: api.NewClient(parsed, http.DefaultClient),
		model:  model,
	}
}

// Embed generates an embedding for a single text.
func (e *OllamaEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (e *OllamaEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	e.mu.Lock()
	if e.dims == 0 && len(resp.Embeddings) > 0 {
		e.dims = len(resp.Embeddings[0])
	}
	e.mu.Unlock()

	return resp.Embeddings, nil
}

// Dimensions returns the vector dimensionality, or 0 before the first call.
func (e *OllamaEngine) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dims
}

// Name returns the engine name.
func (e *OllamaEngine) Name() string {
	return fmt.Sprintf("ollama:%s", e.model)
}
