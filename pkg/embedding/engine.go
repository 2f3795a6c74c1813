// Package embedding provides embedding engines and vector similarity
// primitives for document retrieval.
package embedding

import (
	"context"
	"fmt"
	"math"

	"pmbot/pkg/config"
)

// Engine computes fixed-dimension embedding vectors. Ingestion and query
// must share one engine instance so both sides live in the same vector space.
type Engine interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of produced vectors.
	Dimensions() int

	// Name identifies the engine, e.g. "ollama:nomic-embed-text".
	Name() string
}

// NewEngine builds the configured embedding engine.
func NewEngine(cfg config.EmbeddingConfig) (Engine, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return NewOllamaEngine(cfg.Host, cfg.Model), nil
	case config.ProviderGemini:
		apiKey, err := config.GetAPIKey(config.ProviderGemini)
		if err != nil {
			return nil, err
		}
		return NewGeminiEngine(apiKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// CosineSimilarity computes the cosine similarity between two raw vectors.
// Returns 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
