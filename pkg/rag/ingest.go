package rag

import (
	"context"
	"fmt"

	"pmbot/pkg/embedding"
	"pmbot/pkg/logx"
	"pmbot/pkg/persistence"
)

// Ingestor chunks document text, embeds every chunk, and replaces the
// project's persisted chunk set.
type Ingestor struct {
	chunker *Chunker
	engine  embedding.Engine
	store   *persistence.Store
	logger  *logx.Logger
}

// NewIngestor creates an ingestor. The engine must be the same one used by
// the retriever.
func NewIngestor(chunker *Chunker, engine embedding.Engine, store *persistence.Store) *Ingestor {
	return &Ingestor{
		chunker: chunker,
		engine:  engine,
		store:   store,
		logger:  logx.NewLogger("rag"),
	}
}

// Ingest indexes the extracted text of a document for a project. The full
// chunk set for the project is replaced, not appended to; re-ingesting the
// same text is idempotent. An empty document is an error and leaves the
// existing index untouched.
func (ing *Ingestor) Ingest(ctx context.Context, projectID int64, text string) (int, error) {
	pieces := ing.chunker.Split(text)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("document yielded no chunks; nothing was indexed")
	}

	vectors, err := ing.engine.EmbedBatch(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("failed to embed %d chunks: %w", len(pieces), err)
	}
	if len(vectors) != len(pieces) {
		return 0, fmt.Errorf("embedding engine returned %d vectors for %d chunks", len(vectors), len(pieces))
	}

	chunks := make([]persistence.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = persistence.Chunk{
			ProjectID: projectID,
			Index:     i,
			Content:   piece,
			Embedding: vectors[i],
		}
	}

	if err := ing.store.PutChunks(ctx, projectID, chunks); err != nil {
		return 0, fmt.Errorf("failed to persist chunk index: %w", err)
	}

	ing.logger.Info("Indexed %d chunks for project %d (%s)", len(chunks), projectID, ing.engine.Name())
	return len(chunks), nil
}
