package rag

import (
	"context"
	"fmt"
	"sort"

	"pmbot/pkg/embedding"
	"pmbot/pkg/metrics"
	"pmbot/pkg/persistence"
)

// ScoredChunk pairs a stored chunk with its similarity to the question.
type ScoredChunk struct {
	Chunk persistence.Chunk
	Score float64
}

// Retriever embeds a question and ranks a project's stored chunks by cosine
// similarity.
type Retriever struct {
	engine   embedding.Engine
	store    *persistence.Store
	recorder metrics.Recorder
	topK     int
}

// NewRetriever creates a retriever returning at most topK chunks per query.
func NewRetriever(engine embedding.Engine, store *persistence.Store, recorder metrics.Recorder, topK int) *Retriever {
	return &Retriever{engine: engine, store: store, recorder: recorder, topK: topK}
}

// Retrieve returns the top-K chunks for the question, ranked by descending
// cosine similarity with ties broken by lower chunk index so results are
// deterministic. K saturates at the number of stored chunks. A project with
// no indexed content fails with persistence.ErrNoContent.
func (r *Retriever) Retrieve(ctx context.Context, projectID int64, question string) ([]ScoredChunk, error) {
	chunks, err := r.store.GetChunks(ctx, projectID)
	if err != nil {
		r.recorder.ObserveRetrieval("no_content", 0)
		return nil, err
	}

	queryVec, err := r.engine.Embed(ctx, question)
	if err != nil {
		r.recorder.ObserveRetrieval("embed_error", 0)
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	scored := make([]ScoredChunk, len(chunks))
	for i := range chunks {
		scored[i] = ScoredChunk{
			Chunk: chunks[i],
			Score: embedding.CosineSimilarity(queryVec, chunks[i].Embedding),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Index < scored[j].Chunk.Index
	})

	k := r.topK
	if k > len(scored) {
		k = len(scored)
	}
	top := scored[:k]

	r.recorder.ObserveRetrieval("success", len(top))
	return top, nil
}
