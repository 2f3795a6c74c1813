package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmbot/pkg/metrics"
	"pmbot/pkg/persistence"
)

// vectorEngine embeds texts through a fixed lookup table.
type vectorEngine struct {
	vectors map[string][]float32
}

func (e *vectorEngine) Embed(_ context.Context, text string) ([]float32, error) {
	v, ok := e.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func (e *vectorEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *vectorEngine) Dimensions() int { return 3 }
func (e *vectorEngine) Name() string    { return "test:lookup" }

// openRetrievalStore opens a fresh store seeded with one project, whose id
// is always 1.
func openRetrievalStore(t *testing.T) *persistence.Store {
	t.Helper()
	store, err := persistence.Open(filepath.Join(t.TempDir(), "rag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	project, err := store.CreateProject(context.Background(), "Indexed", "", 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), project.ID)
	return store
}

func seedChunks(t *testing.T, store *persistence.Store, projectID int64, chunks []persistence.Chunk) {
	t.Helper()
	require.NoError(t, store.PutChunks(context.Background(), projectID, chunks))
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	store := openRetrievalStore(t)
	ctx := context.Background()

	seedChunks(t, store, 1, []persistence.Chunk{
		{Index: 0, Content: "off-topic", Embedding: []float32{0, 1, 0}},
		{Index: 1, Content: "on-topic", Embedding: []float32{1, 0, 0}},
		{Index: 2, Content: "related", Embedding: []float32{1, 1, 0}},
	})

	engine := &vectorEngine{vectors: map[string][]float32{
		"what is the plan?": {1, 0, 0},
	}}
	r := NewRetriever(engine, store, metrics.NopRecorder{}, 2)

	got, err := r.Retrieve(ctx, 1, "what is the plan?")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "on-topic", got[0].Chunk.Content)
	assert.Equal(t, "related", got[1].Chunk.Content)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestRetrieveTiesBreakByLowerIndex(t *testing.T) {
	store := openRetrievalStore(t)
	ctx := context.Background()

	// Identical vectors produce identical scores; rank must follow index.
	seedChunks(t, store, 1, []persistence.Chunk{
		{Index: 0, Content: "first", Embedding: []float32{1, 0, 0}},
		{Index: 1, Content: "second", Embedding: []float32{1, 0, 0}},
		{Index: 2, Content: "third", Embedding: []float32{1, 0, 0}},
	})

	engine := &vectorEngine{vectors: map[string][]float32{"q": {1, 0, 0}}}
	r := NewRetriever(engine, store, metrics.NopRecorder{}, 2)

	got, err := r.Retrieve(ctx, 1, "q")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Chunk.Content)
	assert.Equal(t, "second", got[1].Chunk.Content)

	// Same inputs, same ranking.
	again, err := r.Retrieve(ctx, 1, "q")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestRetrieveKSaturatesAtChunkCount(t *testing.T) {
	store := openRetrievalStore(t)
	ctx := context.Background()

	seedChunks(t, store, 1, []persistence.Chunk{
		{Index: 0, Content: "a", Embedding: []float32{1, 0, 0}},
		{Index: 1, Content: "b", Embedding: []float32{0, 1, 0}},
		{Index: 2, Content: "c", Embedding: []float32{0, 0, 1}},
	})

	engine := &vectorEngine{vectors: map[string][]float32{"q": {1, 1, 1}}}
	r := NewRetriever(engine, store, metrics.NopRecorder{}, 5)

	got, err := r.Retrieve(ctx, 1, "q")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRetrieveNoContent(t *testing.T) {
	store := openRetrievalStore(t)

	engine := &vectorEngine{vectors: map[string][]float32{"q": {1, 0, 0}}}
	r := NewRetriever(engine, store, metrics.NopRecorder{}, 5)

	_, err := r.Retrieve(context.Background(), 99, "q")
	assert.ErrorIs(t, err, persistence.ErrNoContent)
}

func TestRetrieveEmbedFailure(t *testing.T) {
	store := openRetrievalStore(t)
	seedChunks(t, store, 1, []persistence.Chunk{
		{Index: 0, Content: "a", Embedding: []float32{1, 0, 0}},
	})

	engine := &vectorEngine{vectors: map[string][]float32{}}
	r := NewRetriever(engine, store, metrics.NopRecorder{}, 5)

	_, err := r.Retrieve(context.Background(), 1, "unknown question")
	require.Error(t, err)
	assert.NotErrorIs(t, err, persistence.ErrNoContent)
}
