package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEngine derives a small deterministic vector from the text itself so any
// chunk can be embedded without a lookup table.
type hashEngine struct{}

func (hashEngine) Embed(_ context.Context, text string) ([]float32, error) {
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return []float32{sum, float32(len(text)), 1}, nil
}

func (e hashEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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

func (hashEngine) Dimensions() int { return 3 }
func (hashEngine) Name() string    { return "test:hash" }

func TestIngestIndexesDocument(t *testing.T) {
	store := openRetrievalStore(t)
	ctx := context.Background()

	chunker, err := NewChunker(ChunkerConfig{Size: 50, Overlap: 10})
	require.NoError(t, err)
	ing := NewIngestor(chunker, hashEngine{}, store)

	text := strings.Repeat("The release ships at the end of the quarter. ", 10)
	n, err := ing.Ingest(ctx, 1, text)
	require.NoError(t, err)
	assert.Greater(t, n, 1)

	stored, err := store.GetChunks(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, stored, n)
	for i, c := range stored {
		assert.Equal(t, i, c.Index)
		assert.Len(t, c.Embedding, 3)
	}
}

func TestIngestReplacesPriorIndex(t *testing.T) {
	store := openRetrievalStore(t)
	ctx := context.Background()

	chunker, err := NewChunker(ChunkerConfig{Size: 50, Overlap: 10})
	require.NoError(t, err)
	ing := NewIngestor(chunker, hashEngine{}, store)

	_, err = ing.Ingest(ctx, 1, strings.Repeat("old document text ", 20))
	require.NoError(t, err)

	n, err := ing.Ingest(ctx, 1, "tiny new document")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := store.CountChunks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestEmptyDocumentLeavesIndexUntouched(t *testing.T) {
	store := openRetrievalStore(t)
	ctx := context.Background()

	chunker, err := NewChunker(ChunkerConfig{Size: 50, Overlap: 10})
	require.NoError(t, err)
	ing := NewIngestor(chunker, hashEngine{}, store)

	_, err = ing.Ingest(ctx, 1, "existing content")
	require.NoError(t, err)

	_, err = ing.Ingest(ctx, 1, "")
	assert.Error(t, err)

	count, err := store.CountChunks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestIdempotent(t *testing.T) {
	store := openRetrievalStore(t)
	ctx := context.Background()

	chunker, err := NewChunker(ChunkerConfig{Size: 50, Overlap: 10})
	require.NoError(t, err)
	ing := NewIngestor(chunker, hashEngine{}, store)

	text := strings.Repeat("the same document every time ", 15)
	first, err := ing.Ingest(ctx, 1, text)
	require.NoError(t, err)
	second, err := ing.Ingest(ctx, 1, text)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	count, err := store.CountChunks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, count)
}
