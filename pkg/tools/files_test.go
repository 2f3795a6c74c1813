package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmbot/pkg/persistence"
	"pmbot/pkg/rag"
)

// flatEngine embeds any text as a constant-ish vector derived from its length.
type flatEngine struct{}

func (flatEngine) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func (e flatEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, _ := e.Embed(ctx, text)
		out[i] = v
	}
	return out, nil
}

func (flatEngine) Dimensions() int { return 2 }
func (flatEngine) Name() string    { return "test:flat" }

func newTestIngestor(t *testing.T, store *persistence.Store) *rag.Ingestor {
	t.Helper()
	chunker, err := rag.NewChunker(rag.ChunkerConfig{Size: 50, Overlap: 10})
	require.NoError(t, err)
	return rag.NewIngestor(chunker, flatEngine{}, store)
}

func TestGetFilesOpensSession(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, "Apollo")
	sessions := NewSessionStore(10 * time.Minute)
	ft := NewFileTools(store, sessions, newTestIngestor(t, store))

	result := ft.GetFiles(context.Background(), newTestTurn(map[string]string{"project_name": "Apollo"}))
	require.True(t, result.Success, result.Message)
	assert.Contains(t, result.Message, "Apollo")

	session, ok := sessions.Resolve(1, 1)
	require.True(t, ok)
	assert.Equal(t, project.ID, session.ProjectID)
}

func TestGetFilesValidation(t *testing.T) {
	store := openTestStore(t)
	ft := NewFileTools(store, NewSessionStore(10*time.Minute), newTestIngestor(t, store))
	ctx := context.Background()

	result := ft.GetFiles(ctx, newTestTurn(nil))
	assert.False(t, result.Success)

	result = ft.GetFiles(ctx, newTestTurn(map[string]string{"project_name": "Ghost"}))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Ghost")
}

func TestCompleteUploadIngestsAndRecords(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, "Apollo")
	sessions := NewSessionStore(10 * time.Minute)
	ft := NewFileTools(store, sessions, newTestIngestor(t, store))
	ctx := context.Background()

	sessions.Begin(1, 1, project.ID, project.Name)

	text := strings.Repeat("kickoff notes for the moon landing ", 10)
	result := ft.CompleteUpload(ctx, 1, 1, "notes.txt", text)
	require.True(t, result.Success, result.Message)
	assert.Contains(t, result.Message, "notes.txt")
	assert.Contains(t, result.Message, "Apollo")

	count, err := store.CountChunks(ctx, project.ID)
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	files, err := store.ListProjectFiles(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "notes.txt", files[0].FileName)
	assert.Equal(t, int64(len(text)), files[0].SizeBytes)
}

func TestCompleteUploadWithoutSession(t *testing.T) {
	store := openTestStore(t)
	ft := NewFileTools(store, NewSessionStore(10*time.Minute), newTestIngestor(t, store))

	result := ft.CompleteUpload(context.Background(), 1, 1, "notes.txt", "text")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "wasn't expecting a file")
}

func TestCompleteUploadEmptyDocument(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, "Apollo")
	sessions := NewSessionStore(10 * time.Minute)
	ft := NewFileTools(store, sessions, newTestIngestor(t, store))
	ctx := context.Background()

	sessions.Begin(1, 1, project.ID, project.Name)
	result := ft.CompleteUpload(ctx, 1, 1, "empty.txt", "")
	assert.False(t, result.Success)

	// Nothing was indexed or recorded.
	count, err := store.CountChunks(ctx, project.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	files, err := store.ListProjectFiles(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, files)
}
