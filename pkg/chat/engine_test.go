package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmbot/pkg/intent"
	"pmbot/pkg/llm"
	"pmbot/pkg/metrics"
	"pmbot/pkg/persistence"
	"pmbot/pkg/rag"
	"pmbot/pkg/tools"
)

// queueClient replays scripted completions in order.
type queueClient struct {
	responses []string
	calls     int
}

func (q *queueClient) Complete(context.Context, llm.CompletionRequest) (llm.CompletionResponse, error) {
	if q.calls >= len(q.responses) {
		return llm.CompletionResponse{}, errors.New("no scripted response left")
	}
	content := q.responses[q.calls]
	q.calls++
	return llm.CompletionResponse{Content: content}, nil
}

func (q *queueClient) ModelName() string { return "queued" }

// unitEngine embeds everything as the same unit vector, so any stored chunk
// matches any question.
type unitEngine struct{}

func (unitEngine) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (e unitEngine) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (unitEngine) Dimensions() int { return 2 }
func (unitEngine) Name() string    { return "test:unit" }

func newTestEngine(t *testing.T, client llm.Client) (*Engine, *persistence.Store) {
	t.Helper()

	store, err := persistence.Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	chunker, err := rag.NewChunker(rag.ChunkerConfig{Size: 100, Overlap: 20})
	require.NoError(t, err)

	engine, err := NewEngine(Deps{
		Extractor: intent.NewExtractor(client, metrics.NopRecorder{}),
		Store:     store,
		Retriever: rag.NewRetriever(unitEngine{}, store, metrics.NopRecorder{}, 5),
		Answerer:  rag.NewAnswerer(client, nil, 1000),
		Ingestor:  rag.NewIngestor(chunker, unitEngine{}, store),
		Sessions:  tools.NewSessionStore(10 * time.Minute),
		Recorder:  metrics.NopRecorder{},
	})
	require.NoError(t, err)
	return engine, store
}

func TestHandleTurnCreatesTask(t *testing.T) {
	client := &queueClient{responses: []string{
		`{"action": "create_task", "params": {"name": "Fix Bug", "description": null, "project_name": null, "assignee": "@Apoorav", "deadline": "2025-07-20"}}`,
	}}
	engine, store := newTestEngine(t, client)

	response := engine.HandleTurn(context.Background(),
		"Create a task 'Fix Bug' for @Apoorav due tomorrow", "", 1, 1)
	assert.Contains(t, response, "Fix Bug")
	assert.Contains(t, response, "@Apoorav")
	assert.Contains(t, response, "2025-07-20")

	task, err := store.GetTaskByName(context.Background(), "Fix Bug")
	require.NoError(t, err)
	assert.Equal(t, "@Apoorav", task.Assignee)
}

func TestHandleTurnListsTasks(t *testing.T) {
	client := &queueClient{responses: []string{
		`{"action": "list_tasks", "params": {}}`,
	}}
	engine, store := newTestEngine(t, client)

	_, err := store.CreateTask(context.Background(), 0, "Open Item", "", "user:1", "")
	require.NoError(t, err)

	response := engine.HandleTurn(context.Background(), "show me my tasks", "", 1, 1)
	assert.Contains(t, response, "Open Item")
}

func TestHandleTurnRecoversFromWrappedOutput(t *testing.T) {
	client := &queueClient{responses: []string{
		"Here you go:\n```json\n" + `{"action": "create_project", "params": {"name": "Apollo", "description": null, "raw_input": null}}` + "\n```",
	}}
	engine, store := newTestEngine(t, client)

	response := engine.HandleTurn(context.Background(), "start a project called Apollo", "", 1, 1)
	assert.Contains(t, response, "Apollo")

	_, err := store.GetProjectByName(context.Background(), "Apollo")
	assert.NoError(t, err)
}

func TestHandleTurnFallsBackOnGibberish(t *testing.T) {
	client := &queueClient{responses: []string{
		"I have no idea what you mean by that.",
	}}
	engine, _ := newTestEngine(t, client)

	response := engine.HandleTurn(context.Background(), "flurble wumpus", "", 1, 1)
	assert.Equal(t, intent.FallbackMessage, response)
}

func TestHandleTurnNeverPanicsOnCompletionFailure(t *testing.T) {
	// Empty queue: every completion fails.
	engine, _ := newTestEngine(t, &queueClient{})

	response := engine.HandleTurn(context.Background(), "anything", "", 1, 1)
	assert.Equal(t, intent.FallbackMessage, response)
}

func TestUploadThenAskFlow(t *testing.T) {
	client := &queueClient{responses: []string{
		`{"action": "create_project", "params": {"name": "Apollo", "description": null, "raw_input": null}}`,
		`{"action": "get_files", "params": {"project_name": "Apollo"}}`,
		`{"action": "ask_project", "params": {"project_name": "Apollo", "question": "When is the kickoff?"}}`,
		"The kickoff is Monday.",
	}}
	engine, _ := newTestEngine(t, client)
	ctx := context.Background()

	engine.HandleTurn(ctx, "create a project called Apollo", "", 1, 1)

	response := engine.HandleTurn(ctx, "I want to add a file to Apollo", "", 1, 1)
	assert.Contains(t, response, "Apollo")

	text := strings.Repeat("the kickoff is Monday at ten ", 10)
	response = engine.HandleUpload(ctx, 1, 1, "notes.txt", text)
	assert.Contains(t, response, "Indexed")

	response = engine.HandleTurn(ctx, "when is the kickoff for Apollo?", "", 1, 1)
	assert.Equal(t, "The kickoff is Monday.", response)
}

func TestBeginUploadSkipsExtraction(t *testing.T) {
	client := &queueClient{responses: []string{
		`{"action": "create_project", "params": {"name": "Apollo", "description": null, "raw_input": null}}`,
	}}
	engine, _ := newTestEngine(t, client)
	ctx := context.Background()

	engine.HandleTurn(ctx, "create a project called Apollo", "", 1, 1)

	// The scripted queue is now empty, so opening the session must not
	// touch the model.
	message, opened := engine.BeginUpload(ctx, 1, 1, "Apollo")
	assert.True(t, opened)
	assert.Contains(t, message, "Apollo")

	response := engine.HandleUpload(ctx, 1, 1, "notes.txt", "the kickoff is Monday at ten")
	assert.Contains(t, response, "Indexed")
}

func TestBeginUploadUnknownProject(t *testing.T) {
	engine, _ := newTestEngine(t, &queueClient{})

	message, opened := engine.BeginUpload(context.Background(), 1, 1, "Missing")
	assert.False(t, opened)
	assert.Contains(t, message, "Missing")
}

func TestAskWithoutContentFailsWithGuidance(t *testing.T) {
	client := &queueClient{responses: []string{
		`{"action": "create_project", "params": {"name": "Apollo", "description": null, "raw_input": null}}`,
		`{"action": "ask_project", "params": {"project_name": "Apollo", "question": "When is the kickoff?"}}`,
	}}
	engine, _ := newTestEngine(t, client)
	ctx := context.Background()

	engine.HandleTurn(ctx, "create a project called Apollo", "", 1, 1)
	response := engine.HandleTurn(ctx, "when is the kickoff for Apollo?", "", 1, 1)
	assert.Contains(t, response, "no document content indexed")
}
