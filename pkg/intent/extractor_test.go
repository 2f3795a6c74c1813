package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmbot/pkg/llm"
	"pmbot/pkg/metrics"
	"pmbot/pkg/proto"
)

// scriptedClient returns a fixed response or error and records the request.
type scriptedClient struct {
	response string
	err      error
	lastReq  llm.CompletionRequest
}

func (s *scriptedClient) Complete(_ context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	s.lastReq = in
	if s.err != nil {
		return llm.CompletionResponse{}, s.err
	}
	return llm.CompletionResponse{Content: s.response}, nil
}

func (s *scriptedClient) ModelName() string { return "scripted" }

func fixedClock() time.Time {
	return time.Date(2025, 7, 19, 12, 0, 0, 0, time.UTC)
}

func TestResolveCreateTask(t *testing.T) {
	client := &scriptedClient{response: `{"action": "create_task", "params": {"name": "Fix Bug", "description": null, "project_name": "Test", "assignee": "@Apoorav", "deadline": "2025-07-20"}}`}
	extractor := NewExtractor(client, metrics.NopRecorder{}).WithClock(fixedClock)

	turn := proto.NewTurn("Create a task 'Fix Bug' in project 'Test' for @Apoorav due tomorrow", "", 1, 1)
	extractor.Resolve(context.Background(), turn)

	assert.Equal(t, string(ActionCreateTask), turn.Action)
	assert.Equal(t, "Fix Bug", turn.Params.Get("name"))
	assert.Equal(t, "Test", turn.Params.Get("project_name"))
	assert.Equal(t, "@Apoorav", turn.Params.Get("assignee"))
	assert.Equal(t, "2025-07-20", turn.Params.Get("deadline"))

	// Declared but absent keys stay as explicit nulls, never omitted.
	require.Contains(t, turn.Params, "description")
	assert.Nil(t, turn.Params["description"])

	assert.True(t, client.lastReq.JSONMode)
}

func TestResolveListTasksEmptyParams(t *testing.T) {
	client := &scriptedClient{response: `{"action": "list_tasks", "params": {}}`}
	extractor := NewExtractor(client, metrics.NopRecorder{}).WithClock(fixedClock)

	turn := proto.NewTurn("show me my tasks", "", 1, 1)
	extractor.Resolve(context.Background(), turn)

	assert.Equal(t, string(ActionListTasks), turn.Action)
	assert.Empty(t, turn.Params)
	assert.Empty(t, turn.Note)
}

func TestResolveDropsUndeclaredParams(t *testing.T) {
	client := &scriptedClient{response: `{"action": "working_task", "params": {"task_name": "Fix Bug", "mood": "great"}}`}
	extractor := NewExtractor(client, metrics.NopRecorder{}).WithClock(fixedClock)

	turn := proto.NewTurn("I'm working on Fix Bug", "", 1, 1)
	extractor.Resolve(context.Background(), turn)

	assert.Equal(t, "Fix Bug", turn.Params.Get("task_name"))
	assert.NotContains(t, turn.Params, "mood")
}

func TestResolveFallsBackOnCompletionError(t *testing.T) {
	client := &scriptedClient{err: errors.New("connection refused")}
	extractor := NewExtractor(client, metrics.NopRecorder{}).WithClock(fixedClock)

	turn := proto.NewTurn("anything", "", 1, 1)
	extractor.Resolve(context.Background(), turn)

	assert.Equal(t, string(ActionGeneralChat), turn.Action)
	assert.Empty(t, turn.Params)
	assert.Equal(t, FallbackMessage, turn.Note)
}

func TestResolveFallsBackOnMalformedOutput(t *testing.T) {
	client := &scriptedClient{response: "I'm sorry, I can't help with that."}
	extractor := NewExtractor(client, metrics.NopRecorder{}).WithClock(fixedClock)

	turn := proto.NewTurn("anything", "", 1, 1)
	extractor.Resolve(context.Background(), turn)

	assert.Equal(t, string(ActionGeneralChat), turn.Action)
	assert.Equal(t, FallbackMessage, turn.Note)
}

func TestResolveRecoversObjectFromProse(t *testing.T) {
	client := &scriptedClient{response: `Sure! {"action": "general_chat", "params": {}}`}
	extractor := NewExtractor(client, metrics.NopRecorder{}).WithClock(fixedClock)

	turn := proto.NewTurn("hello", "", 1, 1)
	extractor.Resolve(context.Background(), turn)

	assert.Equal(t, string(ActionGeneralChat), turn.Action)
	assert.Empty(t, turn.Note)
}

func TestResolveUnknownActionGetsEmptyParams(t *testing.T) {
	client := &scriptedClient{response: `{"action": "make_coffee", "params": {"size": "large"}}`}
	extractor := NewExtractor(client, metrics.NopRecorder{}).WithClock(fixedClock)

	turn := proto.NewTurn("make me a coffee", "", 1, 1)
	extractor.Resolve(context.Background(), turn)

	// Out-of-vocabulary actions pass through; the router sends them to the
	// fallback handler.
	assert.Equal(t, "make_coffee", turn.Action)
	assert.Empty(t, turn.Params)
}

func TestBuildSystemPromptStatesDate(t *testing.T) {
	prompt := BuildSystemPrompt(fixedClock())
	assert.Contains(t, prompt, "2025-07-19")
	for _, action := range Actions() {
		assert.Contains(t, prompt, string(action))
	}
}

func TestBuildUserPromptAppendsReplyRef(t *testing.T) {
	assert.Equal(t, "assign this to @x", BuildUserPrompt("assign this to @x", ""))
	withRef := BuildUserPrompt("assign this to @x", "Fix Bug")
	assert.Contains(t, withRef, "assign this to @x")
	assert.Contains(t, withRef, "Fix Bug")
}
