package intent

import (
	"context"
	"time"

	"pmbot/pkg/llm"
	"pmbot/pkg/logx"
	"pmbot/pkg/metrics"
	"pmbot/pkg/proto"
)

// FallbackMessage is surfaced when an utterance cannot be understood.
const FallbackMessage = "Sorry, I couldn't understand that request. Could you rephrase it?"

const (
	extractMaxTokens   = 512
	extractTemperature = 0.0
)

// Extractor resolves an utterance into an (action, params) pair with exactly
// one completion request. It never fails past its boundary: on any parse,
// format, or transport error the turn falls back to general chat with an
// explanatory note.
type Extractor struct {
	client   llm.Client
	recorder metrics.Recorder
	logger   *logx.Logger
	now      func() time.Time
}

// NewExtractor creates an extractor on the given completion client.
func NewExtractor(client llm.Client, recorder metrics.Recorder) *Extractor {
	return &Extractor{
		client:   client,
		recorder: recorder,
		logger:   logx.NewLogger("intent"),
		now:      time.Now,
	}
}

// WithClock overrides the clock used for date resolution. Tests use this to
// pin "today".
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Resolve populates turn.Action and turn.Params from turn.Input.
func (e *Extractor) Resolve(ctx context.Context, turn *proto.Turn) {
	req := llm.CompletionRequest{
		Messages: []llm.CompletionMessage{
			llm.NewSystemMessage(BuildSystemPrompt(e.now())),
			llm.NewUserMessage(BuildUserPrompt(turn.Input, turn.ReplyRef)),
		},
		MaxTokens:   extractMaxTokens,
		Temperature: extractTemperature,
		JSONMode:    true,
	}

	resp, err := e.client.Complete(ctx, req)
	if err != nil {
		e.logger.Warn("Completion failed during extraction (%s): %v", llm.TypeOf(err), err)
		e.fallback(turn, "completion_error")
		return
	}

	extraction, err := ParseExtraction(resp.Content)
	if err != nil {
		e.logger.Warn("Unparseable extraction output: %v", err)
		e.logger.DebugToFile("intent_raw.log", "raw output: %s", resp.Content)
		e.fallback(turn, "format_error")
		return
	}

	turn.Action = string(extraction.Action)
	turn.Params = normalizeParams(extraction.Action, extraction.Params)
	e.logger.Debug("Resolved %q -> %s %v", turn.Input, turn.Action, describeParams(turn.Params))
}

func (e *Extractor) fallback(turn *proto.Turn, reason string) {
	turn.Action = string(ActionGeneralChat)
	turn.Params = proto.Params{}
	turn.Note = FallbackMessage
	e.recorder.ObserveFallback(reason)
}

// normalizeParams projects extracted params onto the action's declared
// schema: undeclared keys are dropped, declared keys missing from the
// extraction are kept as explicit nulls. Actions outside the vocabulary get
// empty params; the router sends them to the fallback handler.
func normalizeParams(action Action, extracted map[string]*string) proto.Params {
	specs, ok := Vocabulary[action]
	if !ok {
		return proto.Params{}
	}
	params := proto.Params{}
	for _, spec := range specs {
		params[spec.Key] = extracted[spec.Key]
	}
	return params
}

func describeParams(params proto.Params) map[string]string {
	out := make(map[string]string, len(params))
	for key, value := range params {
		if value == nil {
			out[key] = "<null>"
		} else {
			out[key] = *value
		}
	}
	return out
}
