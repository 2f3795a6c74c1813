package tools

import (
	"context"

	"pmbot/pkg/proto"
)

// defaultChatReply greets users whose message matched no action.
const defaultChatReply = "Hi! I can create and track tasks, manage projects, and answer questions about project documents. What would you like to do?"

// ChatTools implements the terminal general chat handler.
type ChatTools struct{}

// NewChatTools creates the general chat handler.
func NewChatTools() *ChatTools {
	return &ChatTools{}
}

// GeneralChat is the terminal fallback: it surfaces the extractor's note
// when the turn degraded (e.g. unparseable model output) and otherwise
// replies with a capability summary. Always succeeds.
func (c *ChatTools) GeneralChat(_ context.Context, turn *proto.Turn) Result {
	if turn.Note != "" {
		return ok(turn.Note)
	}
	return ok(defaultChatReply)
}
