// Package proto defines the per-turn state shared between the intent
// extractor, the router, and the tool handlers.
package proto

// Params maps declared parameter keys to extracted values. A nil value means
// the parameter was declared for the action but not present in the input;
// declared keys are never omitted.
type Params map[string]*string

// Get returns the value for key, or "" if the key is absent or null.
func (p Params) Get(key string) string {
	if v, ok := p[key]; ok && v != nil {
		return *v
	}
	return ""
}

// Has reports whether key carries a non-null, non-empty value.
func (p Params) Has(key string) bool {
	return p.Get(key) != ""
}

// Turn carries one utterance through extraction, routing, and handling.
// Created fresh per incoming message and discarded after the response is
// sent; the only cross-turn reference is the optional ReplyRef.
type Turn struct {
	// Input is the raw utterance text.
	Input string

	// ReplyRef is an opaque back-reference extracted from a replied-to
	// message, used to disambiguate which entity the utterance concerns.
	ReplyRef string

	// UserID and ChatID identify the caller and conversation. Both are
	// opaque to the core and owned by the chat adapter.
	UserID int64
	ChatID int64

	// Action and Params are populated by the intent extractor.
	Action string
	Params Params

	// Note carries an extractor-generated explanation (e.g. why the turn
	// fell back to general chat) for the handler to surface.
	Note string

	// Response is the final text returned to the user.
	Response string
}

// NewTurn creates a turn for an incoming message.
func NewTurn(input, replyRef string, userID, chatID int64) *Turn {
	return &Turn{
		Input:    input,
		ReplyRef: replyRef,
		UserID:   userID,
		ChatID:   chatID,
		Params:   Params{},
	}
}
