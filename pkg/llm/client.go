// Package llm defines the completion client interface and its provider
// implementations.
package llm

import (
	"context"
)

// CompletionRole represents the role of a message in a conversation.
type CompletionRole string

const (
	// RoleSystem indicates a system message that provides instructions or context.
	RoleSystem CompletionRole = "system"
	// RoleUser indicates a message from the human user.
	RoleUser CompletionRole = "user"
	// RoleAssistant indicates a message from the AI assistant.
	RoleAssistant CompletionRole = "assistant"
)

// CompletionMessage represents a message in a completion request.
type CompletionMessage struct {
	Role    CompletionRole
	Content string
}

// CompletionRequest represents a request to generate a completion.
// JSONMode asks the provider to constrain output to a single JSON object
// where the underlying API supports it; providers without a native JSON
// mode ignore the flag (callers must parse defensively either way).
type CompletionRequest struct {
	Messages    []CompletionMessage
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// Usage reports token consumption for a completed request.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// CompletionResponse represents a response from a completion request.
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// Client defines the interface for language model interactions.
type Client interface {
	// Complete generates a completion synchronously. Exactly one attempt is
	// made; callers own any retry policy.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// ModelName returns the model this client targets.
	ModelName() string
}

// NewCompletionRequest creates a completion request with default values.
func NewCompletionRequest(messages []CompletionMessage) CompletionRequest {
	return CompletionRequest{
		Messages:    messages,
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleUser, Content: content}
}

// Middleware wraps a Client with additional behavior.
type Middleware func(Client) Client

// Chain applies middleware to a client in reverse order, so the first
// middleware listed is the outermost wrapper.
func Chain(client Client, middleware ...Middleware) Client {
	for i := len(middleware) - 1; i >= 0; i-- {
		client = middleware[i](client)
	}
	return client
}
