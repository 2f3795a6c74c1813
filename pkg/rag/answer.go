package rag

import (
	"context"
	"fmt"
	"strings"

	"pmbot/pkg/llm"
	"pmbot/pkg/logx"
	"pmbot/pkg/utils"
)

const answerSystemPrompt = `You answer questions about a project using ONLY the context below.
Every statement in your answer must be supported by the context. If the
context does not contain the information needed to answer, say explicitly
that the project documents do not cover it. Do not use outside knowledge.`

const answerMaxTokens = 1024

// Answerer assembles retrieved chunks into a bounded context block and asks
// the completion service for a grounded answer.
type Answerer struct {
	client  llm.Client
	counter *utils.TokenCounter
	budget  int // context block token budget
	logger  *logx.Logger
}

// NewAnswerer creates an answerer with the given context token budget.
func NewAnswerer(client llm.Client, counter *utils.TokenCounter, budget int) *Answerer {
	return &Answerer{
		client:  client,
		counter: counter,
		budget:  budget,
		logger:  logx.NewLogger("rag"),
	}
}

// BuildContext renders the selected chunks as a bullet list, dropping
// trailing chunks that would exceed the token budget. At least one chunk is
// always kept so the lowest-ranked context never starves the answer.
func (a *Answerer) BuildContext(chunks []ScoredChunk) string {
	var b strings.Builder
	used := 0
	for i := range chunks {
		line := "- " + strings.TrimSpace(chunks[i].Chunk.Content) + "\n"
		cost := a.counter.CountTokens(line)
		if i > 0 && used+cost > a.budget {
			a.logger.Debug("Context budget reached: kept %d of %d chunks", i, len(chunks))
			break
		}
		b.WriteString(line)
		used += cost
	}
	return strings.TrimRight(b.String(), "\n")
}

// Answer issues one completion request grounded in the retrieved chunks and
// returns the model's answer verbatim. Any failure surfaces as an error;
// no partial answer is ever returned.
func (a *Answerer) Answer(ctx context.Context, question string, chunks []ScoredChunk) (string, error) {
	if len(chunks) == 0 {
		return "", fmt.Errorf("no context chunks supplied")
	}

	contextBlock := a.BuildContext(chunks)
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, question)

	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.CompletionMessage{
			llm.NewSystemMessage(answerSystemPrompt),
			llm.NewUserMessage(userPrompt),
		},
		MaxTokens:   answerMaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("completion failed during answer synthesis: %w", err)
	}

	return resp.Content, nil
}
