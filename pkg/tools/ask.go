package tools

import (
	"context"
	"errors"
	"fmt"

	"pmbot/pkg/logx"
	"pmbot/pkg/persistence"
	"pmbot/pkg/proto"
	"pmbot/pkg/rag"
)

// AskTools implements the project question-answering handler on top of the
// retrieval engine.
type AskTools struct {
	store     *persistence.Store
	retriever *rag.Retriever
	answerer  *rag.Answerer
	logger    *logx.Logger
}

// NewAskTools creates the question-answering handler.
func NewAskTools(store *persistence.Store, retriever *rag.Retriever, answerer *rag.Answerer) *AskTools {
	return &AskTools{
		store:     store,
		retriever: retriever,
		answerer:  answerer,
		logger:    logx.NewLogger("tools"),
	}
}

// AskProject handles ask_project: retrieves the most relevant document
// chunks for the question and synthesizes a grounded answer. Any failure
// surfaces as a single descriptive message; no partial answer is returned.
func (a *AskTools) AskProject(ctx context.Context, turn *proto.Turn) Result {
	projectName := turn.Params.Get("project_name")
	if projectName == "" {
		return fail("The project name was missing. Which project is your question about?")
	}
	question := turn.Params.Get("question")
	if question == "" {
		question = turn.Input
	}

	project, err := a.store.GetProjectByName(ctx, projectName)
	if errors.Is(err, persistence.ErrNotFound) {
		return fail(fmt.Sprintf("I couldn't find a project named '%s'.", projectName))
	}
	if err != nil {
		a.logger.Error("Project lookup failed: %v", err)
		return fail("Something went wrong while looking up the project. Please try again.")
	}

	chunks, err := a.retriever.Retrieve(ctx, project.ID, question)
	if errors.Is(err, persistence.ErrNoContent) {
		return fail(fmt.Sprintf("There is no document content indexed for '%s' yet. Upload a file first.", project.Name))
	}
	if err != nil {
		a.logger.Error("Retrieval failed for project %d: %v", project.ID, err)
		return fail("Something went wrong while searching the project documents. Please try again.")
	}

	answer, err := a.answerer.Answer(ctx, question, chunks)
	if err != nil {
		a.logger.Error("Answer synthesis failed for project %d: %v", project.ID, err)
		return fail("Something went wrong while answering from the project documents. Please try again.")
	}
	return ok(answer)
}
