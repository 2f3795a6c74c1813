// Package chat runs the per-turn pipeline: intent extraction, routing, and
// handler dispatch, strictly in that order.
package chat

import (
	"context"

	"pmbot/pkg/dispatch"
	"pmbot/pkg/intent"
	"pmbot/pkg/logx"
	"pmbot/pkg/metrics"
	"pmbot/pkg/persistence"
	"pmbot/pkg/proto"
	"pmbot/pkg/rag"
	"pmbot/pkg/tools"
)

// Engine processes one conversation turn at a time. Turns within one
// conversation are strictly sequential; the only state shared across
// concurrent conversations is the persistent store, which serializes its own
// writes.
type Engine struct {
	extractor  *intent.Extractor
	dispatcher *dispatch.Dispatcher
	files      *tools.FileTools
	logger     *logx.Logger
}

// Deps bundles the collaborators needed to assemble an engine.
type Deps struct {
	Extractor *intent.Extractor
	Store     *persistence.Store
	Retriever *rag.Retriever
	Answerer  *rag.Answerer
	Ingestor  *rag.Ingestor
	Sessions  *tools.SessionStore
	Recorder  metrics.Recorder
}

// NewEngine builds the full handler registry and the dispatcher over it.
func NewEngine(deps Deps) (*Engine, error) {
	taskTools := tools.NewTaskTools(deps.Store)
	projectTools := tools.NewProjectTools(deps.Store)
	fileTools := tools.NewFileTools(deps.Store, deps.Sessions, deps.Ingestor)
	askTools := tools.NewAskTools(deps.Store, deps.Retriever, deps.Answerer)
	linkTools := tools.NewLinkTools(deps.Store)
	reportTools := tools.NewReportTools(deps.Store)
	chatTools := tools.NewChatTools()

	handlers := map[dispatch.HandlerID]tools.Handler{
		dispatch.HandlerCreateTask:     tools.HandlerFunc(taskTools.CreateTask),
		dispatch.HandlerAssignTask:     tools.HandlerFunc(taskTools.AssignTask),
		dispatch.HandlerWorkingTask:    tools.HandlerFunc(taskTools.WorkingTask),
		dispatch.HandlerCompletedTask:  tools.HandlerFunc(taskTools.CompletedTask),
		dispatch.HandlerListTasks:      tools.HandlerFunc(taskTools.ListTasks),
		dispatch.HandlerHistory:        tools.HandlerFunc(reportTools.History),
		dispatch.HandlerDeleteTask:     tools.HandlerFunc(taskTools.DeleteTask),
		dispatch.HandlerTaskDetails:    tools.HandlerFunc(taskTools.TaskDetails),
		dispatch.HandlerCreateProject:  tools.HandlerFunc(projectTools.CreateProject),
		dispatch.HandlerDeleteProject:  tools.HandlerFunc(projectTools.DeleteProject),
		dispatch.HandlerProjectDetails: tools.HandlerFunc(projectTools.ProjectDetails),
		dispatch.HandlerProjectFiles:   tools.HandlerFunc(projectTools.ProjectFiles),
		dispatch.HandlerGetFiles:       tools.HandlerFunc(fileTools.GetFiles),
		dispatch.HandlerLink:           tools.HandlerFunc(linkTools.Link),
		dispatch.HandlerAskProject:     tools.HandlerFunc(askTools.AskProject),
		dispatch.HandlerGeneralChat:    tools.HandlerFunc(chatTools.GeneralChat),
	}

	dispatcher, err := dispatch.NewDispatcher(handlers, deps.Recorder)
	if err != nil {
		return nil, err
	}

	return &Engine{
		extractor:  deps.Extractor,
		dispatcher: dispatcher,
		files:      fileTools,
		logger:     logx.NewLogger("chat"),
	}, nil
}

// HandleTurn processes one utterance end to end and returns the response
// text. It never returns an error: every failure mode ends in a
// user-facing message.
func (e *Engine) HandleTurn(ctx context.Context, input, replyRef string, userID, chatID int64) string {
	turn := proto.NewTurn(input, replyRef, userID, chatID)

	e.extractor.Resolve(ctx, turn)
	result := e.dispatcher.Dispatch(ctx, turn)
	turn.Response = result.Message

	if !result.Success {
		e.logger.Debug("Turn failed: action=%s message=%q", turn.Action, result.Message)
	}
	return turn.Response
}

// BeginUpload opens an upload session for the named project directly,
// without a model round trip. Adapters that already know the target project
// (e.g. a REPL upload command) use this instead of HandleTurn so a
// misclassified utterance cannot leave the upload without a session.
func (e *Engine) BeginUpload(ctx context.Context, userID, chatID int64, projectName string) (string, bool) {
	turn := proto.NewTurn("", "", userID, chatID)
	name := projectName
	turn.Params["project_name"] = &name

	result := e.files.GetFiles(ctx, turn)
	return result.Message, result.Success
}

// HandleUpload completes a pending upload session with the document's
// extracted text. The chat adapter calls this when a file arrives.
func (e *Engine) HandleUpload(ctx context.Context, userID, chatID int64, fileName, text string) string {
	return e.files.CompleteUpload(ctx, userID, chatID, fileName, text).Message
}
