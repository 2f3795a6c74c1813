// Package dispatch maps resolved actions to tool handlers and runs exactly
// one handler per turn.
package dispatch

import (
	"context"
	"fmt"

	"pmbot/pkg/intent"
	"pmbot/pkg/logx"
	"pmbot/pkg/metrics"
	"pmbot/pkg/proto"
	"pmbot/pkg/tools"
)

// HandlerID identifies a registered tool handler.
type HandlerID string

// Handler identifiers. HandlerGeneralChat is the terminal fallback.
const (
	HandlerCreateTask     HandlerID = "create_task"
	HandlerAssignTask     HandlerID = "assign_task"
	HandlerWorkingTask    HandlerID = "working_task"
	HandlerCompletedTask  HandlerID = "completed_task"
	HandlerListTasks      HandlerID = "list_tasks"
	HandlerHistory        HandlerID = "history"
	HandlerDeleteTask     HandlerID = "delete_task"
	HandlerTaskDetails    HandlerID = "task_details"
	HandlerCreateProject  HandlerID = "create_project"
	HandlerDeleteProject  HandlerID = "delete_project"
	HandlerProjectDetails HandlerID = "project_details"
	HandlerProjectFiles   HandlerID = "project_files"
	HandlerGetFiles       HandlerID = "get_files"
	HandlerLink           HandlerID = "link"
	HandlerAskProject     HandlerID = "ask_project"
	HandlerGeneralChat    HandlerID = "general_chat"
)

// Route maps an action to its handler. Total over the closed vocabulary:
// every member maps to exactly one handler, and anything outside it,
// including the empty string, maps to the terminal fallback.
func Route(action string) HandlerID {
	switch intent.Action(action) {
	case intent.ActionCreateTask:
		return HandlerCreateTask
	case intent.ActionAssignTask:
		return HandlerAssignTask
	case intent.ActionWorkingTask:
		return HandlerWorkingTask
	case intent.ActionCompletedTask:
		return HandlerCompletedTask
	case intent.ActionListTasks:
		return HandlerListTasks
	case intent.ActionHistory:
		return HandlerHistory
	case intent.ActionDeleteTask:
		return HandlerDeleteTask
	case intent.ActionTaskDetails:
		return HandlerTaskDetails
	case intent.ActionCreateProject:
		return HandlerCreateProject
	case intent.ActionDeleteProject:
		return HandlerDeleteProject
	case intent.ActionProjectDetails:
		return HandlerProjectDetails
	case intent.ActionProjectFiles:
		return HandlerProjectFiles
	case intent.ActionGetFiles:
		return HandlerGetFiles
	case intent.ActionLink:
		return HandlerLink
	case intent.ActionAskProject:
		return HandlerAskProject
	case intent.ActionGeneralChat:
		return HandlerGeneralChat
	default:
		return HandlerGeneralChat
	}
}

// Dispatcher holds the handler registry. The registry is fixed at
// construction; there is no shared mutable state between turns.
type Dispatcher struct {
	handlers map[HandlerID]tools.Handler
	recorder metrics.Recorder
	logger   *logx.Logger
}

// NewDispatcher creates a dispatcher over a complete handler registry.
// Construction fails if any routable handler is missing, so a vocabulary
// member without a handler is caught at startup rather than mid-turn.
func NewDispatcher(handlers map[HandlerID]tools.Handler, recorder metrics.Recorder) (*Dispatcher, error) {
	for _, action := range intent.Actions() {
		id := Route(string(action))
		if _, ok := handlers[id]; !ok {
			return nil, fmt.Errorf("no handler registered for %s", id)
		}
	}
	return &Dispatcher{
		handlers: handlers,
		recorder: recorder,
		logger:   logx.NewLogger("dispatch"),
	}, nil
}

// Dispatch routes the turn's action and runs its handler. Handlers report
// failure through the Result value; Dispatch itself never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, turn *proto.Turn) tools.Result {
	id := Route(turn.Action)
	handler := d.handlers[id]

	d.logger.Debug("Dispatching action %q -> %s", turn.Action, id)
	result := handler.Handle(ctx, turn)

	status := "success"
	if !result.Success {
		status = "failure"
	}
	d.recorder.ObserveTurn(string(id), status)
	return result
}
