package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pmbot/pkg/logx"
	"pmbot/pkg/persistence"
	"pmbot/pkg/proto"
)

// TaskTools implements the task lifecycle handlers.
type TaskTools struct {
	store  *persistence.Store
	logger *logx.Logger
}

// NewTaskTools creates the task handler set.
func NewTaskTools(store *persistence.Store) *TaskTools {
	return &TaskTools{store: store, logger: logx.NewLogger("tools")}
}

// CreateTask handles create_task. The task name is required; project,
// assignee, description, and deadline are optional.
func (t *TaskTools) CreateTask(ctx context.Context, turn *proto.Turn) Result {
	name := turn.Params.Get("name")
	if name == "" {
		return fail("I need a task name to create a task. For example: create a task 'Fix login bug'.")
	}

	var projectID int64
	if projectName := turn.Params.Get("project_name"); projectName != "" {
		project, err := t.store.GetProjectByName(ctx, projectName)
		if errors.Is(err, persistence.ErrNotFound) {
			return fail(fmt.Sprintf("Project '%s' does not exist. Create it first with: create a project '%s'.", projectName, projectName))
		}
		if err != nil {
			t.logger.Error("Project lookup failed: %v", err)
			return fail("Something went wrong while creating the task. Please try again.")
		}
		projectID = project.ID
	}

	task, err := t.store.CreateTask(ctx, projectID,
		name,
		turn.Params.Get("description"),
		turn.Params.Get("assignee"),
		turn.Params.Get("deadline"))
	if err != nil {
		t.logger.Error("Task creation failed: %v", err)
		return fail("Something went wrong while creating the task. Please try again.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created task '%s' (#%d)", task.Name, task.ID)
	if task.Assignee != "" {
		fmt.Fprintf(&b, " assigned to %s", task.Assignee)
	}
	if task.Deadline != "" {
		fmt.Fprintf(&b, ", due %s", task.Deadline)
	}
	b.WriteString(".")
	return ok(b.String())
}

// AssignTask handles assign_task. The assignee is required; the task is
// named either explicitly or through the reply back-reference.
func (t *TaskTools) AssignTask(ctx context.Context, turn *proto.Turn) Result {
	assignee := turn.Params.Get("assignee")
	if assignee == "" {
		return fail("I need to know who to assign the task to. For example: assign 'Fix login bug' to @sam.")
	}

	taskName := turn.Params.Get("task_name")
	if taskName == "" {
		taskName = turn.ReplyRef
	}
	if taskName == "" {
		return fail("The task name was missing. Tell me which task to assign, or reply to the task message.")
	}

	task, err := t.store.GetTaskByName(ctx, taskName)
	if errors.Is(err, persistence.ErrNotFound) {
		return fail(fmt.Sprintf("I couldn't find a task named '%s'.", taskName))
	}
	if err != nil {
		t.logger.Error("Task lookup failed: %v", err)
		return fail("Something went wrong while assigning the task. Please try again.")
	}

	if err := t.store.UpdateTaskAssignee(ctx, task.ID, assignee); err != nil {
		t.logger.Error("Task reassignment failed: %v", err)
		return fail("Something went wrong while assigning the task. Please try again.")
	}
	return ok(fmt.Sprintf("Assigned '%s' to %s.", task.Name, assignee))
}

// WorkingTask handles working_task: marks a task in progress.
func (t *TaskTools) WorkingTask(ctx context.Context, turn *proto.Turn) Result {
	return t.transition(ctx, turn, persistence.StatusWorking, "Marked '%s' as in progress.")
}

// CompletedTask handles completed_task: marks a task done.
func (t *TaskTools) CompletedTask(ctx context.Context, turn *proto.Turn) Result {
	return t.transition(ctx, turn, persistence.StatusCompleted, "Marked '%s' as completed. Nice work!")
}

func (t *TaskTools) transition(ctx context.Context, turn *proto.Turn, status, successFormat string) Result {
	taskName := turn.Params.Get("task_name")
	if taskName == "" {
		taskName = turn.ReplyRef
	}
	if taskName == "" {
		return fail("The task name was missing. Tell me which task you mean, or reply to the task message.")
	}

	task, err := t.store.GetTaskByName(ctx, taskName)
	if errors.Is(err, persistence.ErrNotFound) {
		return fail(fmt.Sprintf("I couldn't find a task named '%s'.", taskName))
	}
	if err != nil {
		t.logger.Error("Task lookup failed: %v", err)
		return fail("Something went wrong while updating the task. Please try again.")
	}

	actor := fmt.Sprintf("user:%d", turn.UserID)
	if err := t.store.UpdateTaskStatus(ctx, task.ID, status, actor); err != nil {
		t.logger.Error("Status transition failed: %v", err)
		return fail("Something went wrong while updating the task. Please try again.")
	}
	return ok(fmt.Sprintf(successFormat, task.Name))
}

// ListTasks handles list_tasks: the caller's open tasks.
func (t *TaskTools) ListTasks(ctx context.Context, turn *proto.Turn) Result {
	assignee := t.callerHandle(ctx, turn)
	tasks, err := t.store.ListTasksByAssignee(ctx, assignee)
	if err != nil {
		t.logger.Error("Task listing failed: %v", err)
		return fail("Something went wrong while listing your tasks. Please try again.")
	}
	if len(tasks) == 0 {
		return ok("You have no open tasks.")
	}

	var b strings.Builder
	b.WriteString("Your open tasks:\n")
	for i := range tasks {
		task := &tasks[i]
		fmt.Fprintf(&b, "- #%d %s [%s]", task.ID, task.Name, task.Status)
		if task.Deadline != "" {
			fmt.Fprintf(&b, " due %s", task.Deadline)
		}
		b.WriteString("\n")
	}
	return ok(strings.TrimRight(b.String(), "\n"))
}

// DeleteTask handles delete_task. Admin only; the numeric task id is
// required.
func (t *TaskTools) DeleteTask(ctx context.Context, turn *proto.Turn) Result {
	if !isAdmin(ctx, t.store, turn) {
		return fail("Only admins can delete tasks.")
	}

	idStr := turn.Params.Get("task_id")
	if idStr == "" {
		return fail("The task id was missing. For example: delete task 42.")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return fail(fmt.Sprintf("'%s' is not a valid task id. Task ids are numbers, e.g. 42.", idStr))
	}

	err = t.store.DeleteTask(ctx, id)
	if errors.Is(err, persistence.ErrNotFound) {
		return fail(fmt.Sprintf("There is no task with id %d.", id))
	}
	if err != nil {
		t.logger.Error("Task deletion failed: %v", err)
		return fail("Something went wrong while deleting the task. Please try again.")
	}
	return ok(fmt.Sprintf("Deleted task #%d.", id))
}

// TaskDetails handles task_details. Accepts a task name or a numeric id;
// one of the two is required.
func (t *TaskTools) TaskDetails(ctx context.Context, turn *proto.Turn) Result {
	var task *persistence.Task
	var err error

	switch {
	case turn.Params.Has("task_id"):
		id, parseErr := strconv.ParseInt(turn.Params.Get("task_id"), 10, 64)
		if parseErr != nil {
			return fail(fmt.Sprintf("'%s' is not a valid task id.", turn.Params.Get("task_id")))
		}
		task, err = t.store.GetTaskByID(ctx, id)
	case turn.Params.Has("task_name"):
		task, err = t.store.GetTaskByName(ctx, turn.Params.Get("task_name"))
	case turn.ReplyRef != "":
		task, err = t.store.GetTaskByName(ctx, turn.ReplyRef)
	default:
		return fail("Tell me which task you mean, by name or id.")
	}

	if errors.Is(err, persistence.ErrNotFound) {
		return fail("I couldn't find that task.")
	}
	if err != nil {
		t.logger.Error("Task lookup failed: %v", err)
		return fail("Something went wrong while looking up the task. Please try again.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task #%d: %s\nStatus: %s", task.ID, task.Name, task.Status)
	if task.Assignee != "" {
		fmt.Fprintf(&b, "\nAssignee: %s", task.Assignee)
	}
	if task.Deadline != "" {
		fmt.Fprintf(&b, "\nDeadline: %s", task.Deadline)
	}
	if task.Description != "" {
		fmt.Fprintf(&b, "\nDescription: %s", task.Description)
	}
	return ok(b.String())
}

// callerHandle resolves the caller's assignee handle, falling back to the
// raw platform id when the user record is missing.
func (t *TaskTools) callerHandle(ctx context.Context, turn *proto.Turn) string {
	user, err := t.store.GetUserByPlatformID(ctx, turn.UserID)
	if err == nil && user.Username != "" {
		return "@" + user.Username
	}
	return fmt.Sprintf("user:%d", turn.UserID)
}
