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

// ProjectTools implements the project lifecycle handlers.
type ProjectTools struct {
	store  *persistence.Store
	logger *logx.Logger
}

// NewProjectTools creates the project handler set.
func NewProjectTools(store *persistence.Store) *ProjectTools {
	return &ProjectTools{store: store, logger: logx.NewLogger("tools")}
}

// CreateProject handles create_project. The project name is required.
func (p *ProjectTools) CreateProject(ctx context.Context, turn *proto.Turn) Result {
	name := turn.Params.Get("name")
	if name == "" {
		return fail("I need a project name. For example: create a project 'Mobile App Refactor'.")
	}

	description := turn.Params.Get("description")
	if description == "" {
		description = turn.Params.Get("raw_input")
	}

	if _, err := p.store.GetProjectByName(ctx, name); err == nil {
		return fail(fmt.Sprintf("A project named '%s' already exists.", name))
	} else if !errors.Is(err, persistence.ErrNotFound) {
		p.logger.Error("Project lookup failed: %v", err)
		return fail("Something went wrong while creating the project. Please try again.")
	}

	project, err := p.store.CreateProject(ctx, name, description, turn.UserID)
	if err != nil {
		p.logger.Error("Project creation failed: %v", err)
		return fail("Something went wrong while creating the project. Please try again.")
	}
	return ok(fmt.Sprintf("Created project '%s' (#%d).", project.Name, project.ID))
}

// DeleteProject handles delete_project. Admin only; the numeric project id
// is required.
func (p *ProjectTools) DeleteProject(ctx context.Context, turn *proto.Turn) Result {
	if !isAdmin(ctx, p.store, turn) {
		return fail("Only admins can delete projects.")
	}

	idStr := turn.Params.Get("project_id")
	if idStr == "" {
		return fail("The project id was missing. For example: delete project 7.")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return fail(fmt.Sprintf("'%s' is not a valid project id. Project ids are numbers, e.g. 7.", idStr))
	}

	err = p.store.DeleteProject(ctx, id)
	if errors.Is(err, persistence.ErrNotFound) {
		return fail(fmt.Sprintf("There is no project with id %d.", id))
	}
	if err != nil {
		p.logger.Error("Project deletion failed: %v", err)
		return fail("Something went wrong while deleting the project. Please try again.")
	}
	return ok(fmt.Sprintf("Deleted project #%d and everything in it.", id))
}

// ProjectDetails handles project_details. The project name is required.
func (p *ProjectTools) ProjectDetails(ctx context.Context, turn *proto.Turn) Result {
	name := turn.Params.Get("project_name")
	if name == "" {
		return fail("The project name was missing. For example: show me project 'Mobile App Refactor'.")
	}

	project, err := p.store.GetProjectByName(ctx, name)
	if errors.Is(err, persistence.ErrNotFound) {
		return fail(fmt.Sprintf("I couldn't find a project named '%s'.", name))
	}
	if err != nil {
		p.logger.Error("Project lookup failed: %v", err)
		return fail("Something went wrong while looking up the project. Please try again.")
	}

	tasks, err := p.store.ListTasksByProject(ctx, project.ID)
	if err != nil {
		p.logger.Error("Task listing failed: %v", err)
		return fail("Something went wrong while looking up the project. Please try again.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project #%d: %s", project.ID, project.Name)
	if project.Description != "" {
		fmt.Fprintf(&b, "\n%s", project.Description)
	}
	if len(tasks) == 0 {
		b.WriteString("\nNo tasks yet.")
	} else {
		fmt.Fprintf(&b, "\nTasks (%d):", len(tasks))
		for i := range tasks {
			task := &tasks[i]
			fmt.Fprintf(&b, "\n- #%d %s [%s]", task.ID, task.Name, task.Status)
		}
	}
	return ok(b.String())
}

// ProjectFiles handles project_files: lists a project's uploaded documents.
func (p *ProjectTools) ProjectFiles(ctx context.Context, turn *proto.Turn) Result {
	name := turn.Params.Get("project_name")
	if name == "" {
		return fail("The project name was missing. Which project's files do you want?")
	}

	project, err := p.store.GetProjectByName(ctx, name)
	if errors.Is(err, persistence.ErrNotFound) {
		return fail(fmt.Sprintf("I couldn't find a project named '%s'.", name))
	}
	if err != nil {
		p.logger.Error("Project lookup failed: %v", err)
		return fail("Something went wrong while listing files. Please try again.")
	}

	files, err := p.store.ListProjectFiles(ctx, project.ID)
	if err != nil {
		p.logger.Error("File listing failed: %v", err)
		return fail("Something went wrong while listing files. Please try again.")
	}
	if len(files) == 0 {
		return ok(fmt.Sprintf("Project '%s' has no files yet.", project.Name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Files in '%s':", project.Name)
	for i := range files {
		f := &files[i]
		fmt.Fprintf(&b, "\n- %s (%d bytes)", f.FileName, f.SizeBytes)
	}
	return ok(b.String())
}
