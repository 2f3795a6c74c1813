package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmbot/pkg/persistence"
)

func TestCreateProjectRequiresName(t *testing.T) {
	pt := NewProjectTools(openTestStore(t))

	result := pt.CreateProject(context.Background(), newTestTurn(nil))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "project name")
}

func TestCreateProjectRejectsDuplicates(t *testing.T) {
	store := openTestStore(t)
	pt := NewProjectTools(store)
	ctx := context.Background()

	result := pt.CreateProject(ctx, newTestTurn(map[string]string{"name": "Apollo"}))
	require.True(t, result.Success, result.Message)

	// Case-insensitive duplicate.
	result = pt.CreateProject(ctx, newTestTurn(map[string]string{"name": "apollo"}))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "already exists")
}

func TestCreateProjectFallsBackToRawInput(t *testing.T) {
	store := openTestStore(t)
	pt := NewProjectTools(store)
	ctx := context.Background()

	result := pt.CreateProject(ctx, newTestTurn(map[string]string{
		"name":      "Apollo",
		"raw_input": "create a project for the moon landing",
	}))
	require.True(t, result.Success, result.Message)

	project, err := store.GetProjectByName(ctx, "Apollo")
	require.NoError(t, err)
	assert.Equal(t, "create a project for the moon landing", project.Description)
}

func TestDeleteProjectValidation(t *testing.T) {
	store := openTestStore(t)
	seedAdmin(t, store, 1)
	project := seedProject(t, store, "Apollo")
	pt := NewProjectTools(store)
	ctx := context.Background()

	result := pt.DeleteProject(ctx, newTestTurn(nil))
	assert.False(t, result.Success)

	result = pt.DeleteProject(ctx, newTestTurn(map[string]string{"project_id": "apollo"}))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "not a valid project id")

	result = pt.DeleteProject(ctx, newTestTurn(map[string]string{"project_id": "9999"}))
	assert.False(t, result.Success)

	result = pt.DeleteProject(ctx, newTestTurn(map[string]string{"project_id": fmt.Sprint(project.ID)}))
	require.True(t, result.Success, result.Message)

	_, err := store.GetProjectByID(ctx, project.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestDeleteProjectRequiresAdmin(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, "Apollo")
	pt := NewProjectTools(store)
	ctx := context.Background()

	result := pt.DeleteProject(ctx, newTestTurn(map[string]string{"project_id": fmt.Sprint(project.ID)}))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Only admins")

	_, err := store.GetProjectByID(ctx, project.ID)
	assert.NoError(t, err)
}

func TestProjectDetailsListsTasks(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, "Apollo")
	ctx := context.Background()
	_, err := store.CreateTask(ctx, project.ID, "Fix Bug", "", "@sam", "")
	require.NoError(t, err)
	pt := NewProjectTools(store)

	result := pt.ProjectDetails(ctx, newTestTurn(map[string]string{"project_name": "Apollo"}))
	require.True(t, result.Success, result.Message)
	assert.Contains(t, result.Message, "Apollo")
	assert.Contains(t, result.Message, "Fix Bug")

	missing := pt.ProjectDetails(ctx, newTestTurn(map[string]string{"project_name": "Ghost"}))
	assert.False(t, missing.Success)
	assert.Contains(t, missing.Message, "Ghost")
}

func TestProjectFilesEmptyAndListed(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, "Apollo")
	pt := NewProjectTools(store)
	ctx := context.Background()

	result := pt.ProjectFiles(ctx, newTestTurn(map[string]string{"project_name": "Apollo"}))
	require.True(t, result.Success)
	assert.Contains(t, result.Message, "no files yet")

	require.NoError(t, store.AddProjectFile(ctx, &persistence.ProjectFile{
		ID: "f-1", ProjectID: project.ID, FileName: "plan.md", SizeBytes: 120, UploadedBy: 1,
	}))
	result = pt.ProjectFiles(ctx, newTestTurn(map[string]string{"project_name": "Apollo"}))
	require.True(t, result.Success)
	assert.Contains(t, result.Message, "plan.md")
	assert.Contains(t, result.Message, "120 bytes")
}
