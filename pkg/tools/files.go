package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pmbot/pkg/logx"
	"pmbot/pkg/persistence"
	"pmbot/pkg/proto"
	"pmbot/pkg/rag"
)

// FileTools implements the two-step document upload flow: get_files opens an
// upload session, and the chat adapter calls CompleteUpload with the
// document text once the file arrives.
type FileTools struct {
	store    *persistence.Store
	sessions *SessionStore
	ingestor *rag.Ingestor
	logger   *logx.Logger
}

// NewFileTools creates the file handler set.
func NewFileTools(store *persistence.Store, sessions *SessionStore, ingestor *rag.Ingestor) *FileTools {
	return &FileTools{
		store:    store,
		sessions: sessions,
		ingestor: ingestor,
		logger:   logx.NewLogger("tools"),
	}
}

// GetFiles handles get_files: opens an upload session so the caller's next
// document lands in the named project.
func (f *FileTools) GetFiles(ctx context.Context, turn *proto.Turn) Result {
	name := turn.Params.Get("project_name")
	if name == "" {
		return fail("The project name was missing. Which project should I attach the file to?")
	}

	project, err := f.store.GetProjectByName(ctx, name)
	if errors.Is(err, persistence.ErrNotFound) {
		return fail(fmt.Sprintf("I couldn't find a project named '%s'.", name))
	}
	if err != nil {
		f.logger.Error("Project lookup failed: %v", err)
		return fail("Something went wrong. Please try again.")
	}

	f.sessions.Begin(turn.UserID, turn.ChatID, project.ID, project.Name)
	return ok(fmt.Sprintf("Send me the document for '%s' and I'll index it.", project.Name))
}

// CompleteUpload finishes a pending upload session: records the file and
// ingests its extracted text into the project's chunk index. Called by the
// chat adapter, not by the dispatcher. Format-specific text extraction
// (PDF, DOCX, plain text) is the adapter's job.
func (f *FileTools) CompleteUpload(ctx context.Context, userID, chatID int64, fileName, text string) Result {
	session, found := f.sessions.Resolve(userID, chatID)
	if !found {
		return fail("I wasn't expecting a file from you. Ask me to get files for a project first.")
	}

	count, err := f.ingestor.Ingest(ctx, session.ProjectID, text)
	if err != nil {
		f.logger.Error("Ingestion failed for project %d: %v", session.ProjectID, err)
		return fail(fmt.Sprintf("I couldn't index '%s': %v", fileName, err))
	}

	file := &persistence.ProjectFile{
		ID:         uuid.NewString(),
		ProjectID:  session.ProjectID,
		FileName:   fileName,
		SizeBytes:  int64(len(text)),
		UploadedBy: userID,
	}
	if err := f.store.AddProjectFile(ctx, file); err != nil {
		f.logger.Error("File record failed: %v", err)
		// The index is already updated; report success with a caveat.
		return ok(fmt.Sprintf("Indexed '%s' into '%s' (%d chunks), but couldn't record the file metadata.",
			fileName, session.ProjectName, count))
	}

	return ok(fmt.Sprintf("Indexed '%s' into '%s' (%d chunks). Ask me anything about it.",
		fileName, session.ProjectName, count))
}
