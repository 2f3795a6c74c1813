package persistence

import (
	"context"
	"fmt"
)

// ProjectFile records a document attached to a project.
type ProjectFile struct {
	ID         string
	ProjectID  int64
	FileName   string
	MimeType   string
	SizeBytes  int64
	UploadedBy int64
	UploadedAt string
}

// AddProjectFile records an uploaded file.
func (s *Store) AddProjectFile(ctx context.Context, f *ProjectFile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO project_files (id, project_id, file_name, mime_type, size_bytes, uploaded_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.ProjectID, f.FileName, f.MimeType, f.SizeBytes, f.UploadedBy)
	if err != nil {
		return fmt.Errorf("failed to record file %q: %w", f.FileName, err)
	}
	return nil
}

// ListProjectFiles returns a project's files, oldest first.
func (s *Store) ListProjectFiles(ctx context.Context, projectID int64) ([]ProjectFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, file_name, mime_type, size_bytes, uploaded_by, uploaded_at
		 FROM project_files WHERE project_id = ? ORDER BY uploaded_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files for project %d: %w", projectID, err)
	}
	defer rows.Close()

	var files []ProjectFile
	for rows.Next() {
		var f ProjectFile
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.FileName, &f.MimeType, &f.SizeBytes, &f.UploadedBy, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project files: %w", err)
	}
	return files, nil
}
