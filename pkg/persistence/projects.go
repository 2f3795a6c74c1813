package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Project is a row in the projects table.
type Project struct {
	ID          int64
	Name        string
	Description string
	CreatedBy   int64
	CreatedAt   string
}

// CreateProject inserts a project. Project names are unique
// (case-insensitive).
func (s *Store) CreateProject(ctx context.Context, name, description string, createdBy int64) (*Project, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, description, created_by) VALUES (?, ?, ?)`,
		name, description, createdBy)
	if err != nil {
		return nil, fmt.Errorf("failed to create project %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read project id: %w", err)
	}
	return s.GetProjectByID(ctx, id)
}

// GetProjectByID looks a project up by primary key.
func (s *Store) GetProjectByID(ctx context.Context, id int64) (*Project, error) {
	return s.scanProject(s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_by, created_at FROM projects WHERE id = ?`, id))
}

// GetProjectByName looks a project up by name, case-insensitively.
func (s *Store) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	return s.scanProject(s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_by, created_at FROM projects WHERE name = ? COLLATE NOCASE`, name))
}

// ListProjects returns all projects ordered by creation time.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_by, created_at FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// DeleteProject removes a project and, via cascade, its tasks, files, and
// chunks. Returns ErrNotFound if no such project exists.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) scanProject(row *sql.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	return &p, nil
}
