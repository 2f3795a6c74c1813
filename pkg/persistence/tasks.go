package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Task statuses.
const (
	StatusTodo      = "todo"
	StatusWorking   = "working"
	StatusCompleted = "completed"
)

// Task is a row in the tasks table. ProjectID is zero for tasks created
// without a project.
type Task struct {
	ID          int64
	ProjectID   int64
	Name        string
	Description string
	Assignee    string
	Deadline    string // YYYY-MM-DD, empty when unset
	Status      string
	CreatedAt   string
	UpdatedAt   string
}

const taskColumns = `id, COALESCE(project_id, 0), name, description, assignee, deadline, status, created_at, updated_at`

// CreateTask inserts a task. projectID of zero stores a NULL project.
func (s *Store) CreateTask(ctx context.Context, projectID int64, name, description, assignee, deadline string) (*Task, error) {
	var pid any
	if projectID != 0 {
		pid = projectID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (project_id, name, description, assignee, deadline) VALUES (?, ?, ?, ?, ?)`,
		pid, name, description, assignee, deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to create task %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read task id: %w", err)
	}
	return s.GetTaskByID(ctx, id)
}

// GetTaskByID looks a task up by primary key.
func (s *Store) GetTaskByID(ctx context.Context, id int64) (*Task, error) {
	return s.scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
}

// GetTaskByName returns the most recently created task with the given name,
// case-insensitively.
func (s *Store) GetTaskByName(ctx context.Context, name string) (*Task, error) {
	return s.scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE name = ? COLLATE NOCASE ORDER BY id DESC LIMIT 1`, name))
}

// ListTasksByAssignee returns open tasks for an assignee, oldest first.
func (s *Store) ListTasksByAssignee(ctx context.Context, assignee string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE assignee = ? COLLATE NOCASE AND status != ? ORDER BY id`,
		assignee, StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for %q: %w", assignee, err)
	}
	return s.collectTasks(rows)
}

// ListTasksByProject returns all tasks in a project, oldest first.
func (s *Store) ListTasksByProject(ctx context.Context, projectID int64) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for project %d: %w", projectID, err)
	}
	return s.collectTasks(rows)
}

// UpdateTaskAssignee reassigns a task.
func (s *Store) UpdateTaskAssignee(ctx context.Context, id int64, assignee string) error {
	return s.updateTask(ctx, id,
		`UPDATE tasks SET assignee = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = ?`,
		assignee, id)
}

// UpdateTaskStatus transitions a task's status and appends a status log
// entry in the same transaction.
func (s *Store) UpdateTaskStatus(ctx context.Context, id int64, newStatus, actor string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var oldStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, id).Scan(&oldStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read task status: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = ?`,
		newStatus, id); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO status_logs (task_id, old_status, new_status, actor) VALUES (?, ?, ?, ?)`,
		id, oldStatus, newStatus, actor); err != nil {
		return fmt.Errorf("failed to log status transition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}
	return nil
}

// DeleteTask removes a task. Returns ErrNotFound if no such task exists.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
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

// StatusLog is one recorded status transition.
type StatusLog struct {
	ID        int64
	TaskID    int64
	TaskName  string
	OldStatus string
	NewStatus string
	Actor     string
	LoggedAt  string
}

// RecentStatusLogs returns the most recent status transitions, newest first.
func (s *Store) RecentStatusLogs(ctx context.Context, limit int) ([]StatusLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.task_id, t.name, l.old_status, l.new_status, l.actor, l.logged_at
		 FROM status_logs l JOIN tasks t ON t.id = l.task_id
		 ORDER BY l.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query status logs: %w", err)
	}
	defer rows.Close()

	var logs []StatusLog
	for rows.Next() {
		var l StatusLog
		if err := rows.Scan(&l.ID, &l.TaskID, &l.TaskName, &l.OldStatus, &l.NewStatus, &l.Actor, &l.LoggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status logs: %w", err)
	}
	return logs, nil
}

func (s *Store) updateTask(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) scanTask(row *sql.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Description, &t.Assignee, &t.Deadline, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	return &t, nil
}

func (s *Store) collectTasks(rows *sql.Rows) ([]Task, error) {
	defer rows.Close()
	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Description, &t.Assignee, &t.Deadline, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}
