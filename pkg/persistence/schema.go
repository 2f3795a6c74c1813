package persistence

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	platform_user_id INTEGER NOT NULL UNIQUE,
	username         TEXT NOT NULL DEFAULT '',
	display_name     TEXT NOT NULL DEFAULT '',
	role             TEXT NOT NULL DEFAULT 'member'
		CHECK (role IN ('admin', 'member')),
	created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

CREATE TABLE IF NOT EXISTS projects (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE COLLATE NOCASE,
	description TEXT NOT NULL DEFAULT '',
	created_by  INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id  INTEGER REFERENCES projects(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	assignee    TEXT NOT NULL DEFAULT '',
	deadline    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'todo'
		CHECK (status IN ('todo', 'working', 'completed')),
	created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_name ON tasks(name COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS status_logs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id    INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	old_status TEXT NOT NULL,
	new_status TEXT NOT NULL,
	actor      TEXT NOT NULL DEFAULT '',
	logged_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_status_logs_task ON status_logs(task_id);

CREATE TABLE IF NOT EXISTS project_files (
	id          TEXT PRIMARY KEY,
	project_id  INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	file_name   TEXT NOT NULL,
	mime_type   TEXT NOT NULL DEFAULT '',
	size_bytes  INTEGER NOT NULL DEFAULT 0,
	uploaded_by INTEGER NOT NULL DEFAULT 0,
	uploaded_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_project_files_project ON project_files(project_id);

CREATE TABLE IF NOT EXISTS document_chunks (
	project_id  INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	chunk_index INTEGER NOT NULL,
	content     TEXT NOT NULL,
	embedding   BLOB NOT NULL,
	PRIMARY KEY (project_id, chunk_index)
);

CREATE TABLE IF NOT EXISTS link_codes (
	code             TEXT PRIMARY KEY,
	platform_user_id INTEGER NOT NULL,
	expires_at       TEXT NOT NULL,
	used             INTEGER NOT NULL DEFAULT 0
);
`

func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
