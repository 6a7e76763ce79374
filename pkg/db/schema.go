// Package db provides SQLite storage for the club collections, the
// activity log and metadata.
package db

import "context"

// Schema defines the SQL statements to create database tables.
const Schema = `
-- One JSON document per collection key (students, classes, ...)
CREATE TABLE IF NOT EXISTS collections (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    revision INTEGER NOT NULL DEFAULT 1,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Every applied command
CREATE TABLE IF NOT EXISTS activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    command TEXT NOT NULL,             -- e.g. 'settle-charges'
    student_id TEXT,
    amount TEXT,                       -- decimal string, money moved if any
    summary TEXT NOT NULL,
    occurred_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activity_log_command
    ON activity_log(command);

CREATE INDEX IF NOT EXISTS idx_activity_log_occurred
    ON activity_log(occurred_at);

CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.ExecContext(context.Background(), Schema); err != nil {
		return err
	}
	return nil
}
