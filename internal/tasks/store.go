// Package tasks persists decision tasks keyed by fingerprint. The UNIQUE
// constraint on fingerprint is what makes task creation idempotent: the
// check-then-create race between concurrent evaluators is resolved by the
// database, not by callers.
package tasks

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	task_id       TEXT PRIMARY KEY,
	fingerprint   TEXT NOT NULL UNIQUE,
	loop_id       TEXT NOT NULL,
	capacity      TEXT,
	route         TEXT NOT NULL,
	template      TEXT NOT NULL,
	payload_json  TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_loop ON tasks(loop_id, created_at);
`

// #endregion schema

// #region task

// Task is one unit of follow-up work created from a decision.
// Capacity is empty for tasks created from blocked decisions.
type Task struct {
	TaskID      string
	Fingerprint string
	LoopID      string
	Capacity    string
	Route       string
	Template    string
	PayloadJSON string
	CreatedAt   time.Time
}

// #endregion task

// #region store-struct

// Store manages tasks in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection, running migrations on it.
// Lets the task table share a database file with the observation store.
func NewStoreWithDB(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate tasks: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store-struct

// #region lookup-or-create

// LookupOrCreate inserts a task for the fingerprint if none exists and
// returns the canonical task id either way. created reports whether this
// call performed the insert. Safe under concurrent callers: the insert is
// ON CONFLICT DO NOTHING against the unique fingerprint column.
func (s *Store) LookupOrCreate(t Task) (taskID string, created bool, err error) {
	if t.TaskID == "" {
		t.TaskID = "task_" + uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(
		`INSERT INTO tasks (task_id, fingerprint, loop_id, capacity, route, template, payload_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO NOTHING`,
		t.TaskID, t.Fingerprint, t.LoopID, nullIfEmpty(t.Capacity),
		t.Route, t.Template, nullIfEmpty(t.PayloadJSON),
		t.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", false, fmt.Errorf("insert task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return t.TaskID, true, nil
	}

	var existing string
	err = s.db.QueryRow(
		`SELECT task_id FROM tasks WHERE fingerprint = ?`, t.Fingerprint,
	).Scan(&existing)
	if err != nil {
		return "", false, fmt.Errorf("lookup task: %w", err)
	}
	return existing, false, nil
}

// #endregion lookup-or-create

// #region get

// Get reads one task by id.
func (s *Store) Get(taskID string) (Task, error) {
	var t Task
	var capacity, payload sql.NullString
	var createdStr string
	err := s.db.QueryRow(
		`SELECT task_id, fingerprint, loop_id, capacity, route, template, payload_json, created_at
		 FROM tasks WHERE task_id = ?`, taskID,
	).Scan(&t.TaskID, &t.Fingerprint, &t.LoopID, &capacity, &t.Route, &t.Template, &payload, &createdStr)
	if err != nil {
		return Task{}, fmt.Errorf("get task %s: %w", taskID, err)
	}
	if capacity.Valid {
		t.Capacity = capacity.String
	}
	if payload.Valid {
		t.PayloadJSON = payload.String
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return t, nil
}

// ListByLoop returns the most recent tasks for a loop.
func (s *Store) ListByLoop(loopID string, limit int) ([]Task, error) {
	rows, err := s.db.Query(
		`SELECT task_id, fingerprint, loop_id, capacity, route, template, payload_json, created_at
		 FROM tasks WHERE loop_id = ? ORDER BY created_at DESC LIMIT ?`, loopID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		var capacity, payload sql.NullString
		var createdStr string
		if err := rows.Scan(&t.TaskID, &t.Fingerprint, &t.LoopID, &capacity, &t.Route, &t.Template, &payload, &createdStr); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if capacity.Valid {
			t.Capacity = capacity.String
		}
		if payload.Valid {
			t.PayloadJSON = payload.String
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, t)
	}
	return out, rows.Err()
}

// #endregion get

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
