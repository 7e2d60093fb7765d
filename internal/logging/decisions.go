// Package logging writes the decision provenance log.
package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS decision_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	loop_id       TEXT NOT NULL,
	window        TEXT NOT NULL,
	capacity      TEXT,
	blocked       INTEGER NOT NULL DEFAULT 0,
	reason_codes  TEXT NOT NULL,
	confidence    REAL NOT NULL,
	fingerprint   TEXT NOT NULL,
	task_id       TEXT,
	scores_json   TEXT,
	rationale     TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_log_loop ON decision_log(loop_id, created_at);
`

// #endregion schema

// #region migrate

// Migrate creates the decision_log table on an existing connection.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate decision log: %w", err)
	}
	return nil
}

// #endregion migrate

// #region log-decision

// LogDecision writes a provenance entry to the decision_log table.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	blocked := 0
	if entry.Blocked {
		blocked = 1
	}
	_, err := db.Exec(
		`INSERT INTO decision_log (loop_id, window, capacity, blocked, reason_codes, confidence, fingerprint, task_id, scores_json, rationale, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.LoopID,
		entry.Window,
		nullIfEmpty(entry.Capacity),
		blocked,
		entry.ReasonCodes,
		entry.Confidence,
		entry.Fingerprint,
		nullIfEmpty(entry.TaskID),
		nullIfEmpty(entry.ScoresJSON),
		nullIfEmpty(entry.Rationale),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region list

// ListByLoop returns the most recent decision entries for a loop.
func ListByLoop(db *sql.DB, loopID string, limit int) ([]DecisionEntry, error) {
	rows, err := db.Query(
		`SELECT loop_id, window, capacity, blocked, reason_codes, confidence, fingerprint, task_id, scores_json, rationale, created_at
		 FROM decision_log WHERE loop_id = ? ORDER BY created_at DESC LIMIT ?`,
		loopID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionEntry
	for rows.Next() {
		var e DecisionEntry
		var capacity, taskID, scoresJSON, rationale sql.NullString
		var blocked int
		var createdStr string
		if err := rows.Scan(&e.LoopID, &e.Window, &capacity, &blocked, &e.ReasonCodes, &e.Confidence, &e.Fingerprint, &taskID, &scoresJSON, &rationale, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.Blocked = blocked != 0
		if capacity.Valid {
			e.Capacity = capacity.String
		}
		if taskID.Valid {
			e.TaskID = taskID.String
		}
		if scoresJSON.Valid {
			e.ScoresJSON = scoresJSON.String
		}
		if rationale.Valid {
			e.Rationale = rationale.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion list

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
