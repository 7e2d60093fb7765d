package logging

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func tempDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := tempDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate must succeed: %v", err)
	}
}

func TestLogAndListDecisions(t *testing.T) {
	db := tempDB(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []DecisionEntry{
		{
			LoopID:      "loop-1",
			Window:      "28d",
			Capacity:    "responsive",
			ReasonCodes: "SEVERITY_HIGH",
			Confidence:  0.9,
			Fingerprint: "fp-1",
			TaskID:      "task_1",
			ScoresJSON:  `{"severity":1.2}`,
			Rationale:   "Severity breach. High confidence.",
			CreatedAt:   base,
		},
		{
			LoopID:      "loop-1",
			Window:      "28d",
			Blocked:     true,
			ReasonCodes: "DQ_BLOCK",
			Confidence:  0.9,
			Fingerprint: "fp-2",
			CreatedAt:   base.Add(time.Hour),
		},
		{
			LoopID:      "loop-2",
			Window:      "7d",
			Capacity:    "reflexive",
			ReasonCodes: "REVIEW_DUE",
			Confidence:  0.6,
			Fingerprint: "fp-3",
			CreatedAt:   base,
		},
	}
	for _, e := range entries {
		if err := LogDecision(db, e); err != nil {
			t.Fatalf("log %s: %v", e.Fingerprint, err)
		}
	}

	got, err := ListByLoop(db, "loop-1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for loop-1, got %d", len(got))
	}
	// Most recent first.
	if got[0].Fingerprint != "fp-2" || !got[0].Blocked {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[0].Capacity != "" {
		t.Fatalf("blocked entry capacity must be empty, got %q", got[0].Capacity)
	}
	if got[1].Fingerprint != "fp-1" || got[1].Capacity != "responsive" {
		t.Fatalf("unexpected second entry: %+v", got[1])
	}
	if got[1].TaskID != "task_1" || got[1].ScoresJSON != `{"severity":1.2}` {
		t.Fatalf("payload fields lost: %+v", got[1])
	}
	if !got[1].CreatedAt.Equal(base) {
		t.Fatalf("created_at round trip failed: %v", got[1].CreatedAt)
	}
}

func TestLogDecisionDefaultsCreatedAt(t *testing.T) {
	db := tempDB(t)
	if err := LogDecision(db, DecisionEntry{
		LoopID: "loop-1", Window: "7d", ReasonCodes: "SEVERITY_HIGH",
		Confidence: 0.9, Fingerprint: "fp-x",
	}); err != nil {
		t.Fatalf("log: %v", err)
	}
	got, err := ListByLoop(db, "loop-1", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].CreatedAt.IsZero() {
		t.Fatalf("created_at must default to now: %+v", got)
	}
}
