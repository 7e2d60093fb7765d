// Package replay loads decision fixtures and re-runs them through the pure
// core, making the determinism guarantee executable: a recorded decision must
// reproduce byte-identically, fingerprint included, on any machine.
package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/ladder"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/registry"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/scores"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string `json:"description"`
	Cases       []Case `json:"cases"`
}

// Case is one recorded activation with its expected decision.
type Case struct {
	Name      string          `json:"name"`
	Now       string          `json:"now"`
	Scores    FixtureScores   `json:"scores"`
	Readiness FixtureReadiness `json:"readiness"`
	Hints     *FixtureHints   `json:"hints,omitempty"`
	Expected  Expected        `json:"expected"`
}

// FixtureScores mirrors scores.LoopScores with wire-format JSON tags.
type FixtureScores struct {
	LoopID          string  `json:"loopId"`
	Window          string  `json:"window"`
	AsOf            string  `json:"asOf"`
	Severity        float64 `json:"severity"`
	Persistence     float64 `json:"persistence"`
	Dispersion      float64 `json:"dispersion"`
	HubLoad         float64 `json:"hubLoad"`
	LegitimacyDelta float64 `json:"legitimacyDelta"`
}

// FixtureReadiness mirrors ladder.ReadinessGate.
type FixtureReadiness struct {
	AutoOK  bool     `json:"autoOk"`
	Reasons []string `json:"reasons"`
}

// FixtureHints mirrors ladder.Hints.
type FixtureHints struct {
	RecentAction   *FixtureRecentAction `json:"recentAction,omitempty"`
	EarlyWarning   bool                 `json:"earlyWarning,omitempty"`
	FairnessRisk   bool                 `json:"fairnessRisk,omitempty"`
	RecurrenceFlag bool                 `json:"recurrenceFlag,omitempty"`
}

// FixtureRecentAction mirrors ladder.RecentAction.
type FixtureRecentAction struct {
	Capacity   string `json:"capacity"`
	WithinDays int    `json:"withinDays"`
	ReviewDue  bool   `json:"reviewDue"`
}

// Expected captures the decision fields a replay must reproduce. Empty
// fingerprint skips the fingerprint check (capacity/reasons still compared).
type Expected struct {
	Capacity    string   `json:"capacity"` // "" means blocked
	Blocked     bool     `json:"blocked"`
	ReasonCodes []string `json:"reasonCodes"`
	Confidence  float64  `json:"confidence"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// #endregion fixture-loader

// #region conversion

// ToInputs converts a fixture case into ladder inputs.
func (c *Case) ToInputs() (scores.LoopScores, ladder.ReadinessGate, *ladder.Hints, time.Time, error) {
	window, err := scores.ParseWindow(c.Scores.Window)
	if err != nil {
		return scores.LoopScores{}, ladder.ReadinessGate{}, nil, time.Time{}, fmt.Errorf("case %s: %w", c.Name, err)
	}
	asOf, err := time.Parse(time.RFC3339, c.Scores.AsOf)
	if err != nil {
		return scores.LoopScores{}, ladder.ReadinessGate{}, nil, time.Time{}, fmt.Errorf("case %s: invalid asOf: %w", c.Name, err)
	}
	now := asOf
	if c.Now != "" {
		now, err = time.Parse(time.RFC3339, c.Now)
		if err != nil {
			return scores.LoopScores{}, ladder.ReadinessGate{}, nil, time.Time{}, fmt.Errorf("case %s: invalid now: %w", c.Name, err)
		}
	}

	ls := scores.LoopScores{
		LoopID:          c.Scores.LoopID,
		Window:          window,
		AsOf:            asOf,
		Severity:        c.Scores.Severity,
		Persistence:     c.Scores.Persistence,
		Dispersion:      c.Scores.Dispersion,
		HubLoad:         c.Scores.HubLoad,
		LegitimacyDelta: c.Scores.LegitimacyDelta,
	}
	readiness := ladder.ReadinessGate{AutoOK: c.Readiness.AutoOK, Reasons: c.Readiness.Reasons}

	var hints *ladder.Hints
	if c.Hints != nil {
		hints = &ladder.Hints{
			EarlyWarning:   c.Hints.EarlyWarning,
			FairnessRisk:   c.Hints.FairnessRisk,
			RecurrenceFlag: c.Hints.RecurrenceFlag,
		}
		if c.Hints.RecentAction != nil {
			capacity, ok := registry.ParseCapacity(c.Hints.RecentAction.Capacity)
			if !ok {
				return scores.LoopScores{}, ladder.ReadinessGate{}, nil, time.Time{}, fmt.Errorf("case %s: invalid capacity %q", c.Name, c.Hints.RecentAction.Capacity)
			}
			hints.RecentAction = &ladder.RecentAction{
				Capacity:   capacity,
				WithinDays: c.Hints.RecentAction.WithinDays,
				ReviewDue:  c.Hints.RecentAction.ReviewDue,
			}
		}
	}
	return ls, readiness, hints, now, nil
}

// #endregion conversion
