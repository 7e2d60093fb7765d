package engine

import (
	"errors"
	"time"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/ladder"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/scores"
)

// #region errors

// ErrUnknownIndicator is returned when an observation references an
// indicator that has not been configured.
var ErrUnknownIndicator = errors.New("unknown indicator")

// #endregion errors

// #region config

// Config holds engine tuning knobs.
type Config struct {
	Alpha float64 // exponential smoothing factor, (0, 1]
}

// DefaultConfig returns the production engine settings.
func DefaultConfig() Config {
	return Config{Alpha: 0.3}
}

// #endregion config

// #region evaluate-request

// EvaluateRequest describes one loop evaluation.
type EvaluateRequest struct {
	LoopID    string
	Window    scores.Window
	AsOf      time.Time
	Readiness ladder.ReadinessGate
	Hints     *ladder.Hints

	// LegitimacyDelta overrides the aggregator's placeholder 0 when a
	// trust/participation source has supplied a real value.
	LegitimacyDelta *float64
}

// #endregion evaluate-request

// #region evaluate-result

// EvaluateResult bundles the decision with the idempotent task outcome.
type EvaluateResult struct {
	Decision    ladder.Decision
	Scores      scores.LoopScores
	TaskID      string
	TaskCreated bool
}

// #endregion evaluate-result
