package ladder

import (
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/registry"
)

// #region readiness

// ReadinessGate is the data-quality verdict supplied by an external
// subsystem. It is consulted before any score and can block automation
// unconditionally.
type ReadinessGate struct {
	AutoOK  bool
	Reasons []string
}

// #endregion readiness

// #region hints

// RecentAction summarizes the most recent automated action on a loop.
type RecentAction struct {
	Capacity   registry.Capacity
	WithinDays int
	ReviewDue  bool
}

// Hints carry contextual flags the scores alone cannot express.
type Hints struct {
	RecentAction   *RecentAction
	EarlyWarning   bool
	FairnessRisk   bool
	RecurrenceFlag bool
}

// #endregion hints

// #region config

// Config holds the ladder's decision thresholds.
type Config struct {
	SeverityHigh         float64 // rule 2: severity alone trips responsive
	SeverityMid          float64 // rule 2: severity + persistence combination
	PersistenceMid       float64 // rule 2: persistence arm of the combination
	LegitimacyDivergence float64 // rule 3: legitimacy delta at or below trips deliberative
	PersistenceHigh      float64 // rule 4: persistence alone trips structural
	HubSaturation        float64 // rule 4: hub load alone trips structural
	EarlyWarningCeiling  float64 // rule 5: early warning only below this severity
	RecentActionDays     int     // rule 6: recent-action observation period
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		SeverityHigh:         1.0,
		SeverityMid:          0.7,
		PersistenceMid:       0.4,
		LegitimacyDivergence: -0.3,
		PersistenceHigh:      0.6,
		HubSaturation:        0.8,
		EarlyWarningCeiling:  0.7,
		RecentActionDays:     45,
	}
}

// #endregion config

// #region decision

// Decision is the ladder's complete, immutable output for one evaluation.
// Capacity is nil exactly when Blocked is true.
type Decision struct {
	LoopID            string
	Capacity          *registry.Capacity
	ReasonCodes       []ReasonCode
	HumanRationale    string
	Confidence        float64
	OpenRoute         string
	PreselectTemplate string
	Handoffs          []registry.Handoff
	Blocked           bool
	BlockReasons      []string
	Fingerprint       string
}

// #endregion decision
