package logging

import "time"

// #region decision-entry

// DecisionEntry is a single row in the decision_log table.
type DecisionEntry struct {
	LoopID      string
	Window      string
	Capacity    string // empty when blocked
	Blocked     bool
	ReasonCodes string // comma-joined, ladder order
	Confidence  float64
	Fingerprint string
	TaskID      string
	ScoresJSON  string
	Rationale   string
	CreatedAt   time.Time
}

// #endregion decision-entry

// #region decision-record

// DecisionRecord captures the complete evaluation inputs and outputs for a
// single decision. Serialized as JSON into decision_log.scores_json for
// deterministic replay and audit.
type DecisionRecord struct {
	LoopID          string   `json:"loop_id"`
	Window          string   `json:"window"`
	AsOf            string   `json:"as_of"`
	Severity        float64  `json:"severity"`
	Persistence     float64  `json:"persistence"`
	Dispersion      float64  `json:"dispersion"`
	HubLoad         float64  `json:"hub_load"`
	LegitimacyDelta float64  `json:"legitimacy_delta"`
	AutoOK          bool     `json:"auto_ok"`
	ReadinessReason []string `json:"readiness_reasons,omitempty"`

	// Decision output
	Capacity    string   `json:"capacity,omitempty"`
	Blocked     bool     `json:"blocked"`
	ReasonCodes []string `json:"reason_codes"`
	Confidence  float64  `json:"confidence"`
	Fingerprint string   `json:"fingerprint"`
	TaskID      string   `json:"task_id,omitempty"`
	TaskCreated bool     `json:"task_created"`
}

// #endregion decision-record
