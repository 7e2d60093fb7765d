package api

import (
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/ladder"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/registry"
)

// Wire types for the activation endpoint. Field names are load-bearing for
// compatibility; do not rename tags.

// #region activation-input

// ActivationInput is the request payload consumed by the decision ladder.
type ActivationInput struct {
	Now       string            `json:"now"`
	Scores    ScoresPayload     `json:"scores"`
	Readiness ReadinessPayload  `json:"readiness"`
	Hints     *HintsPayload     `json:"hints,omitempty"`
}

// ScoresPayload mirrors scores.LoopScores plus per-indicator detail.
type ScoresPayload struct {
	LoopID          string             `json:"loopId"`
	Window          string             `json:"window"`
	AsOf            string             `json:"asOf"`
	Severity        float64            `json:"severity"`
	Persistence     float64            `json:"persistence"`
	Dispersion      float64            `json:"dispersion"`
	HubLoad         float64            `json:"hubLoad"`
	LegitimacyDelta float64            `json:"legitimacyDelta"`
	Indicators      []IndicatorPayload `json:"indicators"`
}

// IndicatorPayload is one indicator's latest normalized snapshot.
type IndicatorPayload struct {
	Key      string   `json:"key"`
	Status   string   `json:"status"`
	BandPos  float64  `json:"bandPos"`
	Smoothed *float64 `json:"smoothed,omitempty"`
}

// ReadinessPayload mirrors ladder.ReadinessGate.
type ReadinessPayload struct {
	AutoOK  bool     `json:"autoOk"`
	Reasons []string `json:"reasons"`
}

// HintsPayload mirrors ladder.Hints.
type HintsPayload struct {
	RecentAction   *RecentActionPayload `json:"recentAction,omitempty"`
	EarlyWarning   bool                 `json:"earlyWarning,omitempty"`
	FairnessRisk   bool                 `json:"fairnessRisk,omitempty"`
	RecurrenceFlag bool                 `json:"recurrenceFlag,omitempty"`
}

// RecentActionPayload mirrors ladder.RecentAction.
type RecentActionPayload struct {
	Capacity   string `json:"capacity"`
	WithinDays int    `json:"withinDays"`
	ReviewDue  bool   `json:"reviewDue"`
}

// #endregion activation-input

// #region activation-decision

// ActivationDecision is the response payload. Capacity is null when blocked.
type ActivationDecision struct {
	LoopID            string           `json:"loopId"`
	Capacity          *string          `json:"capacity"`
	ReasonCodes       []string         `json:"reasonCodes"`
	HumanRationale    string           `json:"humanRationale"`
	Confidence        float64          `json:"confidence"`
	OpenRoute         string           `json:"openRoute"`
	PreselectTemplate string           `json:"preselectTemplate"`
	Handoffs          []HandoffPayload `json:"handoffs,omitempty"`
	Blocked           bool             `json:"blocked"`
	BlockReasons      []string         `json:"blockReasons,omitempty"`
	Fingerprint       string           `json:"fingerprint"`
}

// HandoffPayload mirrors registry.Handoff.
type HandoffPayload struct {
	To       string `json:"to"`
	When     string `json:"when"`
	Template string `json:"template,omitempty"`
}

// #endregion activation-decision

// #region decision-conversion

// FromDecision converts a ladder decision into the wire shape.
func FromDecision(d ladder.Decision) ActivationDecision {
	var capacity *string
	if d.Capacity != nil {
		s := string(*d.Capacity)
		capacity = &s
	}
	return ActivationDecision{
		LoopID:            d.LoopID,
		Capacity:          capacity,
		ReasonCodes:       ladder.Strings(d.ReasonCodes),
		HumanRationale:    d.HumanRationale,
		Confidence:        d.Confidence,
		OpenRoute:         d.OpenRoute,
		PreselectTemplate: d.PreselectTemplate,
		Handoffs:          fromHandoffs(d.Handoffs),
		Blocked:           d.Blocked,
		BlockReasons:      d.BlockReasons,
		Fingerprint:       d.Fingerprint,
	}
}

func fromHandoffs(hs []registry.Handoff) []HandoffPayload {
	if len(hs) == 0 {
		return nil
	}
	out := make([]HandoffPayload, len(hs))
	for i, h := range hs {
		out[i] = HandoffPayload{To: string(h.To), When: string(h.When), Template: h.Template}
	}
	return out
}

// #endregion decision-conversion
