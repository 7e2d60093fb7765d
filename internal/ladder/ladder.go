// Package ladder maps loop scores, the readiness gate, and contextual hints
// onto exactly one of five response capacities via an ordered rule ladder.
package ladder

import (
	"fmt"
	"strings"
	"time"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/fingerprint"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/registry"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/scores"
)

// #region ladder-struct

// Ladder evaluates the capacity-selection rules against loop scores.
type Ladder struct {
	config Config
	reg    *registry.Registry
}

// New creates a ladder with the given thresholds and routing registry.
func New(config Config, reg *registry.Registry) *Ladder {
	return &Ladder{config: config, reg: reg}
}

// #endregion ladder-struct

// #region decide

// Decide runs the ordered, mutually exclusive rule ladder. The first matching
// rule wins; later rules are never reached. The function is pure: identical
// inputs yield byte-identical decisions, including the fingerprint.
func (l *Ladder) Decide(s scores.LoopScores, readiness ReadinessGate, hints *Hints, now time.Time) Decision {
	if hints == nil {
		hints = &Hints{}
	}
	_ = now // reserved for future time-of-day rules; bucketing keys off s.AsOf

	// Rule 1: the readiness gate overrides everything.
	if !readiness.AutoOK {
		return l.blocked(s, readiness)
	}

	// Rule 2: acute severity → responsive.
	if s.Severity >= l.config.SeverityHigh ||
		(s.Severity >= l.config.SeverityMid && s.Persistence >= l.config.PersistenceMid) {
		codes := []ReasonCode{ReasonSeverityHigh}
		if s.Persistence >= l.config.PersistenceMid {
			codes = append(codes, ReasonPersistenceMid)
		}
		return l.routed(s, registry.CapacityResponsive, codes, 0.9)
	}

	// Rule 3: legitimacy divergence or fairness risk → deliberative.
	if s.LegitimacyDelta <= l.config.LegitimacyDivergence || hints.FairnessRisk {
		var codes []ReasonCode
		if s.LegitimacyDelta <= l.config.LegitimacyDivergence {
			codes = append(codes, ReasonLegitimacyDivergence)
		}
		if hints.FairnessRisk {
			codes = append(codes, ReasonFairnessRisk)
		}
		return l.routed(s, registry.CapacityDeliberative, codes, 0.8)
	}

	// Rule 4: entrenched deviation or hub saturation → structural.
	if s.Persistence >= l.config.PersistenceHigh || s.HubLoad >= l.config.HubSaturation || hints.RecurrenceFlag {
		var codes []ReasonCode
		if s.Persistence >= l.config.PersistenceHigh || hints.RecurrenceFlag {
			codes = append(codes, ReasonPersistent)
		}
		if s.HubLoad >= l.config.HubSaturation {
			codes = append(codes, ReasonHubSaturation)
		}
		return l.routed(s, registry.CapacityStructural, codes, 0.8)
	}

	// Rule 5: early warning while severity is still low → anticipatory.
	if hints.EarlyWarning && s.Severity < l.config.EarlyWarningCeiling {
		return l.routed(s, registry.CapacityAnticipatory, []ReasonCode{ReasonEarlyWarning}, 0.7)
	}

	// Rule 6: a recent action is under review or still settling → reflexive.
	if hints.RecentAction != nil &&
		(hints.RecentAction.ReviewDue || hints.RecentAction.WithinDays <= l.config.RecentActionDays) {
		code := ReasonRecentAction
		if hints.RecentAction.ReviewDue {
			code = ReasonReviewDue
		}
		return l.routed(s, registry.CapacityReflexive, []ReasonCode{code}, 0.6)
	}

	// Rule 7: fallback. Keep watching reflexively at low confidence.
	return l.routed(s, registry.CapacityReflexive, []ReasonCode{ReasonRecentAction}, 0.3)
}

// #endregion decide

// #region blocked

func (l *Ladder) blocked(s scores.LoopScores, readiness ReadinessGate) Decision {
	codes := []ReasonCode{ReasonDQBlock}
	fpReasons := readiness.Reasons
	if len(fpReasons) == 0 {
		fpReasons = Strings(codes)
	}
	return Decision{
		LoopID:            s.LoopID,
		Capacity:          nil,
		ReasonCodes:       codes,
		HumanRationale:    rationale(codes, 0.9),
		Confidence:        0.9,
		OpenRoute:         registry.BlockedRoute,
		PreselectTemplate: registry.BlockedTemplate,
		Blocked:           true,
		BlockReasons:      readiness.Reasons,
		Fingerprint:       fingerprint.ComputeBlocked(s.LoopID, fpReasons, s.Window),
	}
}

// #endregion blocked

// #region routed

func (l *Ladder) routed(s scores.LoopScores, c registry.Capacity, codes []ReasonCode, confidence float64) Decision {
	template := l.reg.Template(c)
	return Decision{
		LoopID:            s.LoopID,
		Capacity:          &c,
		ReasonCodes:       codes,
		HumanRationale:    rationale(codes, confidence),
		Confidence:        confidence,
		OpenRoute:         l.reg.Route(c),
		PreselectTemplate: template,
		Handoffs:          l.reg.Handoffs(c),
		Blocked:           false,
		Fingerprint:       fingerprint.Compute(s.LoopID, c, template, Strings(codes), s.Window, s.AsOf),
	}
}

// #endregion routed

// #region rationale

// rationale joins each reason's phrase and appends a confidence qualifier.
func rationale(codes []ReasonCode, confidence float64) string {
	phrases := make([]string, len(codes))
	for i, c := range codes {
		phrases[i] = c.Phrase()
	}
	qualifier := "Low"
	switch {
	case confidence >= 0.8:
		qualifier = "High"
	case confidence >= 0.6:
		qualifier = "Medium"
	}
	return fmt.Sprintf("%s. %s confidence.", strings.Join(phrases, "; "), qualifier)
}

// #endregion rationale
