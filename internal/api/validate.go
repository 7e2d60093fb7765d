package api

import (
	"fmt"
	"time"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/band"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/ladder"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/registry"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/scores"
)

// #region parse-input

// ParseInput validates an ActivationInput at the boundary and converts it to
// domain types. Malformed input is rejected here, never coerced; the ladder
// itself assumes well-formed input.
func ParseInput(in ActivationInput) (scores.LoopScores, ladder.ReadinessGate, *ladder.Hints, time.Time, error) {
	var zero scores.LoopScores

	now, err := time.Parse(time.RFC3339, in.Now)
	if err != nil {
		return zero, ladder.ReadinessGate{}, nil, time.Time{}, fmt.Errorf("invalid now: %w", err)
	}
	if in.Scores.LoopID == "" {
		return zero, ladder.ReadinessGate{}, nil, time.Time{}, fmt.Errorf("loopId is required")
	}
	window, err := scores.ParseWindow(in.Scores.Window)
	if err != nil {
		return zero, ladder.ReadinessGate{}, nil, time.Time{}, err
	}
	asOf, err := time.Parse(time.RFC3339, in.Scores.AsOf)
	if err != nil {
		return zero, ladder.ReadinessGate{}, nil, time.Time{}, fmt.Errorf("invalid asOf: %w", err)
	}
	for _, ind := range in.Scores.Indicators {
		if _, ok := band.ParseStatus(ind.Status); !ok {
			return zero, ladder.ReadinessGate{}, nil, time.Time{}, fmt.Errorf("indicator %s: invalid status %q", ind.Key, ind.Status)
		}
	}

	hints, err := parseHints(in.Hints)
	if err != nil {
		return zero, ladder.ReadinessGate{}, nil, time.Time{}, err
	}

	ls := scores.LoopScores{
		LoopID:          in.Scores.LoopID,
		Window:          window,
		AsOf:            asOf,
		Severity:        in.Scores.Severity,
		Persistence:     in.Scores.Persistence,
		Dispersion:      in.Scores.Dispersion,
		HubLoad:         in.Scores.HubLoad,
		LegitimacyDelta: in.Scores.LegitimacyDelta,
	}
	readiness := ladder.ReadinessGate{
		AutoOK:  in.Readiness.AutoOK,
		Reasons: in.Readiness.Reasons,
	}
	return ls, readiness, hints, now, nil
}

func parseHints(h *HintsPayload) (*ladder.Hints, error) {
	if h == nil {
		return nil, nil
	}
	out := &ladder.Hints{
		EarlyWarning:   h.EarlyWarning,
		FairnessRisk:   h.FairnessRisk,
		RecurrenceFlag: h.RecurrenceFlag,
	}
	if h.RecentAction != nil {
		c, ok := registry.ParseCapacity(h.RecentAction.Capacity)
		if !ok {
			return nil, fmt.Errorf("recentAction: invalid capacity %q", h.RecentAction.Capacity)
		}
		out.RecentAction = &ladder.RecentAction{
			Capacity:   c,
			WithinDays: h.RecentAction.WithinDays,
			ReviewDue:  h.RecentAction.ReviewDue,
		}
	}
	return out, nil
}

// #endregion parse-input
