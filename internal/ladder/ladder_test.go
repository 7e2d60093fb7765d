package ladder

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/registry"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/scores"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newLadder() *Ladder {
	return New(DefaultConfig(), registry.Default())
}

func loopScores(severity, persistence, legitimacyDelta, hubLoad float64) scores.LoopScores {
	return scores.LoopScores{
		LoopID:          "loop-1",
		Window:          scores.Window28d,
		AsOf:            now,
		Severity:        severity,
		Persistence:     persistence,
		LegitimacyDelta: legitimacyDelta,
		HubLoad:         hubLoad,
	}
}

func ready() ReadinessGate { return ReadinessGate{AutoOK: true} }

func capacityOf(t *testing.T, d Decision) registry.Capacity {
	t.Helper()
	if d.Capacity == nil {
		t.Fatalf("expected a capacity, got blocked decision: %+v", d)
	}
	return *d.Capacity
}

func TestBlockingPrecedence(t *testing.T) {
	// Rule 1 overrides everything, even maximum severity.
	d := newLadder().Decide(loopScores(2.0, 1.0, -1.0, 1.0),
		ReadinessGate{AutoOK: false, Reasons: []string{"stale_data"}}, nil, now)

	if !d.Blocked {
		t.Fatal("expected blocked decision")
	}
	if d.Capacity != nil {
		t.Fatalf("blocked decision must have nil capacity, got %v", *d.Capacity)
	}
	if len(d.ReasonCodes) != 1 || d.ReasonCodes[0] != ReasonDQBlock {
		t.Fatalf("expected [DQ_BLOCK], got %v", d.ReasonCodes)
	}
	if d.Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %f", d.Confidence)
	}
	if d.OpenRoute != registry.BlockedRoute || d.PreselectTemplate != registry.BlockedTemplate {
		t.Fatalf("expected data-triage routing, got %s / %s", d.OpenRoute, d.PreselectTemplate)
	}
	if len(d.BlockReasons) != 1 || d.BlockReasons[0] != "stale_data" {
		t.Fatalf("expected block reasons passthrough, got %v", d.BlockReasons)
	}
	if d.Fingerprint == "" {
		t.Fatal("blocked decisions still carry a fingerprint")
	}
}

func TestSeverityBeatsLegitimacy(t *testing.T) {
	// Rules 2 and 3 both match; rule 2 must win.
	d := newLadder().Decide(loopScores(1.2, 0, -0.5, 0), ready(), nil, now)
	if got := capacityOf(t, d); got != registry.CapacityResponsive {
		t.Fatalf("expected responsive (rule 2 wins), got %s", got)
	}
}

func TestResponsiveScenario(t *testing.T) {
	d := newLadder().Decide(loopScores(1.1, 0.2, 0, 0), ready(), nil, now)
	if got := capacityOf(t, d); got != registry.CapacityResponsive {
		t.Fatalf("expected responsive, got %s", got)
	}
	if len(d.ReasonCodes) != 1 || d.ReasonCodes[0] != ReasonSeverityHigh {
		t.Fatalf("expected [SEVERITY_HIGH], got %v", d.ReasonCodes)
	}
	if d.Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %f", d.Confidence)
	}
	if d.OpenRoute != "/workspace-5c/responsive/checkpoint" {
		t.Fatalf("unexpected route %s", d.OpenRoute)
	}
	if d.Blocked {
		t.Fatal("should not be blocked")
	}
}

func TestSeverityPersistenceCombination(t *testing.T) {
	d := newLadder().Decide(loopScores(0.8, 0.5, 0, 0), ready(), nil, now)
	if got := capacityOf(t, d); got != registry.CapacityResponsive {
		t.Fatalf("expected responsive, got %s", got)
	}
	want := []ReasonCode{ReasonSeverityHigh, ReasonPersistenceMid}
	if diff := cmp.Diff(want, d.ReasonCodes); diff != "" {
		t.Fatalf("reason codes mismatch (-want +got):\n%s", diff)
	}
}

func TestDeliberativeOnLegitimacyDivergence(t *testing.T) {
	d := newLadder().Decide(loopScores(0.2, 0.1, -0.3, 0), ready(), nil, now)
	if got := capacityOf(t, d); got != registry.CapacityDeliberative {
		t.Fatalf("expected deliberative, got %s", got)
	}
	if len(d.ReasonCodes) != 1 || d.ReasonCodes[0] != ReasonLegitimacyDivergence {
		t.Fatalf("expected [LEGITIMACY_DIVERGENCE], got %v", d.ReasonCodes)
	}
	if d.Confidence != 0.8 {
		t.Fatalf("expected confidence 0.8, got %f", d.Confidence)
	}
}

func TestDeliberativeOnFairnessRisk(t *testing.T) {
	d := newLadder().Decide(loopScores(0.2, 0.1, 0, 0), ready(), &Hints{FairnessRisk: true}, now)
	if got := capacityOf(t, d); got != registry.CapacityDeliberative {
		t.Fatalf("expected deliberative, got %s", got)
	}
	if len(d.ReasonCodes) != 1 || d.ReasonCodes[0] != ReasonFairnessRisk {
		t.Fatalf("expected [FAIRNESS_RISK], got %v", d.ReasonCodes)
	}
}

func TestDeliberativeBothReasons(t *testing.T) {
	d := newLadder().Decide(loopScores(0.2, 0.1, -0.4, 0), ready(), &Hints{FairnessRisk: true}, now)
	want := []ReasonCode{ReasonLegitimacyDivergence, ReasonFairnessRisk}
	if diff := cmp.Diff(want, d.ReasonCodes); diff != "" {
		t.Fatalf("reason codes mismatch (-want +got):\n%s", diff)
	}
}

func TestStructuralOnPersistence(t *testing.T) {
	d := newLadder().Decide(loopScores(0.2, 0.6, 0, 0), ready(), nil, now)
	if got := capacityOf(t, d); got != registry.CapacityStructural {
		t.Fatalf("expected structural, got %s", got)
	}
	if len(d.ReasonCodes) != 1 || d.ReasonCodes[0] != ReasonPersistent {
		t.Fatalf("expected [PERSISTENT], got %v", d.ReasonCodes)
	}
}

func TestStructuralOnHubSaturation(t *testing.T) {
	d := newLadder().Decide(loopScores(0.2, 0.1, 0, 0.85), ready(), nil, now)
	if got := capacityOf(t, d); got != registry.CapacityStructural {
		t.Fatalf("expected structural, got %s", got)
	}
	if len(d.ReasonCodes) != 1 || d.ReasonCodes[0] != ReasonHubSaturation {
		t.Fatalf("expected [HUB_SATURATION], got %v", d.ReasonCodes)
	}
}

func TestStructuralOnRecurrence(t *testing.T) {
	d := newLadder().Decide(loopScores(0.2, 0.1, 0, 0), ready(), &Hints{RecurrenceFlag: true}, now)
	if got := capacityOf(t, d); got != registry.CapacityStructural {
		t.Fatalf("expected structural, got %s", got)
	}
	if len(d.ReasonCodes) != 1 || d.ReasonCodes[0] != ReasonPersistent {
		t.Fatalf("recurrence contributes PERSISTENT, got %v", d.ReasonCodes)
	}
}

func TestStructuralBothReasons(t *testing.T) {
	d := newLadder().Decide(loopScores(0.2, 0.7, 0, 0.9), ready(), nil, now)
	want := []ReasonCode{ReasonPersistent, ReasonHubSaturation}
	if diff := cmp.Diff(want, d.ReasonCodes); diff != "" {
		t.Fatalf("reason codes mismatch (-want +got):\n%s", diff)
	}
}

func TestAnticipatoryOnEarlyWarning(t *testing.T) {
	d := newLadder().Decide(loopScores(0.3, 0.1, 0, 0), ready(), &Hints{EarlyWarning: true}, now)
	if got := capacityOf(t, d); got != registry.CapacityAnticipatory {
		t.Fatalf("expected anticipatory, got %s", got)
	}
	if len(d.ReasonCodes) != 1 || d.ReasonCodes[0] != ReasonEarlyWarning {
		t.Fatalf("expected [EARLY_WARNING], got %v", d.ReasonCodes)
	}
	if d.Confidence != 0.7 {
		t.Fatalf("expected confidence 0.7, got %f", d.Confidence)
	}
}

func TestEarlyWarningSuppressedAtCeiling(t *testing.T) {
	// severity exactly at the ceiling fails the < comparison; with no recent
	// action the ladder falls through to the reflexive fallback.
	d := newLadder().Decide(loopScores(0.7, 0.1, 0, 0), ready(), &Hints{EarlyWarning: true}, now)
	if got := capacityOf(t, d); got != registry.CapacityReflexive {
		t.Fatalf("expected reflexive fallback, got %s", got)
	}
	if d.Confidence != 0.3 {
		t.Fatalf("expected fallback confidence 0.3, got %f", d.Confidence)
	}
}

func TestReflexiveOnReviewDue(t *testing.T) {
	hints := &Hints{RecentAction: &RecentAction{Capacity: registry.CapacityResponsive, WithinDays: 90, ReviewDue: true}}
	d := newLadder().Decide(loopScores(0.2, 0.1, 0, 0), ready(), hints, now)
	if got := capacityOf(t, d); got != registry.CapacityReflexive {
		t.Fatalf("expected reflexive, got %s", got)
	}
	if len(d.ReasonCodes) != 1 || d.ReasonCodes[0] != ReasonReviewDue {
		t.Fatalf("expected [REVIEW_DUE], got %v", d.ReasonCodes)
	}
	if d.Confidence != 0.6 {
		t.Fatalf("expected confidence 0.6, got %f", d.Confidence)
	}
}

func TestReflexiveOnRecentAction(t *testing.T) {
	hints := &Hints{RecentAction: &RecentAction{Capacity: registry.CapacityResponsive, WithinDays: 30}}
	d := newLadder().Decide(loopScores(0.2, 0.1, 0, 0), ready(), hints, now)
	if got := capacityOf(t, d); got != registry.CapacityReflexive {
		t.Fatalf("expected reflexive, got %s", got)
	}
	if len(d.ReasonCodes) != 1 || d.ReasonCodes[0] != ReasonRecentAction {
		t.Fatalf("expected [RECENT_ACTION], got %v", d.ReasonCodes)
	}
	if d.Confidence != 0.6 {
		t.Fatalf("expected confidence 0.6, got %f", d.Confidence)
	}
}

func TestStaleRecentActionFallsThrough(t *testing.T) {
	hints := &Hints{RecentAction: &RecentAction{Capacity: registry.CapacityResponsive, WithinDays: 60}}
	d := newLadder().Decide(loopScores(0.2, 0.1, 0, 0), ready(), hints, now)
	if d.Confidence != 0.3 {
		t.Fatalf("expected fallback confidence 0.3, got %f", d.Confidence)
	}
}

func TestFallbackReflexive(t *testing.T) {
	d := newLadder().Decide(loopScores(0.1, 0.1, 0, 0), ready(), nil, now)
	if got := capacityOf(t, d); got != registry.CapacityReflexive {
		t.Fatalf("expected reflexive, got %s", got)
	}
	if len(d.ReasonCodes) != 1 || d.ReasonCodes[0] != ReasonRecentAction {
		t.Fatalf("expected [RECENT_ACTION], got %v", d.ReasonCodes)
	}
	if d.Confidence != 0.3 {
		t.Fatalf("expected confidence 0.3, got %f", d.Confidence)
	}
}

func TestDeterminism(t *testing.T) {
	l := newLadder()
	ls := loopScores(0.8, 0.5, -0.1, 0.4)
	hints := &Hints{EarlyWarning: true}

	first := l.Decide(ls, ready(), hints, now)
	second := l.Decide(ls, ready(), hints, now)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("identical inputs must yield identical decisions (-first +second):\n%s", diff)
	}
	if first.Fingerprint != second.Fingerprint {
		t.Fatal("fingerprints diverged across identical calls")
	}
}

func TestRationaleQualifiers(t *testing.T) {
	l := newLadder()

	high := l.Decide(loopScores(1.5, 0, 0, 0), ready(), nil, now)
	if !strings.HasSuffix(high.HumanRationale, "High confidence.") {
		t.Fatalf("expected high qualifier, got %q", high.HumanRationale)
	}

	medium := l.Decide(loopScores(0.2, 0.1, 0, 0), ready(),
		&Hints{RecentAction: &RecentAction{Capacity: registry.CapacityResponsive, WithinDays: 10}}, now)
	if !strings.HasSuffix(medium.HumanRationale, "Medium confidence.") {
		t.Fatalf("expected medium qualifier, got %q", medium.HumanRationale)
	}

	low := l.Decide(loopScores(0.1, 0, 0, 0), ready(), nil, now)
	if !strings.HasSuffix(low.HumanRationale, "Low confidence.") {
		t.Fatalf("expected low qualifier, got %q", low.HumanRationale)
	}
}

func TestHandoffsComeFromRegistry(t *testing.T) {
	reg := registry.Default()
	d := New(DefaultConfig(), reg).Decide(loopScores(1.5, 0, 0, 0), ready(), nil, now)
	if diff := cmp.Diff(reg.Handoffs(registry.CapacityResponsive), d.Handoffs); diff != "" {
		t.Fatalf("handoffs must be resolved through the registry (-want +got):\n%s", diff)
	}
}
