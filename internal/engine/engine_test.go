package engine

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/band"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/ladder"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/obstore"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/registry"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/scores"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/tasks"
)

var asOf = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }

func newEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := obstore.NewStore(filepath.Join(t.TempDir(), "engine.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	taskStore, err := tasks.NewStoreWithDB(store.DB())
	if err != nil {
		t.Fatalf("task store: %v", err)
	}

	l := ladder.New(ladder.DefaultConfig(), registry.Default())
	eng, err := New(store, taskStore, l, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

func seedIndicator(t *testing.T, eng *Engine, key string, lower, upper float64, isHub bool) {
	t.Helper()
	err := eng.store.UpsertIndicator(obstore.Indicator{
		Key:    key,
		LoopID: "loop-1",
		Title:  key,
		Lower:  fp(lower),
		Upper:  fp(upper),
		IsHub:  isHub,
	})
	if err != nil {
		t.Fatalf("seed indicator %s: %v", key, err)
	}
}

func TestNewRejectsBadAlpha(t *testing.T) {
	store, err := obstore.NewStore(filepath.Join(t.TempDir(), "a.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	taskStore, err := tasks.NewStoreWithDB(store.DB())
	if err != nil {
		t.Fatalf("task store: %v", err)
	}
	l := ladder.New(ladder.DefaultConfig(), registry.Default())

	for _, alpha := range []float64{0, -0.1, 1.5} {
		if _, err := New(store, taskStore, l, Config{Alpha: alpha}, nil); err == nil {
			t.Fatalf("alpha %v must be rejected", alpha)
		}
	}
}

func TestIngestUnknownIndicator(t *testing.T) {
	eng := newEngine(t)
	_, err := eng.Ingest(obstore.RawObservation{IndicatorKey: "ghost", Timestamp: asOf, Value: 1})
	if !errors.Is(err, ErrUnknownIndicator) {
		t.Fatalf("expected ErrUnknownIndicator, got %v", err)
	}
}

func TestIngestNormalizesAndSmooths(t *testing.T) {
	eng := newEngine(t)
	seedIndicator(t, eng, "wait_time", 0, 10, false)

	// First observation: no history, smoothed equals the raw value.
	obs, err := eng.Ingest(obstore.RawObservation{
		IndicatorKey: "wait_time", Timestamp: asOf.AddDate(0, 0, -2), Value: 15,
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if obs.Status != band.StatusAbove {
		t.Fatalf("expected above, got %s", obs.Status)
	}
	if obs.BandPos != 2.0 {
		t.Fatalf("expected band pos 2.0, got %f", obs.BandPos)
	}
	if obs.Smoothed != 15.0 {
		t.Fatalf("expected smoothed 15.0 with no history, got %f", obs.Smoothed)
	}
	if obs.Severity != 2.0 {
		t.Fatalf("expected severity 2.0, got %f", obs.Severity)
	}

	// Second observation blends against the stored smoothed value.
	obs, err = eng.Ingest(obstore.RawObservation{
		IndicatorKey: "wait_time", Timestamp: asOf.AddDate(0, 0, -1), Value: 5,
	})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	want := 0.3*5 + 0.7*15
	if math.Abs(obs.Smoothed-want) > 1e-9 {
		t.Fatalf("expected smoothed %f, got %f", want, obs.Smoothed)
	}
	if obs.Status != band.StatusInBand {
		t.Fatalf("expected in_band, got %s", obs.Status)
	}
}

func TestScoresFromStoredWindow(t *testing.T) {
	eng := newEngine(t)
	seedIndicator(t, eng, "wait_time", 0, 10, false)

	if _, err := eng.Ingest(obstore.RawObservation{
		IndicatorKey: "wait_time", Timestamp: asOf.AddDate(0, 0, -1), Value: 15,
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	ls, err := eng.Scores("loop-1", scores.Window7d, asOf)
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if ls.Severity != 2.0 {
		t.Fatalf("expected severity 2.0, got %f", ls.Severity)
	}
	if ls.Dispersion != 1.0 {
		t.Fatalf("expected dispersion 1.0, got %f", ls.Dispersion)
	}
}

func TestEvaluateIdempotentWithinBucket(t *testing.T) {
	eng := newEngine(t)
	seedIndicator(t, eng, "wait_time", 0, 10, false)

	if _, err := eng.Ingest(obstore.RawObservation{
		IndicatorKey: "wait_time", Timestamp: asOf.AddDate(0, 0, -1), Value: 15,
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	req := EvaluateRequest{
		LoopID:    "loop-1",
		Window:    scores.Window7d,
		AsOf:      asOf,
		Readiness: ladder.ReadinessGate{AutoOK: true},
	}

	first, err := eng.Evaluate(req)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if first.Decision.Capacity == nil || *first.Decision.Capacity != registry.CapacityResponsive {
		t.Fatalf("expected responsive, got %+v", first.Decision.Capacity)
	}
	if !first.TaskCreated || first.TaskID == "" {
		t.Fatalf("first evaluate must create a task, got %+v", first)
	}

	second, err := eng.Evaluate(req)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if second.TaskCreated {
		t.Fatal("second evaluate in the same bucket must not create a task")
	}
	if second.TaskID != first.TaskID {
		t.Fatalf("expected canonical task id %s, got %s", first.TaskID, second.TaskID)
	}
	if second.Decision.Fingerprint != first.Decision.Fingerprint {
		t.Fatal("fingerprints must match inside the bucket")
	}
}

func TestEvaluateBlocked(t *testing.T) {
	eng := newEngine(t)
	seedIndicator(t, eng, "wait_time", 0, 10, false)

	result, err := eng.Evaluate(EvaluateRequest{
		LoopID:    "loop-1",
		Window:    scores.Window7d,
		AsOf:      asOf,
		Readiness: ladder.ReadinessGate{AutoOK: false, Reasons: []string{"stale_data"}},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !result.Decision.Blocked || result.Decision.Capacity != nil {
		t.Fatalf("expected blocked decision, got %+v", result.Decision)
	}
	if result.Decision.OpenRoute != registry.BlockedRoute {
		t.Fatalf("expected route %s, got %s", registry.BlockedRoute, result.Decision.OpenRoute)
	}
	if result.TaskID == "" {
		t.Fatal("blocked evaluation must still yield a triage task")
	}
}

func TestEvaluateLegitimacyOverride(t *testing.T) {
	eng := newEngine(t)
	seedIndicator(t, eng, "wait_time", 0, 10, false)

	// In-band data keeps severity below every responsive threshold; the
	// supplied legitimacy delta must steer the ladder to deliberative.
	if _, err := eng.Ingest(obstore.RawObservation{
		IndicatorKey: "wait_time", Timestamp: asOf.AddDate(0, 0, -1), Value: 5,
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	result, err := eng.Evaluate(EvaluateRequest{
		LoopID:          "loop-1",
		Window:          scores.Window7d,
		AsOf:            asOf,
		Readiness:       ladder.ReadinessGate{AutoOK: true},
		LegitimacyDelta: fp(-0.5),
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.Decision.Capacity == nil || *result.Decision.Capacity != registry.CapacityDeliberative {
		t.Fatalf("expected deliberative, got %+v", result.Decision.Capacity)
	}
	if result.Scores.LegitimacyDelta != -0.5 {
		t.Fatalf("expected overridden delta -0.5, got %f", result.Scores.LegitimacyDelta)
	}
}
