// Package engine coordinates ingestion, window scoring, ladder decisions,
// and idempotent task creation around the pure core packages.
package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/band"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/ladder"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/logging"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/obstore"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/scores"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/tasks"
)

// #region engine-struct

// Engine is the top-level coordinator. The core math stays in the pure
// packages; the engine owns store access and provenance logging.
type Engine struct {
	store  *obstore.Store
	tasks  *tasks.Store
	ladder *ladder.Ladder
	config Config
	logger *zap.Logger
}

// New creates a fully wired engine. logger may be nil.
func New(store *obstore.Store, taskStore *tasks.Store, l *ladder.Ladder, config Config, logger *zap.Logger) (*Engine, error) {
	if config.Alpha <= 0 || config.Alpha > 1 {
		return nil, fmt.Errorf("alpha %v outside (0, 1]", config.Alpha)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := logging.Migrate(store.DB()); err != nil {
		return nil, err
	}
	return &Engine{
		store:  store,
		tasks:  taskStore,
		ladder: l,
		config: config,
		logger: logger,
	}, nil
}

// #endregion engine-struct

// #region ingest

// Ingest normalizes one raw observation against its indicator's band and the
// previous smoothed value, then persists both the raw and normalized rows.
// Callers must apply observations per indicator in timestamp order.
func (e *Engine) Ingest(raw obstore.RawObservation) (obstore.NormalizedObservation, error) {
	ind, err := e.store.GetIndicator(raw.IndicatorKey)
	if err != nil {
		return obstore.NormalizedObservation{}, fmt.Errorf("%w: %s", ErrUnknownIndicator, raw.IndicatorKey)
	}

	prev, err := e.store.PrevSmoothed(raw.IndicatorKey)
	if err != nil {
		return obstore.NormalizedObservation{}, err
	}

	result := band.Apply(raw.Value, ind.Bounds(), prev, e.config.Alpha)

	obs := obstore.NormalizedObservation{
		IndicatorKey: raw.IndicatorKey,
		LoopID:       ind.LoopID,
		Timestamp:    raw.Timestamp.UTC(),
		Value:        raw.Value,
		Smoothed:     result.Smoothed,
		BandPos:      result.Position,
		Status:       result.Status,
		Severity:     abs(result.Position),
	}

	if err := e.store.AppendRaw(raw); err != nil {
		return obstore.NormalizedObservation{}, err
	}
	if err := e.store.AppendNormalized(obs); err != nil {
		return obstore.NormalizedObservation{}, err
	}

	e.logger.Debug("ingested observation",
		zap.String("indicator", raw.IndicatorKey),
		zap.String("loop", ind.LoopID),
		zap.Float64("band_pos", obs.BandPos),
		zap.String("status", string(obs.Status)))
	return obs, nil
}

// #endregion ingest

// #region scores

// Scores recomputes LoopScores fresh from the stored window. Never cached.
func (e *Engine) Scores(loopID string, window scores.Window, asOf time.Time) (scores.LoopScores, error) {
	windowStart := asOf.AddDate(0, 0, -window.Days())
	obs, err := e.store.WindowObservations(loopID, windowStart, asOf)
	if err != nil {
		return scores.LoopScores{}, err
	}
	return scores.Aggregate(loopID, obs, window, asOf), nil
}

// #endregion scores

// #region evaluate

// Evaluate runs the full pipeline: window scores → ladder → fingerprint →
// atomic task lookup-or-create → decision log. Re-evaluating the same loop
// inside the same fingerprint bucket returns the existing task.
func (e *Engine) Evaluate(req EvaluateRequest) (EvaluateResult, error) {
	ls, err := e.Scores(req.LoopID, req.Window, req.AsOf)
	if err != nil {
		return EvaluateResult{}, err
	}
	if req.LegitimacyDelta != nil {
		ls.LegitimacyDelta = *req.LegitimacyDelta
	}

	decision := e.ladder.Decide(ls, req.Readiness, req.Hints, req.AsOf)

	capacity := ""
	route := decision.OpenRoute
	if decision.Capacity != nil {
		capacity = string(*decision.Capacity)
	}

	payload, err := json.Marshal(decisionRecord(ls, req, decision, "", false))
	if err != nil {
		return EvaluateResult{}, fmt.Errorf("marshal task payload: %w", err)
	}

	taskID, created, err := e.tasks.LookupOrCreate(tasks.Task{
		Fingerprint: decision.Fingerprint,
		LoopID:      req.LoopID,
		Capacity:    capacity,
		Route:       route,
		Template:    decision.PreselectTemplate,
		PayloadJSON: string(payload),
	})
	if err != nil {
		return EvaluateResult{}, err
	}

	record := decisionRecord(ls, req, decision, taskID, created)
	scoresJSON, err := json.Marshal(record)
	if err != nil {
		return EvaluateResult{}, fmt.Errorf("marshal decision record: %w", err)
	}
	if err := logging.LogDecision(e.store.DB(), logging.DecisionEntry{
		LoopID:      req.LoopID,
		Window:      string(req.Window),
		Capacity:    capacity,
		Blocked:     decision.Blocked,
		ReasonCodes: joinCodes(decision.ReasonCodes),
		Confidence:  decision.Confidence,
		Fingerprint: decision.Fingerprint,
		TaskID:      taskID,
		ScoresJSON:  string(scoresJSON),
		Rationale:   decision.HumanRationale,
	}); err != nil {
		return EvaluateResult{}, err
	}

	e.logger.Info("evaluated loop",
		zap.String("loop", req.LoopID),
		zap.String("window", string(req.Window)),
		zap.String("capacity", capacity),
		zap.Bool("blocked", decision.Blocked),
		zap.String("fingerprint", decision.Fingerprint),
		zap.String("task_id", taskID),
		zap.Bool("task_created", created))

	return EvaluateResult{
		Decision:    decision,
		Scores:      ls,
		TaskID:      taskID,
		TaskCreated: created,
	}, nil
}

// #endregion evaluate

// #region helpers

func decisionRecord(ls scores.LoopScores, req EvaluateRequest, d ladder.Decision, taskID string, created bool) logging.DecisionRecord {
	capacity := ""
	if d.Capacity != nil {
		capacity = string(*d.Capacity)
	}
	return logging.DecisionRecord{
		LoopID:          ls.LoopID,
		Window:          string(ls.Window),
		AsOf:            ls.AsOf.UTC().Format(time.RFC3339Nano),
		Severity:        ls.Severity,
		Persistence:     ls.Persistence,
		Dispersion:      ls.Dispersion,
		HubLoad:         ls.HubLoad,
		LegitimacyDelta: ls.LegitimacyDelta,
		AutoOK:          req.Readiness.AutoOK,
		ReadinessReason: req.Readiness.Reasons,
		Capacity:        capacity,
		Blocked:         d.Blocked,
		ReasonCodes:     ladder.Strings(d.ReasonCodes),
		Confidence:      d.Confidence,
		Fingerprint:     d.Fingerprint,
		TaskID:          taskID,
		TaskCreated:     created,
	}
}

func joinCodes(codes []ladder.ReasonCode) string {
	out := ""
	for i, c := range codes {
		if i > 0 {
			out += ","
		}
		out += string(c)
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion helpers
