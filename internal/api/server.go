// Package api exposes the decision ladder and evaluation engine over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/engine"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/ladder"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/obstore"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/scores"
)

// #region server-struct

// Server holds the HTTP handlers.
type Server struct {
	engine *engine.Engine
	ladder *ladder.Ladder
	logger *zap.Logger
}

// New creates a Server. logger may be nil.
func New(eng *engine.Engine, l *ladder.Ladder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: eng, ladder: l, logger: logger}
}

// #endregion server-struct

// #region router

// Router builds the chi route table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	r.Post("/activate", s.handleActivate)
	r.Route("/loops/{loop_id}", func(api chi.Router) {
		api.Post("/observations", s.handleIngest)
		api.Get("/scores", s.handleScores)
		api.Post("/evaluate", s.handleEvaluate)
	})
	return r
}

// #endregion router

// #region activate

// handleActivate runs the pure decision path: scores arrive in the payload,
// no store reads, no task creation. Determinism makes this safely retryable.
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var in ActivationInput
	if err := ReadJSON(r, &in); err != nil {
		WriteError(w, 400, "BAD_JSON", err.Error())
		return
	}
	ls, readiness, hints, now, err := ParseInput(in)
	if err != nil {
		WriteError(w, 400, "BAD_INPUT", err.Error())
		return
	}

	decision := s.ladder.Decide(ls, readiness, hints, now)
	s.logger.Info("activation decided",
		zap.String("loop", ls.LoopID),
		zap.Bool("blocked", decision.Blocked),
		zap.String("fingerprint", decision.Fingerprint))
	WriteJSON(w, 200, FromDecision(decision))
}

// #endregion activate

// #region ingest

type ingestRequest struct {
	SourceID     string  `json:"sourceId,omitempty"`
	IndicatorKey string  `json:"indicatorKey"`
	Timestamp    string  `json:"ts"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit,omitempty"`
	MetadataJSON string  `json:"metadata,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	loopID := chi.URLParam(r, "loop_id")
	var req ingestRequest
	if err := ReadJSON(r, &req); err != nil {
		WriteError(w, 400, "BAD_JSON", err.Error())
		return
	}
	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		WriteError(w, 400, "BAD_INPUT", "invalid ts: "+err.Error())
		return
	}

	obs, err := s.engine.Ingest(obstore.RawObservation{
		SourceID:     req.SourceID,
		IndicatorKey: req.IndicatorKey,
		Timestamp:    ts,
		Value:        req.Value,
		Unit:         req.Unit,
		MetadataJSON: req.MetadataJSON,
	})
	if errors.Is(err, engine.ErrUnknownIndicator) {
		WriteError(w, 404, "UNKNOWN_INDICATOR", err.Error())
		return
	}
	if err != nil {
		WriteError(w, 500, "STORE_ERROR", err.Error())
		return
	}
	if obs.LoopID != loopID {
		s.logger.Warn("indicator belongs to another loop",
			zap.String("indicator", req.IndicatorKey),
			zap.String("url_loop", loopID),
			zap.String("owning_loop", obs.LoopID))
	}

	WriteJSON(w, 200, map[string]any{
		"request_id": NewRequestID(),
		"indicator":  obs.IndicatorKey,
		"loopId":     obs.LoopID,
		"status":     string(obs.Status),
		"bandPos":    obs.BandPos,
		"smoothed":   obs.Smoothed,
	})
}

// #endregion ingest

// #region scores

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	loopID := chi.URLParam(r, "loop_id")
	window, err := scores.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		WriteError(w, 400, "BAD_INPUT", err.Error())
		return
	}
	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		asOf, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, 400, "BAD_INPUT", "invalid asOf: "+err.Error())
			return
		}
	}

	ls, err := s.engine.Scores(loopID, window, asOf)
	if err != nil {
		WriteError(w, 500, "STORE_ERROR", err.Error())
		return
	}
	WriteJSON(w, 200, map[string]any{
		"loopId":          ls.LoopID,
		"window":          string(ls.Window),
		"asOf":            ls.AsOf.UTC().Format(time.RFC3339),
		"severity":        ls.Severity,
		"persistence":     ls.Persistence,
		"dispersion":      ls.Dispersion,
		"hubLoad":         ls.HubLoad,
		"legitimacyDelta": ls.LegitimacyDelta,
	})
}

// #endregion scores

// #region evaluate

type evaluateRequest struct {
	Window          string           `json:"window"`
	AsOf            string           `json:"asOf"`
	Readiness       ReadinessPayload `json:"readiness"`
	Hints           *HintsPayload    `json:"hints,omitempty"`
	LegitimacyDelta *float64         `json:"legitimacyDelta,omitempty"`
}

// handleEvaluate runs the full pipeline against stored observations,
// including idempotent task creation.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	loopID := chi.URLParam(r, "loop_id")
	var req evaluateRequest
	if err := ReadJSON(r, &req); err != nil {
		WriteError(w, 400, "BAD_JSON", err.Error())
		return
	}
	window, err := scores.ParseWindow(req.Window)
	if err != nil {
		WriteError(w, 400, "BAD_INPUT", err.Error())
		return
	}
	asOf := time.Now().UTC()
	if req.AsOf != "" {
		asOf, err = time.Parse(time.RFC3339, req.AsOf)
		if err != nil {
			WriteError(w, 400, "BAD_INPUT", "invalid asOf: "+err.Error())
			return
		}
	}
	hints, err := parseHints(req.Hints)
	if err != nil {
		WriteError(w, 400, "BAD_INPUT", err.Error())
		return
	}

	result, err := s.engine.Evaluate(engine.EvaluateRequest{
		LoopID: loopID,
		Window: window,
		AsOf:   asOf,
		Readiness: ladder.ReadinessGate{
			AutoOK:  req.Readiness.AutoOK,
			Reasons: req.Readiness.Reasons,
		},
		Hints:           hints,
		LegitimacyDelta: req.LegitimacyDelta,
	})
	if err != nil {
		WriteError(w, 500, "EVALUATE_ERROR", err.Error())
		return
	}

	WriteJSON(w, 200, map[string]any{
		"request_id":  NewRequestID(),
		"decision":    FromDecision(result.Decision),
		"taskId":      result.TaskID,
		"taskCreated": result.TaskCreated,
	})
}

// #endregion evaluate
