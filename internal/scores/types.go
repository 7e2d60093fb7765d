package scores

import (
	"fmt"
	"time"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/band"
)

// #region window

// Window is a trailing time-window identifier.
type Window string

const (
	Window7d  Window = "7d"
	Window14d Window = "14d"
	Window28d Window = "28d"
	Window90d Window = "90d"
)

// Days returns the window length in days.
func (w Window) Days() int {
	switch w {
	case Window7d:
		return 7
	case Window14d:
		return 14
	case Window28d:
		return 28
	case Window90d:
		return 90
	}
	return 0
}

// ParseWindow validates a wire-format window string. Windows outside the
// allowed enum are a caller contract violation and are rejected here.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case Window7d, Window14d, Window28d, Window90d:
		return Window(s), nil
	}
	return "", fmt.Errorf("invalid window %q (want 7d, 14d, 28d or 90d)", s)
}

// #endregion window

// #region observation

// Observation is one normalized observation as consumed by the aggregator.
type Observation struct {
	IndicatorKey string
	Timestamp    time.Time
	BandPos      float64
	Status       band.Status
	Smoothed     float64
	IsHub        bool
}

// #endregion observation

// #region loop-scores

// LoopScores are the five window-aggregated signal scores for one loop.
// They are recomputed fresh on each request; any cache is not authoritative.
type LoopScores struct {
	LoopID          string
	Window          Window
	AsOf            time.Time
	Severity        float64 // mean |band_pos|, clipped to [0, 2]
	Persistence     float64 // out-of-band days / total days, [0, 1]
	Dispersion      float64 // indicators currently out of band / observed, [0, 1]
	HubLoad         float64 // mean |band_pos| over hub indicators
	LegitimacyDelta float64 // externally supplied; 0 from this aggregator
	Meta            Meta
}

// Meta carries aggregation provenance for rationale-building and audit.
// It does not participate in the decision math.
type Meta struct {
	WindowStart       time.Time
	TotalIndicators   int
	OutsideIndicators int
	TotalDays         int
	OutsideDays       int
}

// #endregion loop-scores
