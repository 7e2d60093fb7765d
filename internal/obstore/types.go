package obstore

import (
	"time"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/band"
)

// #region indicator

// Indicator is a configured measurement stream belonging to one loop.
// Bound edits only affect normalization of future observations.
type Indicator struct {
	Key    string
	LoopID string
	Title  string
	Unit   string
	Lower  *float64
	Upper  *float64
	IsHub  bool // breach indicates a network-wide bottleneck
}

// Bounds returns the indicator's DE-band limits.
func (i Indicator) Bounds() band.Bounds {
	return band.Bounds{Lower: i.Lower, Upper: i.Upper}
}

// #endregion indicator

// #region raw-observation

// RawObservation is one append-only ingested measurement.
type RawObservation struct {
	SourceID     string
	IndicatorKey string
	Timestamp    time.Time
	Value        float64
	Unit         string
	MetadataJSON string
}

// #endregion raw-observation

// #region normalized-observation

// NormalizedObservation is the band-normalized, smoothed form of a raw
// observation. Append-only; derived deterministically from the raw value plus
// the previous smoothed value for the same indicator.
type NormalizedObservation struct {
	IndicatorKey string
	LoopID       string
	Timestamp    time.Time
	Value        float64
	Smoothed     float64
	BandPos      float64
	Status       band.Status
	Severity     float64 // |BandPos|
}

// #endregion normalized-observation
