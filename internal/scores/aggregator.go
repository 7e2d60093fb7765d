// Package scores aggregates normalized observations over a trailing time
// window into loop-level signal scores.
package scores

import (
	"math"
	"time"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/band"
)

// #region aggregate

// Aggregate computes LoopScores from one loop's normalized observations.
// Only observations with window_start <= ts <= as_of are retained.
// Empty windows yield all-zero scores rather than an error.
//
// LegitimacyDelta is emitted as 0: it requires a trust/participation pairing
// external to band aggregation and must be supplied by the caller when known.
func Aggregate(loopID string, obs []Observation, window Window, asOf time.Time) LoopScores {
	windowStart := asOf.AddDate(0, 0, -window.Days())

	var retained []Observation
	for _, o := range obs {
		if o.Timestamp.Before(windowStart) || o.Timestamp.After(asOf) {
			continue
		}
		retained = append(retained, o)
	}

	severity := meanAbsPos(retained)
	if severity > 2 {
		severity = 2
	}

	persistence, totalDays, outsideDays := dayPersistence(retained)
	dispersion, totalInd, outsideInd := latestDispersion(retained)

	var hubObs []Observation
	for _, o := range retained {
		if o.IsHub {
			hubObs = append(hubObs, o)
		}
	}
	hubLoad := meanAbsPos(hubObs)

	return LoopScores{
		LoopID:      loopID,
		Window:      window,
		AsOf:        asOf,
		Severity:    severity,
		Persistence: persistence,
		Dispersion:  dispersion,
		HubLoad:     hubLoad,
		Meta: Meta{
			WindowStart:       windowStart,
			TotalIndicators:   totalInd,
			OutsideIndicators: outsideInd,
			TotalDays:         totalDays,
			OutsideDays:       outsideDays,
		},
	}
}

// #endregion aggregate

// #region severity

// meanAbsPos computes mean |band_pos|, 0 for an empty set.
func meanAbsPos(obs []Observation) float64 {
	if len(obs) == 0 {
		return 0
	}
	var sum float64
	for _, o := range obs {
		sum += math.Abs(o.BandPos)
	}
	return sum / float64(len(obs))
}

// #endregion severity

// #region persistence

// dayPersistence buckets observations by UTC calendar date. A date counts as
// outside if any observation on it has a status other than in_band.
func dayPersistence(obs []Observation) (persistence float64, totalDays, outsideDays int) {
	days := map[string]bool{}
	for _, o := range obs {
		key := o.Timestamp.UTC().Format("2006-01-02")
		if o.Status != band.StatusInBand {
			days[key] = true
		} else if _, seen := days[key]; !seen {
			days[key] = false
		}
	}
	if len(days) == 0 {
		return 0, 0, 0
	}
	for _, outside := range days {
		if outside {
			outsideDays++
		}
	}
	return float64(outsideDays) / float64(len(days)), len(days), outsideDays
}

// #endregion persistence

// #region dispersion

// latestDispersion keeps only the most recent observation per indicator and
// measures the fraction whose latest status is out of band.
func latestDispersion(obs []Observation) (dispersion float64, totalIndicators, outsideIndicators int) {
	latest := map[string]Observation{}
	for _, o := range obs {
		cur, ok := latest[o.IndicatorKey]
		if !ok || o.Timestamp.After(cur.Timestamp) {
			latest[o.IndicatorKey] = o
		}
	}
	if len(latest) == 0 {
		return 0, 0, 0
	}
	for _, o := range latest {
		if o.Status != band.StatusInBand {
			outsideIndicators++
		}
	}
	return float64(outsideIndicators) / float64(len(latest)), len(latest), outsideIndicators
}

// #endregion dispersion
