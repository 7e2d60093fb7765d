// Package band converts raw indicator values into band statuses and
// continuous band positions, with optional exponential smoothing.
package band

// #region normalize

// Normalize computes the band status and position of value against bounds.
// Degenerate configurations (no bounds, or zero half-width) fall back to
// in_band at position 0; this function never fails.
func Normalize(value float64, bounds Bounds) (Status, float64) {
	if bounds.Lower == nil && bounds.Upper == nil {
		return StatusInBand, 0
	}

	// A missing bound is treated as equal to the current value, so a
	// single-bounded indicator degenerates to half-width 0.
	lo := value
	if bounds.Lower != nil {
		lo = *bounds.Lower
	}
	hi := value
	if bounds.Upper != nil {
		hi = *bounds.Upper
	}

	center := (lo + hi) / 2
	halfWidth := (hi - lo) / 2

	pos := 0.0
	if halfWidth != 0 {
		pos = (value - center) / halfWidth
	}

	// Bound comparisons are strict: a value exactly on a bound is in_band.
	status := StatusInBand
	switch {
	case bounds.Lower != nil && value < *bounds.Lower:
		status = StatusBelow
	case bounds.Upper != nil && value > *bounds.Upper:
		status = StatusAbove
	}

	if halfWidth == 0 {
		return status, 0
	}
	return status, pos
}

// #endregion normalize

// #region smooth

// Smooth applies exponential smoothing: alpha*value + (1-alpha)*prev.
// A nil prev means no smoothing history exists and the raw value is returned.
// The caller is responsible for applying observations per indicator in
// timestamp order; only the immediately preceding smoothed value is needed.
func Smooth(value float64, prev *float64, alpha float64) float64 {
	if prev == nil {
		return value
	}
	return alpha*value + (1-alpha)*(*prev)
}

// #endregion smooth

// #region apply

// Apply normalizes and smooths one value in a single call.
func Apply(value float64, bounds Bounds, prev *float64, alpha float64) Result {
	status, pos := Normalize(value, bounds)
	return Result{
		Status:   status,
		Position: pos,
		Smoothed: Smooth(value, prev, alpha),
	}
}

// #endregion apply
