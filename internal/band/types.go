package band

// #region status

// Status classifies a value relative to its DE-band.
type Status string

const (
	StatusBelow  Status = "below"
	StatusInBand Status = "in_band"
	StatusAbove  Status = "above"
)

// ParseStatus validates a wire-format status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusBelow, StatusInBand, StatusAbove:
		return Status(s), true
	}
	return "", false
}

// #endregion status

// #region bounds

// Bounds holds the optional deviation-equilibrium band limits for an indicator.
// A nil pointer means the bound is not configured.
type Bounds struct {
	Lower *float64
	Upper *float64
}

// #endregion bounds

// #region result

// Result is the outcome of normalizing one raw value.
type Result struct {
	Status   Status
	Position float64 // 0 = band center, ±1 = band edge, |pos| > 1 = outside
	Smoothed float64
}

// #endregion result

// #region alpha

// DefaultAlpha is the default exponential smoothing factor.
const DefaultAlpha = 0.3

// #endregion alpha
