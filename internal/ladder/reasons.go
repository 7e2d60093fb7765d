package ladder

// #region reason-code

// ReasonCode is a closed enumeration of machine-readable decision reasons.
// New codes must also be added to Phrase, which is exhaustive by construction.
type ReasonCode string

const (
	ReasonDQBlock              ReasonCode = "DQ_BLOCK"
	ReasonSeverityHigh         ReasonCode = "SEVERITY_HIGH"
	ReasonPersistenceMid       ReasonCode = "PERSISTENCE_MID"
	ReasonLegitimacyDivergence ReasonCode = "LEGITIMACY_DIVERGENCE"
	ReasonFairnessRisk         ReasonCode = "FAIRNESS_RISK"
	ReasonPersistent           ReasonCode = "PERSISTENT"
	ReasonHubSaturation        ReasonCode = "HUB_SATURATION"
	ReasonEarlyWarning         ReasonCode = "EARLY_WARNING"
	ReasonReviewDue            ReasonCode = "REVIEW_DUE"
	ReasonRecentAction         ReasonCode = "RECENT_ACTION"
)

// #endregion reason-code

// #region phrase

// Phrase maps a reason code to its human-readable fragment.
func (c ReasonCode) Phrase() string {
	switch c {
	case ReasonDQBlock:
		return "data quality gate blocked automation"
	case ReasonSeverityHigh:
		return "signals are running far outside their bands"
	case ReasonPersistenceMid:
		return "out-of-band days are accumulating"
	case ReasonLegitimacyDivergence:
		return "trust is falling faster than service quality"
	case ReasonFairnessRisk:
		return "a fairness risk was flagged"
	case ReasonPersistent:
		return "the deviation has persisted across the window"
	case ReasonHubSaturation:
		return "hub indicators are saturated"
	case ReasonEarlyWarning:
		return "an early-warning signal fired before severity built up"
	case ReasonReviewDue:
		return "a scheduled review of the last action is due"
	case ReasonRecentAction:
		return "a recent action is still in its observation period"
	}
	return string(c)
}

// #endregion phrase

// #region strings

// Strings converts a reason code list for hashing and wire output.
func Strings(codes []ReasonCode) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}

// #endregion strings
