package registry

// #region capacity

// Capacity is one of the five response modes a loop can be routed into.
type Capacity string

const (
	CapacityResponsive   Capacity = "responsive"
	CapacityReflexive    Capacity = "reflexive"
	CapacityDeliberative Capacity = "deliberative"
	CapacityAnticipatory Capacity = "anticipatory"
	CapacityStructural   Capacity = "structural"
)

// AllCapacities lists every capacity in ladder priority order.
var AllCapacities = []Capacity{
	CapacityResponsive,
	CapacityReflexive,
	CapacityDeliberative,
	CapacityAnticipatory,
	CapacityStructural,
}

// ParseCapacity validates a wire-format capacity string.
func ParseCapacity(s string) (Capacity, bool) {
	switch Capacity(s) {
	case CapacityResponsive, CapacityReflexive, CapacityDeliberative,
		CapacityAnticipatory, CapacityStructural:
		return Capacity(s), true
	}
	return "", false
}

// #endregion capacity

// #region trigger

// Trigger is the timing condition that fires a handoff.
type Trigger string

const (
	TriggerEndOfTimebox Trigger = "end_of_timebox"
	TriggerReviewDue    Trigger = "review_due"
	TriggerImmediate    Trigger = "immediate"
)

// #endregion trigger

// #region handoff

// Handoff is a pre-declared follow-up transition to another capacity.
type Handoff struct {
	To       Capacity `json:"to" yaml:"to"`
	When     Trigger  `json:"when" yaml:"when"`
	Template string   `json:"template,omitempty" yaml:"template,omitempty"`
}

// #endregion handoff

// #region entry

// Entry holds the default routing for one capacity.
type Entry struct {
	Route    string    `yaml:"route"`
	Template string    `yaml:"template"`
	Handoffs []Handoff `yaml:"handoffs"`
}

// #endregion entry

// #region blocked-destination

// Blocked decisions always route to manual data triage, independent of scores.
const (
	BlockedRoute    = "/data-triage"
	BlockedTemplate = "dq_review"
)

// #endregion blocked-destination
