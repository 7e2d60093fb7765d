// Package registry holds the static capacity-to-routing table consumed by the
// decision ladder and by external UIs. The table is immutable once built;
// retargeting a capacity is a single-entry edit here or in an override file.
package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region registry-struct

// Registry is an immutable capacity → routing lookup table.
type Registry struct {
	entries map[Capacity]Entry
}

// #endregion registry-struct

// #region default

// Default returns the built-in routing table.
func Default() *Registry {
	return &Registry{entries: map[Capacity]Entry{
		CapacityResponsive: {
			Route:    "/workspace-5c/responsive/checkpoint",
			Template: "containment_sprint",
			Handoffs: []Handoff{
				{To: CapacityReflexive, When: TriggerEndOfTimebox},
			},
		},
		CapacityReflexive: {
			Route:    "/workspace-5c/reflexive/review",
			Template: "retro_review",
		},
		CapacityDeliberative: {
			Route:    "/workspace-5c/deliberative/forum",
			Template: "stakeholder_forum",
			Handoffs: []Handoff{
				{To: CapacityStructural, When: TriggerReviewDue},
			},
		},
		CapacityAnticipatory: {
			Route:    "/workspace-5c/anticipatory/watch",
			Template: "scenario_watch",
			Handoffs: []Handoff{
				{To: CapacityResponsive, When: TriggerImmediate, Template: "containment_sprint"},
			},
		},
		CapacityStructural: {
			Route:    "/workspace-5c/structural/redesign",
			Template: "mandate_redesign",
			Handoffs: []Handoff{
				{To: CapacityReflexive, When: TriggerReviewDue},
			},
		},
	}}
}

// #endregion default

// #region lookup

// Entry returns the routing entry for a capacity.
func (r *Registry) Entry(c Capacity) (Entry, bool) {
	e, ok := r.entries[c]
	return e, ok
}

// Route returns the open route for a capacity, "" if unknown.
func (r *Registry) Route(c Capacity) string {
	return r.entries[c].Route
}

// Template returns the default template for a capacity, "" if unknown.
func (r *Registry) Template(c Capacity) string {
	return r.entries[c].Template
}

// Handoffs returns the default handoff list for a capacity.
func (r *Registry) Handoffs(c Capacity) []Handoff {
	return r.entries[c].Handoffs
}

// #endregion lookup

// #region overrides

// LoadOverrides reads a YAML file mapping capacities to entries and merges it
// over the defaults. Capacities absent from the file keep their built-ins.
func LoadOverrides(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry overrides %s: %w", path, err)
	}
	var raw map[string]Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse registry overrides %s: %w", path, err)
	}

	reg := Default()
	for key, entry := range raw {
		c, ok := ParseCapacity(key)
		if !ok {
			return nil, fmt.Errorf("registry overrides %s: unknown capacity %q", path, key)
		}
		merged := reg.entries[c]
		if entry.Route != "" {
			merged.Route = entry.Route
		}
		if entry.Template != "" {
			merged.Template = entry.Template
		}
		if entry.Handoffs != nil {
			for _, h := range entry.Handoffs {
				if _, ok := ParseCapacity(string(h.To)); !ok {
					return nil, fmt.Errorf("registry overrides %s: handoff to unknown capacity %q", path, h.To)
				}
			}
			merged.Handoffs = entry.Handoffs
		}
		reg.entries[c] = merged
	}
	return reg, nil
}

// #endregion overrides
