package replay

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/ladder"
)

// #region report

// CaseResult is the replay outcome for a single fixture case.
type CaseResult struct {
	Name     string
	Passed   bool
	Mismatch string // human-readable diff when failed
}

// Report is the outcome of replaying a whole fixture.
type Report struct {
	Total   int
	Passed  int
	Results []CaseResult
}

// OK reports whether every case reproduced its expected decision.
func (r Report) OK() bool { return r.Passed == r.Total }

// #endregion report

// #region run

// Run replays every case through the ladder and compares against the
// expectations. The ladder is pure, so any mismatch means either the fixture
// is stale or determinism is broken.
func Run(f *Fixture, l *ladder.Ladder) (Report, error) {
	report := Report{Total: len(f.Cases)}
	for i := range f.Cases {
		c := &f.Cases[i]
		ls, readiness, hints, now, err := c.ToInputs()
		if err != nil {
			return Report{}, err
		}

		decision := l.Decide(ls, readiness, hints, now)
		result := CaseResult{Name: c.Name, Passed: true}

		if mismatch := compare(c.Expected, decision); mismatch != "" {
			result.Passed = false
			result.Mismatch = mismatch
		}
		if result.Passed {
			report.Passed++
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

// #endregion run

// #region compare

func compare(want Expected, got ladder.Decision) string {
	gotCapacity := ""
	if got.Capacity != nil {
		gotCapacity = string(*got.Capacity)
	}
	if want.Capacity != gotCapacity {
		return fmt.Sprintf("capacity: want %q, got %q", want.Capacity, gotCapacity)
	}
	if want.Blocked != got.Blocked {
		return fmt.Sprintf("blocked: want %v, got %v", want.Blocked, got.Blocked)
	}
	if diff := cmp.Diff(want.ReasonCodes, ladder.Strings(got.ReasonCodes)); diff != "" {
		return "reason codes (-want +got):\n" + diff
	}
	if want.Confidence != got.Confidence {
		return fmt.Sprintf("confidence: want %v, got %v", want.Confidence, got.Confidence)
	}
	if want.Fingerprint != "" && want.Fingerprint != got.Fingerprint {
		return fmt.Sprintf("fingerprint: want %s, got %s", want.Fingerprint, got.Fingerprint)
	}
	return ""
}

// #endregion compare
