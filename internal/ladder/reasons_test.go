package ladder

import "testing"

var allReasonCodes = []ReasonCode{
	ReasonDQBlock,
	ReasonSeverityHigh,
	ReasonPersistenceMid,
	ReasonLegitimacyDivergence,
	ReasonFairnessRisk,
	ReasonPersistent,
	ReasonHubSaturation,
	ReasonEarlyWarning,
	ReasonReviewDue,
	ReasonRecentAction,
}

func TestEveryReasonCodeHasPhrase(t *testing.T) {
	for _, code := range allReasonCodes {
		phrase := code.Phrase()
		if phrase == "" {
			t.Fatalf("reason %s has empty phrase", code)
		}
		if phrase == string(code) {
			t.Fatalf("reason %s fell through the phrase mapping", code)
		}
	}
}

func TestStrings(t *testing.T) {
	got := Strings([]ReasonCode{ReasonSeverityHigh, ReasonPersistenceMid})
	if len(got) != 2 || got[0] != "SEVERITY_HIGH" || got[1] != "PERSISTENCE_MID" {
		t.Fatalf("unexpected conversion: %v", got)
	}
}
