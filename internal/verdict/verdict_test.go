package verdict

import (
	"encoding/json"
	"strings"
	"testing"
)

// =============================================================================
// Decision table
// =============================================================================

func TestDecideTable(t *testing.T) {
	tests := []struct {
		name                                             string
		minEntropy, stabilityStdDev, autocorr, crossCorr float64
		want                                             Label
	}{
		{"entropy below floor", 0.3, 0.1, 0.05, 0.02, Cut},
		{"unstable across trials", 4.0, 2.5, 0.05, 0.02, Cut},
		{"redundant with peer", 4.0, 0.2, 0.05, 0.45, Cut},
		{"weak entropy", 1.2, 0.2, 0.05, 0.02, Demote},
		{"temporal dependence", 3.0, 0.2, 0.6, 0.05, Demote},
		{"healthy", 5.0, 0.2, 0.05, 0.05, Keep},
		{"exactly at floor", 0.5, 0.2, 0.05, 0.05, Demote},
		{"exactly at stability cutoff", 4.0, 2.0, 0.05, 0.05, Keep},
		{"exactly at cross-corr limit", 4.0, 0.2, 0.05, 0.30, Keep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Decide(tt.minEntropy, tt.stabilityStdDev, tt.autocorr, tt.crossCorr)
			if v.Label != tt.want {
				t.Errorf("expected %s, got %s (%s)", tt.want, v.Label, v.Reason)
			}
			if v.Reason == "" {
				t.Error("verdict must carry a reason")
			}
		})
	}
}

func TestDecideOrderFloorBeforeRedundancy(t *testing.T) {
	// A source failing multiple rules reports the first matching one.
	v := Decide(0.1, 3.0, 0.9, 0.9)
	if v.Label != Cut {
		t.Fatalf("expected Cut, got %s", v.Label)
	}
	if !strings.Contains(v.Reason, "floor") {
		t.Errorf("entropy floor should win over later rules, reason: %s", v.Reason)
	}
}

func TestDecideRedundantPeerNamed(t *testing.T) {
	v := DefaultThresholds().Decide(4.0, 0.2, 0.05, 0.8, "clock_jitter")
	if v.Label != Cut {
		t.Fatalf("expected Cut, got %s", v.Label)
	}
	if !strings.Contains(v.Reason, "clock_jitter") {
		t.Errorf("reason should name the redundant peer, got: %s", v.Reason)
	}
}

func TestDecideCustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.EntropyFloor = 2.0
	if v := th.Decide(1.5, 0.1, 0.05, 0.02, ""); v.Label != Cut {
		t.Errorf("raised floor should cut at 1.5 bits, got %s", v.Label)
	}
}

// =============================================================================
// Label encoding
// =============================================================================

func TestLabelStrings(t *testing.T) {
	if Keep.String() != "keep" || Demote.String() != "demote" || Cut.String() != "cut" {
		t.Error("unexpected label strings")
	}
}

func TestLabelJSONRoundTrip(t *testing.T) {
	for _, l := range []Label{Keep, Demote, Cut} {
		data, err := json.Marshal(l)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != `"`+l.String()+`"` {
			t.Errorf("expected string encoding, got %s", data)
		}
		var back Label
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatal(err)
		}
		if back != l {
			t.Errorf("round trip changed %s to %s", l, back)
		}
	}
}

func TestLabelUnmarshalUnknown(t *testing.T) {
	var l Label
	if err := json.Unmarshal([]byte(`"maybe"`), &l); err == nil {
		t.Error("unknown label should fail to unmarshal")
	}
}
