// Package verdict holds the single decision function that answers
// "is this entropy source good enough".
//
// The decision table is evaluated in order, first match wins, and the
// thresholds live in one named configuration struct rather than being
// re-typed wherever a judgment is needed. Decide is a pure function:
// the same four inputs always produce the same verdict.
package verdict

import (
	"encoding/json"
	"fmt"
)

// Label classifies a candidate source.
type Label int

const (
	// Keep: independent, stable, sufficient entropy.
	Keep Label = iota
	// Demote: usable but weak; excluded from the primary set.
	Demote
	// Cut: rejected outright.
	Cut
)

// String returns the label used in reports and stored audits.
func (l Label) String() string {
	switch l {
	case Keep:
		return "keep"
	case Demote:
		return "demote"
	case Cut:
		return "cut"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// MarshalJSON encodes the label as its string form so stored reports
// stay readable without the enum values.
func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts the string form written by MarshalJSON.
func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "keep":
		*l = Keep
	case "demote":
		*l = Demote
	case "cut":
		*l = Cut
	default:
		return fmt.Errorf("unknown verdict label %q", s)
	}
	return nil
}

// Verdict is the final classification with the rule that produced it.
type Verdict struct {
	Label  Label  `json:"label"`
	Reason string `json:"reason"`
}

// Thresholds are the named decision constants. The defaults are the
// values used consistently across the validation corpus.
type Thresholds struct {
	// EntropyFloor cuts any source whose full-scale min-entropy is
	// below this many bits per byte.
	EntropyFloor float64 `toml:"entropy_floor" json:"entropy_floor"`

	// EntropyWeak demotes sources below this min-entropy.
	EntropyWeak float64 `toml:"entropy_weak" json:"entropy_weak"`

	// StabilityStdDev cuts sources whose min-entropy spread across
	// trials exceeds this many bits.
	StabilityStdDev float64 `toml:"stability_stddev" json:"stability_stddev"`

	// MaxAutocorrelation demotes sources above this absolute lagged
	// correlation.
	MaxAutocorrelation float64 `toml:"max_autocorrelation" json:"max_autocorrelation"`

	// MaxCrossCorrelation cuts sources whose strongest pairwise |r|
	// exceeds this value.
	MaxCrossCorrelation float64 `toml:"max_cross_correlation" json:"max_cross_correlation"`
}

// DefaultThresholds returns the corpus policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EntropyFloor:        0.5,
		EntropyWeak:         1.5,
		StabilityStdDev:     2.0,
		MaxAutocorrelation:  0.5,
		MaxCrossCorrelation: 0.30,
	}
}

// Decide applies the decision table:
//
//  1. min-entropy below the floor            -> Cut
//  2. unstable across trials                 -> Cut
//  3. cross-correlation above the limit      -> Cut (redundant)
//  4. weak entropy OR temporal dependence    -> Demote
//  5. otherwise                              -> Keep
//
// redundantPeer names the highest-correlated peer for the rule-3
// reason; it may be empty.
func (t Thresholds) Decide(fullScaleMinEntropy, stabilityStdDev, maxAutocorr, maxCrossCorr float64, redundantPeer string) Verdict {
	switch {
	case fullScaleMinEntropy < t.EntropyFloor:
		return Verdict{Cut, fmt.Sprintf("min-entropy %.3f below floor %.2f", fullScaleMinEntropy, t.EntropyFloor)}
	case stabilityStdDev > t.StabilityStdDev:
		return Verdict{Cut, fmt.Sprintf("unstable across trials: stddev %.3f > %.2f", stabilityStdDev, t.StabilityStdDev)}
	case maxCrossCorr > t.MaxCrossCorrelation:
		if redundantPeer == "" {
			redundantPeer = "peer"
		}
		return Verdict{Cut, fmt.Sprintf("redundant with %s: |r| %.3f > %.2f", redundantPeer, maxCrossCorr, t.MaxCrossCorrelation)}
	case fullScaleMinEntropy < t.EntropyWeak || maxAutocorr > t.MaxAutocorrelation:
		return Verdict{Demote, "weak: low entropy or high temporal dependence"}
	default:
		return Verdict{Keep, "independent, stable, sufficient entropy"}
	}
}

// Decide applies DefaultThresholds.
func Decide(fullScaleMinEntropy, stabilityStdDev, maxAutocorr, maxCrossCorr float64) Verdict {
	return DefaultThresholds().Decide(fullScaleMinEntropy, stabilityStdDev, maxAutocorr, maxCrossCorr, "")
}
