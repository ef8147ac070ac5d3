// Package temporal measures how much each timing sample depends on its
// recent predecessors.
//
// High autocorrelation means the effective independent entropy per
// sample is lower than the byte-histogram metrics alone suggest, so the
// maximum absolute lagged correlation feeds directly into the verdict.
package temporal

import (
	"math"

	"entrospect/internal/stats"
)

// DefaultLags is the lag set evaluated for every source.
var DefaultLags = []int{1, 2, 3, 4, 5}

// LagCorrelation is the autocorrelation at a single lag.
type LagCorrelation struct {
	Lag         int     `json:"lag"`
	Correlation float64 `json:"correlation"`
}

// Profile is the autocorrelation profile of a raw timing sequence.
type Profile struct {
	Lags []LagCorrelation `json:"lags"`

	// MaxAbsCorrelation is the headline temporal-dependence figure.
	MaxAbsCorrelation float64 `json:"max_abs_correlation"`
	MaxAbsLag         int     `json:"max_abs_lag"`

	// Threshold is the 95% significance level, 2/sqrt(n).
	Threshold  float64 `json:"threshold"`
	Violations int     `json:"violations"`
}

// Autocorrelation computes the lag-k autocorrelation of the raw
// sequence. See stats.Autocorrelation for the exact formula and the
// zero-variance guarantee.
func Autocorrelation(samples []uint64, lag int) (float64, error) {
	return stats.Autocorrelation(samples, lag)
}

// Analyze computes the autocorrelation profile across the given lags
// (DefaultLags when lags is nil). Lags that do not fit the sequence are
// skipped rather than failing the profile.
func Analyze(samples []uint64, lags []int) Profile {
	if lags == nil {
		lags = DefaultLags
	}

	p := Profile{Lags: make([]LagCorrelation, 0, len(lags))}
	if len(samples) > 0 {
		p.Threshold = 2.0 / math.Sqrt(float64(len(samples)))
	}

	for _, lag := range lags {
		r, err := stats.Autocorrelation(samples, lag)
		if err != nil {
			continue
		}
		p.Lags = append(p.Lags, LagCorrelation{Lag: lag, Correlation: r})

		abs := math.Abs(r)
		if abs > p.MaxAbsCorrelation {
			p.MaxAbsCorrelation = abs
			p.MaxAbsLag = lag
		}
		if abs > p.Threshold {
			p.Violations++
		}
	}
	return p
}
