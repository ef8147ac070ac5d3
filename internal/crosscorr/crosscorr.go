// Package crosscorr detects redundancy between candidate sources.
//
// Two probes that look different can still be driven by the same
// physical phenomenon (a shared clock domain, the same memory
// controller). Pairwise Pearson correlation over the raw timing
// sequences exposes this: a high |r| means the pair measures one
// mechanism twice, and |r| of exactly 1.0 means the two sequences came
// from literally the same data collection, which is an implementation
// bug rather than physics.
package crosscorr

import (
	"math"
	"sync"

	"entrospect/internal/stats"
)

// Corpus thresholds on |r|.
const (
	// RedundantThreshold is the per-pair verdict input.
	RedundantThreshold = 0.30

	// AuditThreshold flags pairs in matrix-wide audits.
	AuditThreshold = 0.15

	// identicalTolerance detects a shared data path: two sources
	// accidentally returning the same collection.
	identicalTolerance = 1e-9
)

// Result is the correlation between one pair of sources.
type Result struct {
	SourceA  string  `json:"source_a"`
	SourceB  string  `json:"source_b"`
	PearsonR float64 `json:"pearson_r"`

	// Flagged is set when |r| exceeds the audit threshold.
	Flagged bool `json:"flagged"`

	// SharedDataPath is set when |r| == 1.0 within tolerance; the
	// redundant member of such a pair is cut unconditionally.
	SharedDataPath bool `json:"shared_data_path"`
}

// Correlate computes the Pearson correlation between two raw timing
// sequences. Either sequence having zero variance yields 0.0.
func Correlate(a, b []uint64) float64 {
	return stats.PearsonUint64(a, b)
}

// Series pairs a source name with its raw collection for matrix audits.
type Series struct {
	Name    string
	Samples []uint64
}

// Matrix computes all pairwise correlations. threshold <= 0 uses
// AuditThreshold. workers bounds parallel execution over the pair
// index; 0 or 1 is sequential.
func Matrix(series []Series, threshold float64, workers int) []Result {
	if threshold <= 0 {
		threshold = AuditThreshold
	}

	type pair struct{ i, j int }
	var pairs []pair
	for i := 0; i < len(series); i++ {
		for j := i + 1; j < len(series); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	results := make([]Result, len(pairs))
	compute := func(k int) {
		p := pairs[k]
		r := Correlate(series[p.i].Samples, series[p.j].Samples)
		results[k] = Result{
			SourceA:        series[p.i].Name,
			SourceB:        series[p.j].Name,
			PearsonR:       r,
			Flagged:        math.Abs(r) > threshold,
			SharedDataPath: math.Abs(math.Abs(r)-1.0) < identicalTolerance,
		}
	}

	if workers > 1 && len(pairs) > 1 {
		var wg sync.WaitGroup
		sem := make(chan struct{}, workers)
		for k := range pairs {
			wg.Add(1)
			go func(k int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				compute(k)
			}(k)
		}
		wg.Wait()
	} else {
		for k := range pairs {
			compute(k)
		}
	}
	return results
}

// MaxAbsFor returns the highest |r| involving the named source and the
// name of the peer it occurs with.
func MaxAbsFor(results []Result, name string) (maxAbs float64, peer string) {
	for _, res := range results {
		var other string
		switch name {
		case res.SourceA:
			other = res.SourceB
		case res.SourceB:
			other = res.SourceA
		default:
			continue
		}
		if abs := math.Abs(res.PearsonR); abs > maxAbs {
			maxAbs = abs
			peer = other
		}
	}
	return maxAbs, peer
}
