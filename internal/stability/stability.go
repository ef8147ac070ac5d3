// Package stability measures whether a source's entropy quality is a
// robust physical property or an artifact of transient system state.
//
// The assessor repeats collect → extract → score over several
// independent trials and reports the spread of min-entropy across them.
// A source whose quality depends on thermal state, scheduler load, or
// cache contents shows a high trial-to-trial standard deviation even
// when any single trial looks healthy.
package stability

import (
	"context"
	"sync"

	"entrospect/internal/entropy"
	"entrospect/internal/extract"
	"entrospect/internal/source"
	"entrospect/internal/stats"
)

// Corpus-wide stability cutoffs on the min-entropy standard deviation
// across trials.
const (
	UnstableStdDev = 2.0
	MarginalStdDev = 1.0
)

// MinViableSamples is the per-trial sample count below which a trial is
// considered a partial collection failure. Such trials are still
// recorded with whatever they returned, so instability from failed
// collection stays visible in the aggregate.
const MinViableSamples = 100

// Options configures an assessment.
type Options struct {
	// TrialCount and SamplesPerTrial default to 10 x 10000.
	TrialCount      int
	SamplesPerTrial int

	// Method is the extraction used for every trial (XorFold unless
	// the source dictates otherwise).
	Method extract.Method

	// Workers bounds parallel trial execution. 0 or 1 runs trials
	// sequentially, which also preserves whatever state each trial
	// leaves behind in the probed hardware path for the next one.
	Workers int
}

// DefaultOptions returns the convention used across the corpus.
func DefaultOptions() Options {
	return Options{
		TrialCount:      10,
		SamplesPerTrial: 10000,
		Method:          extract.XorFold,
	}
}

// Trial is the outcome of one independent collect-and-score cycle.
type Trial struct {
	Report entropy.Report `json:"report"`

	// SampleCount is what the source actually returned; it may be
	// below SamplesPerTrial on partial failure.
	SampleCount int `json:"sample_count"`

	// Err records a collection or scoring failure. A failed trial
	// contributes a zero-entropy report rather than being discarded.
	Err error `json:"-"`

	ErrString string `json:"error,omitempty"`
}

// TrialSet aggregates min-entropy across all trials.
type TrialSet struct {
	Trials []Trial `json:"trials"`

	MinEntropyMean   float64 `json:"min_entropy_mean"`
	MinEntropyStdDev float64 `json:"min_entropy_stddev"`
	MinEntropyMin    float64 `json:"min_entropy_min"`
	MinEntropyMax    float64 `json:"min_entropy_max"`

	// FailedTrials counts trials that errored or returned fewer than
	// MinViableSamples samples.
	FailedTrials int `json:"failed_trials"`
}

// Unstable reports whether the trial spread exceeds the corpus cutoff.
func (ts TrialSet) Unstable() bool { return ts.MinEntropyStdDev > UnstableStdDev }

// Marginal reports whether the trial spread is above the warning level.
func (ts TrialSet) Marginal() bool { return ts.MinEntropyStdDev > MarginalStdDev }

// Assess runs the trials and aggregates min-entropy across them. Errors
// in individual trials never abort the remaining trials.
func Assess(ctx context.Context, src source.Source, opts Options) TrialSet {
	if opts.TrialCount <= 0 {
		opts.TrialCount = 10
	}
	if opts.SamplesPerTrial <= 0 {
		opts.SamplesPerTrial = 10000
	}

	trials := make([]Trial, opts.TrialCount)

	if opts.Workers > 1 {
		var wg sync.WaitGroup
		sem := make(chan struct{}, opts.Workers)
		for i := range trials {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				trials[i] = runTrial(ctx, src, opts)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range trials {
			trials[i] = runTrial(ctx, src, opts)
		}
	}

	return aggregate(trials)
}

func runTrial(ctx context.Context, src source.Source, opts Options) Trial {
	samples, err := src.Collect(ctx, opts.SamplesPerTrial)
	if err != nil {
		return Trial{Err: err, ErrString: err.Error()}
	}

	trial := Trial{SampleCount: len(samples)}
	stream, err := extract.Extract(samples, opts.Method)
	if err != nil {
		trial.Err = err
		trial.ErrString = err.Error()
		return trial
	}

	rep, err := entropy.Score(stream, samples)
	if err != nil {
		trial.Err = err
		trial.ErrString = err.Error()
		return trial
	}
	trial.Report = rep
	return trial
}

func aggregate(trials []Trial) TrialSet {
	ts := TrialSet{Trials: trials}

	minEnts := make([]float64, len(trials))
	for i, tr := range trials {
		minEnts[i] = tr.Report.MinEntropyBits
		if tr.Err != nil || tr.SampleCount < MinViableSamples {
			ts.FailedTrials++
		}
	}

	if len(minEnts) == 0 {
		return ts
	}

	ts.MinEntropyMean = stats.MeanFloat(minEnts)
	ts.MinEntropyStdDev = stats.StdDevFloat(minEnts)
	ts.MinEntropyMin = minEnts[0]
	ts.MinEntropyMax = minEnts[0]
	for _, v := range minEnts[1:] {
		if v < ts.MinEntropyMin {
			ts.MinEntropyMin = v
		}
		if v > ts.MinEntropyMax {
			ts.MinEntropyMax = v
		}
	}
	return ts
}
