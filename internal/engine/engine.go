// Package engine orchestrates a full entropy-source evaluation: collect
// samples, extract byte streams, score them, measure temporal
// dependence and trial-to-trial stability, compare against peer
// sources, and produce the final verdict.
//
// Every entity the engine produces is created fresh per evaluation run
// and never mutated afterwards; nothing persists between runs except
// what the caller chooses to store.
package engine

import (
	"context"
	"time"

	"entrospect/internal/config"
	"entrospect/internal/crosscorr"
	"entrospect/internal/entropy"
	"entrospect/internal/extract"
	"entrospect/internal/logging"
	"entrospect/internal/metrics"
	"entrospect/internal/source"
	"entrospect/internal/stability"
	"entrospect/internal/temporal"
	"entrospect/internal/verdict"
)

// Options configures an evaluation run.
type Options struct {
	// FullScaleSamples is the collection size for the headline
	// entropy measurement.
	FullScaleSamples int

	// Stability configures the trial assessment.
	Stability stability.Options

	// Lags is the autocorrelation lag set (temporal.DefaultLags
	// when nil).
	Lags []int

	// CrossCorrSamples is the per-source collection size for the
	// correlation matrix.
	CrossCorrSamples int

	// AuditThreshold flags pairs in matrix-wide audits.
	AuditThreshold float64

	// Workers bounds parallel execution of trials and pairs.
	Workers int

	// Thresholds is the verdict policy.
	Thresholds verdict.Thresholds

	Logger  *logging.Logger
	Metrics *metrics.EngineMetrics
}

// DefaultOptions returns the corpus conventions.
func DefaultOptions() Options {
	return Options{
		FullScaleSamples: 100000,
		Stability:        stability.DefaultOptions(),
		CrossCorrSamples: 5000,
		AuditThreshold:   crosscorr.AuditThreshold,
		Workers:          1,
		Thresholds:       verdict.DefaultThresholds(),
	}
}

// FromConfig builds Options from a loaded configuration.
func FromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.FullScaleSamples = cfg.Engine.FullScaleSamples
	opts.Stability.TrialCount = cfg.Engine.TrialCount
	opts.Stability.SamplesPerTrial = cfg.Engine.SamplesPerTrial
	opts.Stability.Workers = cfg.Engine.Workers
	opts.Lags = cfg.Engine.Lags
	opts.CrossCorrSamples = cfg.Engine.CrossCorrSamples
	opts.AuditThreshold = cfg.Engine.AuditThreshold
	opts.Workers = cfg.Engine.Workers
	opts.Thresholds = cfg.Thresholds
	return opts
}

func (o Options) logger() *logging.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.Default()
}

// SourceReport is the engine's structured output for one source,
// consumed by external reporting code.
type SourceReport struct {
	SourceName  string    `json:"source_name"`
	CollectedAt time.Time `json:"collected_at"`

	// Extraction maps method name to the entropy report of the
	// stream that method produced from the full-scale collection.
	Extraction map[string]entropy.Report `json:"extraction"`

	// ExtractionErrors records methods that could not run, without
	// aborting the others.
	ExtractionErrors map[string]string `json:"extraction_errors,omitempty"`

	// FullScale is the headline report (XorFold over the full
	// collection); its min-entropy drives the verdict.
	FullScale entropy.Report `json:"full_scale"`

	// Nibble-granularity variant, capped at 4 bits.
	NibbleShannon    float64 `json:"nibble_shannon"`
	NibbleMinEntropy float64 `json:"nibble_min_entropy"`

	Trials   stability.TrialSet `json:"trials"`
	Autocorr temporal.Profile   `json:"autocorr"`

	// Correlations lists this source's pairs from the audit matrix;
	// empty for single-source evaluations.
	Correlations        []crosscorr.Result `json:"correlations,omitempty"`
	MaxCrossCorrelation float64            `json:"max_cross_correlation"`
	RedundantPeer       string             `json:"redundant_peer,omitempty"`

	Verdict verdict.Verdict `json:"verdict"`
}

// AuditResult is the outcome of evaluating a set of candidate sources
// together.
type AuditResult struct {
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Reports    []SourceReport     `json:"reports"`
	Matrix     []crosscorr.Result `json:"matrix"`
}

// Evaluate runs the full single-source pipeline. Collection failures
// are returned unchanged (wrapped as the source's CollectionError);
// failures of individual extraction methods are recorded in the report
// instead of aborting it.
func Evaluate(ctx context.Context, src source.Source, opts Options) (SourceReport, error) {
	log := opts.logger().WithComponent("engine")
	start := time.Now()

	rep := SourceReport{
		SourceName:       src.Name(),
		CollectedAt:      start,
		Extraction:       make(map[string]entropy.Report, len(extract.Methods)),
		ExtractionErrors: make(map[string]string),
	}

	samples, err := src.Collect(ctx, opts.FullScaleSamples)
	if err != nil {
		if opts.Metrics != nil {
			opts.Metrics.CollectionFailuresTotal.Inc()
		}
		return SourceReport{}, err
	}
	if opts.Metrics != nil {
		opts.Metrics.SamplesCollectedTotal.Add(uint64(len(samples)))
	}
	log.Debug("collected full-scale samples", "source", src.Name(), "count", len(samples))

	for _, m := range extract.Methods {
		stream, err := extract.Extract(samples, m)
		if err != nil {
			rep.ExtractionErrors[m.String()] = err.Error()
			continue
		}
		score, err := entropy.Score(stream, samples)
		if err != nil {
			rep.ExtractionErrors[m.String()] = err.Error()
			continue
		}
		rep.Extraction[m.String()] = score
		if m == extract.XorFold {
			rep.FullScale = score
		}
	}
	if len(rep.ExtractionErrors) == 0 {
		rep.ExtractionErrors = nil
	}

	if nibbles, err := extract.Extract(samples, extract.RawLowNibble); err == nil {
		if sh, me, err := entropy.ScoreNibbles(nibbles); err == nil {
			rep.NibbleShannon = sh
			rep.NibbleMinEntropy = me
		}
	}

	rep.Autocorr = temporal.Analyze(samples, opts.Lags)
	rep.Trials = stability.Assess(ctx, src, opts.Stability)

	rep.Verdict = opts.Thresholds.Decide(
		rep.FullScale.MinEntropyBits,
		rep.Trials.MinEntropyStdDev,
		rep.Autocorr.MaxAbsCorrelation,
		rep.MaxCrossCorrelation,
		rep.RedundantPeer,
	)

	if opts.Metrics != nil {
		opts.Metrics.EvaluationsTotal.Inc()
		opts.Metrics.RecordVerdict(rep.Verdict.Label.String())
		opts.Metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}
	log.Info("source evaluated",
		"source", src.Name(),
		"min_entropy", rep.FullScale.MinEntropyBits,
		"stability_stddev", rep.Trials.MinEntropyStdDev,
		"max_autocorr", rep.Autocorr.MaxAbsCorrelation,
		"verdict", rep.Verdict.Label.String(),
	)
	return rep, nil
}

// AuditAll evaluates every candidate source, builds the correlation
// matrix over fresh collections, and re-issues verdicts with redundancy
// taken into account. A source that fails collection is skipped and
// logged; it never aborts the audit.
func AuditAll(ctx context.Context, sources []source.Source, opts Options) AuditResult {
	log := opts.logger().WithComponent("engine")
	result := AuditResult{StartedAt: time.Now()}

	var series []crosscorr.Series
	bySource := make(map[string]int)
	for _, src := range sources {
		rep, err := Evaluate(ctx, src, opts)
		if err != nil {
			log.Warn("source skipped", "source", src.Name(), "error", err)
			continue
		}

		samples, err := src.Collect(ctx, opts.CrossCorrSamples)
		if err != nil {
			log.Warn("cross-correlation collection failed", "source", src.Name(), "error", err)
			if opts.Metrics != nil {
				opts.Metrics.CollectionFailuresTotal.Inc()
			}
		} else {
			series = append(series, crosscorr.Series{Name: src.Name(), Samples: samples})
		}

		bySource[rep.SourceName] = len(result.Reports)
		result.Reports = append(result.Reports, rep)
	}

	result.Matrix = crosscorr.Matrix(series, opts.AuditThreshold, opts.Workers)

	// Redundancy is attributed to the lower-quality member of each
	// flagged pair, so a strong source is not cut for being imitated
	// by a weak one. Ties break on name order for reproducibility.
	for i := range result.Reports {
		rep := &result.Reports[i]
		rep.Correlations = pairsFor(result.Matrix, rep.SourceName)
		rep.MaxCrossCorrelation, rep.RedundantPeer = attributedMax(result.Matrix, result.Reports, bySource, rep.SourceName)
		rep.Verdict = opts.Thresholds.Decide(
			rep.FullScale.MinEntropyBits,
			rep.Trials.MinEntropyStdDev,
			rep.Autocorr.MaxAbsCorrelation,
			rep.MaxCrossCorrelation,
			rep.RedundantPeer,
		)
	}

	if opts.Metrics != nil {
		kept := 0
		for _, rep := range result.Reports {
			if rep.Verdict.Label == verdict.Keep {
				kept++
			}
		}
		opts.Metrics.LastAuditSources.Set(float64(len(result.Reports)))
		opts.Metrics.LastAuditKept.Set(float64(kept))
	}

	result.FinishedAt = time.Now()
	return result
}

func pairsFor(matrix []crosscorr.Result, name string) []crosscorr.Result {
	var out []crosscorr.Result
	for _, res := range matrix {
		if res.SourceA == name || res.SourceB == name {
			out = append(out, res)
		}
	}
	return out
}

// attributedMax returns the highest |r| among pairs where the named
// source is the lower-quality member, and the peer it occurs with.
// This covers shared-data-path pairs (|r| == 1) too: the redundant
// member is the one that gets cut.
func attributedMax(matrix []crosscorr.Result, reports []SourceReport, bySource map[string]int, name string) (float64, string) {
	quality := func(n string) float64 {
		if idx, ok := bySource[n]; ok {
			return reports[idx].FullScale.MinEntropyBits
		}
		return 0
	}

	var maxAbs float64
	var peer string
	for _, res := range matrix {
		var other string
		switch name {
		case res.SourceA:
			other = res.SourceB
		case res.SourceB:
			other = res.SourceA
		default:
			continue
		}

		lower := quality(name) < quality(other) ||
			(quality(name) == quality(other) && name > other)
		if !lower {
			continue
		}

		abs := res.PearsonR
		if abs < 0 {
			abs = -abs
		}
		if abs > maxAbs {
			maxAbs = abs
			peer = other
		}
	}
	return maxAbs, peer
}
