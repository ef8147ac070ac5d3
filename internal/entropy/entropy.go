// Package entropy scores byte streams for statistical randomness.
//
// The headline figures are Shannon entropy (average information per
// byte) and min-entropy (NIST SP 800-90B worst case: an adversary who
// always guesses the most frequent byte). For any distribution the
// min-entropy is a lower bound on the Shannon entropy, and both are
// capped at 8 bits for byte data.
package entropy

import (
	"bytes"
	"compress/zlib"
	"errors"
	"math"

	"entrospect/internal/stats"
)

// ErrEmptyStream is returned when asked to score a zero-length stream.
var ErrEmptyStream = errors.New("entropy: empty stream")

// chiSquaredUniformCutoff is the p=0.05 critical value for 255 degrees
// of freedom.
const chiSquaredUniformCutoff = 293.0

// Report carries the randomness metrics for a single byte stream,
// together with the raw-sequence diagnostics that travel with it into
// the stability and verdict stages.
type Report struct {
	ShannonBitsPerByte float64 `json:"shannon_bits_per_byte"`
	MinEntropyBits     float64 `json:"min_entropy_bits"`
	SampleCount        int     `json:"sample_count"`

	// Mean and StdDev describe the original pre-extraction timing
	// sequence, not the byte stream. Diagnostic only.
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`

	// Supplemental characterisation.
	ChiSquared         float64 `json:"chi_squared"`
	Uniform            bool    `json:"uniform"`
	CompressionRatio   float64 `json:"compression_ratio"`
	PermutationEntropy float64 `json:"permutation_entropy"`
	DistinctValues     int     `json:"distinct_values"`

	QualityScore float64 `json:"quality_score"`
	Grade        string  `json:"grade,omitempty"`
}

// Score computes the full report for a byte stream. rawSamples is the
// pre-extraction timing sequence the stream was derived from; it feeds
// the diagnostic mean/stddev fields and may be nil.
func Score(stream []byte, rawSamples []uint64) (Report, error) {
	if len(stream) == 0 {
		return Report{}, ErrEmptyStream
	}

	h := stats.NewHistogram(stream)
	n := float64(h.Total)

	var shannon float64
	for _, c := range h.Counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		shannon -= p * math.Log2(p)
	}

	// If a single value fills the stream, maxCount == n and this is
	// exactly 0.
	minEnt := -math.Log2(float64(h.MaxCount()) / n)

	rep := Report{
		ShannonBitsPerByte: shannon,
		MinEntropyBits:     minEnt,
		SampleCount:        len(stream),
		Mean:               stats.Mean(rawSamples),
		StdDev:             stats.StdDev(rawSamples),
		DistinctValues:     h.DistinctValues(),
		CompressionRatio:   compressionRatio(stream),
		PermutationEntropy: permutationEntropy(stream, 3),
	}
	rep.ChiSquared = chiSquared(h)
	rep.Uniform = rep.ChiSquared < chiSquaredUniformCutoff
	rep.QualityScore, rep.Grade = qualityScore(rep)
	return rep, nil
}

// ScoreNibbles computes Shannon and min-entropy against a 16-bucket
// histogram; both are capped at 4 bits. Used for the nibble-granularity
// extraction variant.
func ScoreNibbles(stream []byte) (shannon, minEntropy float64, err error) {
	if len(stream) == 0 {
		return 0, 0, ErrEmptyStream
	}
	h := stats.NewNibbleHistogram(stream)
	n := float64(h.Total)
	for _, c := range h.Counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		shannon -= p * math.Log2(p)
	}
	minEntropy = -math.Log2(float64(h.MaxCount()) / n)
	return shannon, minEntropy, nil
}

// chiSquared computes the uniformity statistic over the byte histogram.
func chiSquared(h stats.Histogram) float64 {
	expected := float64(h.Total) / float64(stats.NumBuckets)
	if expected == 0 {
		return 0
	}
	var chi2 float64
	for _, c := range h.Counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	return chi2
}

// compressionRatio compresses the stream with zlib level 9 and returns
// compressed/original size. Values near 1.0 mean incompressible. Streams
// shorter than 10 bytes return 0.
func compressionRatio(stream []byte) float64 {
	if len(stream) < 10 {
		return 0
	}
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return 0
	}
	if _, err := w.Write(stream); err != nil {
		w.Close()
		return 0
	}
	if err := w.Close(); err != nil {
		return 0
	}
	return float64(buf.Len()) / float64(len(stream))
}

// permutationEntropy computes normalised permutation entropy of the
// given order. 1.0 means maximally complex ordering structure; streams
// shorter than order+1 return 0.
func permutationEntropy(stream []byte, order int) float64 {
	n := len(stream)
	if n < order+1 {
		return 0
	}

	counts := make(map[uint32]int)
	total := 0
	for i := 0; i+order <= n; i++ {
		w := stream[i : i+order]

		// Ordinal pattern: rank positions by (value, position).
		var perm [8]int
		for k := 0; k < order; k++ {
			perm[k] = k
		}
		for a := 1; a < order; a++ {
			for b := a; b > 0; b-- {
				pa, pb := perm[b], perm[b-1]
				if w[pa] < w[pb] || (w[pa] == w[pb] && pa < pb) {
					perm[b], perm[b-1] = perm[b-1], perm[b]
				} else {
					break
				}
			}
		}

		var key uint32
		for k := 0; k < order; k++ {
			key = key*uint32(order) + uint32(perm[k])
		}
		counts[key]++
		total++
	}

	var pe float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		pe -= p * math.Log2(p)
	}

	fact := 1.0
	for k := 2; k <= order; k++ {
		fact *= float64(k)
	}
	return pe / math.Log2(fact)
}

// qualityScore combines the metrics into a 0-100 score and letter grade:
// entropy efficiency 40 points, incompressibility 20, uniformity 20,
// ordering complexity 20.
func qualityScore(r Report) (float64, string) {
	cr := r.CompressionRatio
	if cr > 1.0 {
		cr = 1.0
	}
	score := (r.ShannonBitsPerByte/8.0)*40 + cr*20 + r.PermutationEntropy*20
	if r.Uniform {
		score += 20
	}

	switch {
	case score >= 80:
		return score, "A"
	case score >= 60:
		return score, "B"
	case score >= 40:
		return score, "C"
	case score >= 20:
		return score, "D"
	default:
		return score, "F"
	}
}
