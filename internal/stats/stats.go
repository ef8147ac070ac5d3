// Package stats provides the shared histogram and statistics primitives
// used by every analysis stage of the evaluation engine.
//
// All functions operate on locally-scoped data returned by value; there
// are no package-level accumulators, so every caller can run concurrently
// without coordination.
package stats

import (
	"errors"
	"math"
)

// NumBuckets is the histogram granularity for byte-valued streams.
const NumBuckets = 256

// NumNibbleBuckets is the granularity for 4-bit nibble streams.
const NumNibbleBuckets = 16

var (
	// ErrLagTooLarge is returned when an autocorrelation lag is not
	// smaller than the sequence length.
	ErrLagTooLarge = errors.New("stats: lag must be smaller than sequence length")
)

// Histogram counts byte value occurrences over a stream.
type Histogram struct {
	Counts [NumBuckets]uint64
	Total  uint64
}

// NewHistogram builds a 256-bucket histogram over the stream.
func NewHistogram(stream []byte) Histogram {
	var h Histogram
	for _, b := range stream {
		h.Counts[b]++
	}
	h.Total = uint64(len(stream))
	return h
}

// MaxCount returns the highest bucket count.
func (h Histogram) MaxCount() uint64 {
	var max uint64
	for _, c := range h.Counts {
		if c > max {
			max = c
		}
	}
	return max
}

// DistinctValues returns the number of buckets with a non-zero count.
func (h Histogram) DistinctValues() int {
	n := 0
	for _, c := range h.Counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// NibbleHistogram counts 4-bit value occurrences. Values above 15 are
// masked to their low nibble.
type NibbleHistogram struct {
	Counts [NumNibbleBuckets]uint64
	Total  uint64
}

// NewNibbleHistogram builds a 16-bucket histogram over the stream.
func NewNibbleHistogram(stream []byte) NibbleHistogram {
	var h NibbleHistogram
	for _, b := range stream {
		h.Counts[b&0x0F]++
	}
	h.Total = uint64(len(stream))
	return h
}

// MaxCount returns the highest bucket count.
func (h NibbleHistogram) MaxCount() uint64 {
	var max uint64
	for _, c := range h.Counts {
		if c > max {
			max = c
		}
	}
	return max
}

// Mean returns the arithmetic mean of the sequence, 0 for empty input.
func Mean(x []uint64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += float64(v)
	}
	return sum / float64(len(x))
}

// StdDev returns the population standard deviation, 0 for fewer than
// two samples.
func StdDev(x []uint64) float64 {
	return math.Sqrt(Variance(x))
}

// Variance returns the population variance of the sequence.
func Variance(x []uint64) float64 {
	if len(x) < 2 {
		return 0
	}
	mean := Mean(x)
	var sum float64
	for _, v := range x {
		d := float64(v) - mean
		sum += d * d
	}
	return sum / float64(len(x))
}

// MeanFloat returns the arithmetic mean of a float sequence.
func MeanFloat(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// StdDevFloat returns the population standard deviation of a float
// sequence.
func StdDevFloat(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	mean := MeanFloat(x)
	var sum float64
	for _, v := range x {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(x)))
}

// pearsonEps is the denominator floor below which two series are treated
// as having zero variance.
const pearsonEps = 1e-12

// Pearson computes the Pearson correlation coefficient between two
// equal-length series. A zero-variance series yields 0.0 rather than
// NaN; a constant signal is a valid, maximally-uninteresting result.
// Inputs of unequal length are truncated to the shorter one.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n == 0 {
		return 0
	}

	var sx, sy, sxx, syy, sxy float64
	for i := 0; i < n; i++ {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		syy += y[i] * y[i]
		sxy += x[i] * y[i]
	}

	fn := float64(n)
	num := fn*sxy - sx*sy
	den := math.Sqrt((fn*sxx - sx*sx) * (fn*syy - sy*sy))
	if den < pearsonEps {
		return 0
	}
	return num / den
}

// PearsonUint64 computes Pearson correlation over raw timing sequences.
func PearsonUint64(x, y []uint64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xf := make([]float64, n)
	yf := make([]float64, n)
	for i := 0; i < n; i++ {
		xf[i] = float64(x[i])
		yf[i] = float64(y[i])
	}
	return Pearson(xf, yf)
}

// Autocorrelation computes the lag-k autocorrelation of the raw timing
// sequence:
//
//	r(lag) = sum((x[i]-mu)(x[i+lag]-mu)) / sum((x[i]-mu)^2)
//
// with mu the mean over the full sequence. A constant sequence returns
// exactly 0.0 for every lag. Lags >= len(x) fail with ErrLagTooLarge.
func Autocorrelation(x []uint64, lag int) (float64, error) {
	n := len(x)
	if lag >= n {
		return 0, ErrLagTooLarge
	}
	if lag < 1 || n < 2 {
		return 0, nil
	}

	mean := Mean(x)

	var denom float64
	for i := 0; i < n; i++ {
		d := float64(x[i]) - mean
		denom += d * d
	}
	if denom < pearsonEps {
		// Zero total variance: constant sequence.
		return 0, nil
	}

	var num float64
	for i := 0; i < n-lag; i++ {
		num += (float64(x[i]) - mean) * (float64(x[i+lag]) - mean)
	}
	return num / denom, nil
}
