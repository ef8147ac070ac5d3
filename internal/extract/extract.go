// Package extract turns raw timing sequences into byte streams.
//
// A 64-bit tick counter rarely carries its jitter in the low byte alone,
// and consecutive samples share a systematic baseline latency. The
// extraction methods here isolate the jitter in different ways:
//
//   - RawLow keeps only the low byte of each sample.
//   - XorFold folds all eight bytes of each sample into one, so entropy
//     living in the higher counter bits is not discarded.
//   - DeltaXorFold folds the signed difference between adjacent samples,
//     removing slow drift common to both.
//   - DeltaOfDelta differences twice, probing whether entropy survives
//     second-order differencing (white vs. colored noise).
//   - PairwiseXor folds the XOR of non-overlapping adjacent sample pairs.
//   - RawLowNibble keeps only the low 4 bits, for 16-bucket analysis.
package extract

import (
	"errors"
	"fmt"
)

// ErrInsufficientSamples is returned when the input sequence is shorter
// than the minimum the chosen method requires.
var ErrInsufficientSamples = errors.New("extract: insufficient samples for method")

// Method selects an extraction strategy.
type Method int

const (
	RawLow Method = iota
	XorFold
	DeltaXorFold
	DeltaOfDelta
	PairwiseXor
	RawLowNibble
)

// Methods lists every extraction method in evaluation order.
var Methods = []Method{RawLow, XorFold, DeltaXorFold, DeltaOfDelta, PairwiseXor}

// String returns the method name used in reports and stored audits.
func (m Method) String() string {
	switch m {
	case RawLow:
		return "raw_low"
	case XorFold:
		return "xor_fold"
	case DeltaXorFold:
		return "delta_xor_fold"
	case DeltaOfDelta:
		return "delta_of_delta"
	case PairwiseXor:
		return "pairwise_xor"
	case RawLowNibble:
		return "raw_low_nibble"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// MinSamples returns the minimum input length the method requires.
func (m Method) MinSamples() int {
	switch m {
	case DeltaXorFold:
		return 2
	case DeltaOfDelta:
		return 3
	case PairwiseXor:
		return 2
	default:
		return 1
	}
}

// foldByte XOR-combines all eight bytes of a 64-bit value into one.
func foldByte(v uint64) byte {
	v ^= v >> 32
	v ^= v >> 16
	v ^= v >> 8
	return byte(v)
}

// Extract derives a byte stream from the sample sequence using the given
// method. Output length is len(samples) for RawLow/XorFold/RawLowNibble,
// len-1 for DeltaXorFold, len-2 for DeltaOfDelta, and floor(len/2) for
// PairwiseXor (non-overlapping pairs).
func Extract(samples []uint64, m Method) ([]byte, error) {
	if len(samples) < m.MinSamples() {
		return nil, fmt.Errorf("%w: %s needs %d samples, got %d",
			ErrInsufficientSamples, m, m.MinSamples(), len(samples))
	}

	switch m {
	case RawLow:
		out := make([]byte, len(samples))
		for i, v := range samples {
			out[i] = byte(v)
		}
		return out, nil

	case RawLowNibble:
		out := make([]byte, len(samples))
		for i, v := range samples {
			out[i] = byte(v) & 0x0F
		}
		return out, nil

	case XorFold:
		out := make([]byte, len(samples))
		for i, v := range samples {
			out[i] = foldByte(v)
		}
		return out, nil

	case DeltaXorFold:
		out := make([]byte, len(samples)-1)
		for i := 0; i+1 < len(samples); i++ {
			// Two's-complement representation of the signed delta.
			d := int64(samples[i+1]) - int64(samples[i])
			out[i] = foldByte(uint64(d))
		}
		return out, nil

	case DeltaOfDelta:
		deltas := make([]uint64, len(samples)-1)
		for i := 0; i+1 < len(samples); i++ {
			deltas[i] = uint64(int64(samples[i+1]) - int64(samples[i]))
		}
		out := make([]byte, len(deltas)-1)
		for i := 0; i+1 < len(deltas); i++ {
			d := int64(deltas[i+1]) - int64(deltas[i])
			out[i] = foldByte(uint64(d))
		}
		return out, nil

	case PairwiseXor:
		out := make([]byte, len(samples)/2)
		for i := 0; i < len(out); i++ {
			out[i] = foldByte(samples[2*i] ^ samples[2*i+1])
		}
		return out, nil

	default:
		return nil, fmt.Errorf("extract: unknown method %d", int(m))
	}
}
