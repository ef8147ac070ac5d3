package entropy

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func randomStream(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(r.Intn(256))
	}
	return out
}

// =============================================================================
// Score tests
// =============================================================================

func TestScoreEmptyStream(t *testing.T) {
	if _, err := Score(nil, nil); !errors.Is(err, ErrEmptyStream) {
		t.Errorf("expected ErrEmptyStream, got %v", err)
	}
}

func TestScoreConstantStream(t *testing.T) {
	rep, err := Score(bytes.Repeat([]byte{0x41}, 1000), nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.ShannonBitsPerByte != 0 {
		t.Errorf("constant stream: expected shannon 0, got %v", rep.ShannonBitsPerByte)
	}
	if rep.MinEntropyBits != 0 {
		t.Errorf("constant stream: expected min-entropy 0, got %v", rep.MinEntropyBits)
	}
	if rep.DistinctValues != 1 {
		t.Errorf("expected 1 distinct value, got %d", rep.DistinctValues)
	}
	if rep.Uniform {
		t.Error("constant stream should not pass the uniformity test")
	}
	if rep.PermutationEntropy != 0 {
		t.Errorf("constant stream has one ordinal pattern, expected PE 0, got %v", rep.PermutationEntropy)
	}
	if rep.Grade != "F" {
		t.Errorf("expected grade F, got %q", rep.Grade)
	}
}

func TestScoreUniformCycle(t *testing.T) {
	// Every byte value exactly 100 times: entropies are exactly 8 bits
	// and the chi-squared statistic is exactly 0.
	stream := make([]byte, 256*100)
	for i := range stream {
		stream[i] = byte(i)
	}
	rep, err := Score(stream, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.ShannonBitsPerByte != 8.0 {
		t.Errorf("expected shannon exactly 8.0, got %v", rep.ShannonBitsPerByte)
	}
	if rep.MinEntropyBits != 8.0 {
		t.Errorf("expected min-entropy exactly 8.0, got %v", rep.MinEntropyBits)
	}
	if rep.ChiSquared != 0 {
		t.Errorf("expected chi-squared 0, got %v", rep.ChiSquared)
	}
	if !rep.Uniform {
		t.Error("perfectly flat histogram should pass the uniformity test")
	}
	if rep.DistinctValues != 256 {
		t.Errorf("expected 256 distinct values, got %d", rep.DistinctValues)
	}
}

func TestScoreEntropyBounds(t *testing.T) {
	streams := [][]byte{
		randomStream(1, 10000),
		randomStream(2, 50000),
		bytes.Repeat([]byte{1, 2}, 500),
		bytes.Repeat([]byte{0, 0, 0, 1}, 250),
	}
	for i, stream := range streams {
		rep, err := Score(stream, nil)
		if err != nil {
			t.Fatalf("stream %d: %v", i, err)
		}
		if rep.MinEntropyBits < 0 || rep.MinEntropyBits > rep.ShannonBitsPerByte || rep.ShannonBitsPerByte > 8.0 {
			t.Errorf("stream %d: bounds violated: min=%v shannon=%v",
				i, rep.MinEntropyBits, rep.ShannonBitsPerByte)
		}
	}
}

func TestScoreRandomStreamGradesHigh(t *testing.T) {
	rep, err := Score(randomStream(42, 65536), nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.ShannonBitsPerByte < 7.9 {
		t.Errorf("random stream should be near 8 bits, got %v", rep.ShannonBitsPerByte)
	}
	if !rep.Uniform {
		t.Errorf("random stream failed uniformity: chi2=%v", rep.ChiSquared)
	}
	if rep.CompressionRatio < 0.95 {
		t.Errorf("random stream should be incompressible, ratio %v", rep.CompressionRatio)
	}
	if rep.Grade != "A" {
		t.Errorf("expected grade A, got %q (score %v)", rep.Grade, rep.QualityScore)
	}
}

func TestScoreRawSampleDiagnostics(t *testing.T) {
	rep, err := Score([]byte{1, 2, 3, 4}, []uint64{2, 4, 4, 4, 5, 5, 7, 9})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Mean != 5.0 {
		t.Errorf("expected raw mean 5.0, got %v", rep.Mean)
	}
	if rep.StdDev != 2.0 {
		t.Errorf("expected raw stddev 2.0, got %v", rep.StdDev)
	}
}

func TestScoreShortStreamSkipsCompression(t *testing.T) {
	rep, err := Score([]byte{1, 2, 3, 4, 5}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.CompressionRatio != 0 {
		t.Errorf("streams under 10 bytes should report ratio 0, got %v", rep.CompressionRatio)
	}
}

func TestCompressibleStreamRatio(t *testing.T) {
	rep, err := Score(bytes.Repeat([]byte("abcd"), 4096), nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.CompressionRatio <= 0 || rep.CompressionRatio >= 0.1 {
		t.Errorf("repetitive stream should compress heavily, ratio %v", rep.CompressionRatio)
	}
}

// =============================================================================
// Nibble scoring
// =============================================================================

func TestScoreNibblesUniform(t *testing.T) {
	stream := make([]byte, 16*100)
	for i := range stream {
		stream[i] = byte(i % 16)
	}
	shannon, minEnt, err := ScoreNibbles(stream)
	if err != nil {
		t.Fatal(err)
	}
	if shannon != 4.0 || minEnt != 4.0 {
		t.Errorf("expected exactly 4.0/4.0 bits, got %v/%v", shannon, minEnt)
	}
}

func TestScoreNibblesEmpty(t *testing.T) {
	if _, _, err := ScoreNibbles(nil); !errors.Is(err, ErrEmptyStream) {
		t.Errorf("expected ErrEmptyStream, got %v", err)
	}
}

func TestScoreNibblesCap(t *testing.T) {
	shannon, minEnt, err := ScoreNibbles(randomStream(9, 10000))
	if err != nil {
		t.Fatal(err)
	}
	if shannon > 4.0 || minEnt > 4.0 {
		t.Errorf("nibble entropies must cap at 4 bits, got %v/%v", shannon, minEnt)
	}
}

// =============================================================================
// Permutation entropy
// =============================================================================

func TestPermutationEntropyMonotonic(t *testing.T) {
	stream := make([]byte, 100)
	for i := range stream {
		stream[i] = byte(i)
	}
	// A strictly increasing stream has a single ordinal pattern.
	if pe := permutationEntropy(stream, 3); pe != 0 {
		t.Errorf("monotonic stream should have PE 0, got %v", pe)
	}
}

func TestPermutationEntropyRandom(t *testing.T) {
	pe := permutationEntropy(randomStream(3, 50000), 3)
	if pe < 0.95 || pe > 1.0 {
		t.Errorf("random stream should have PE near 1.0, got %v", pe)
	}
}

func TestPermutationEntropyTooShort(t *testing.T) {
	if pe := permutationEntropy([]byte{1, 2, 3}, 3); pe != 0 {
		t.Errorf("stream shorter than order+1 should return 0, got %v", pe)
	}
}

// =============================================================================
// Quality grading
// =============================================================================

func TestQualityGradeBoundaries(t *testing.T) {
	tests := []struct {
		rep  Report
		want string
	}{
		{Report{ShannonBitsPerByte: 8, CompressionRatio: 1, PermutationEntropy: 1, Uniform: true}, "A"},
		{Report{ShannonBitsPerByte: 8, CompressionRatio: 1, PermutationEntropy: 0.5}, "B"},
		{Report{ShannonBitsPerByte: 8, CompressionRatio: 0.1}, "C"},
		{Report{ShannonBitsPerByte: 4}, "D"},
		{Report{}, "F"},
	}
	for i, tt := range tests {
		if _, grade := qualityScore(tt.rep); grade != tt.want {
			t.Errorf("case %d: expected grade %q, got %q", i, tt.want, grade)
		}
	}
}

func TestQualityScoreCapsCompressionRatio(t *testing.T) {
	// zlib overhead can push the ratio above 1 on incompressible data;
	// the score must not reward that.
	a, _ := qualityScore(Report{CompressionRatio: 1.0})
	b, _ := qualityScore(Report{CompressionRatio: 1.7})
	if a != b {
		t.Errorf("ratio above 1.0 should score like 1.0: %v vs %v", a, b)
	}
}
