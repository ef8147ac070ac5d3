package stats

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// =============================================================================
// Histogram tests
// =============================================================================

func TestHistogramCounts(t *testing.T) {
	h := NewHistogram([]byte{0, 0, 1, 255, 255, 255})
	if h.Total != 6 {
		t.Errorf("expected total 6, got %d", h.Total)
	}
	if h.Counts[0] != 2 || h.Counts[1] != 1 || h.Counts[255] != 3 {
		t.Errorf("unexpected counts: %d %d %d", h.Counts[0], h.Counts[1], h.Counts[255])
	}
	if h.MaxCount() != 3 {
		t.Errorf("expected max count 3, got %d", h.MaxCount())
	}
	if h.DistinctValues() != 3 {
		t.Errorf("expected 3 distinct values, got %d", h.DistinctValues())
	}
}

func TestHistogramEmpty(t *testing.T) {
	h := NewHistogram(nil)
	if h.Total != 0 || h.MaxCount() != 0 || h.DistinctValues() != 0 {
		t.Errorf("empty histogram should be all zero: %+v", h)
	}
}

func TestNibbleHistogramMasksHighBits(t *testing.T) {
	h := NewNibbleHistogram([]byte{0x1F, 0x2F, 0xFF})
	if h.Counts[0x0F] != 3 {
		t.Errorf("expected all three in bucket 15, got %d", h.Counts[0x0F])
	}
	if h.Total != 3 {
		t.Errorf("expected total 3, got %d", h.Total)
	}
}

// =============================================================================
// Mean / StdDev tests
// =============================================================================

func TestMeanAndStdDev(t *testing.T) {
	x := []uint64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := Mean(x); got != 5.0 {
		t.Errorf("expected mean 5.0, got %v", got)
	}
	if got := StdDev(x); math.Abs(got-2.0) > 1e-12 {
		t.Errorf("expected stddev 2.0, got %v", got)
	}
}

func TestMeanEmpty(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
	if got := StdDev([]uint64{7}); got != 0 {
		t.Errorf("expected 0 for single sample, got %v", got)
	}
}

func TestStdDevFloat(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := StdDevFloat(x); math.Abs(got-2.0) > 1e-12 {
		t.Errorf("expected stddev 2.0, got %v", got)
	}
	if got := MeanFloat(x); got != 5.0 {
		t.Errorf("expected mean 5.0, got %v", got)
	}
}

// =============================================================================
// Pearson correlation tests
// =============================================================================

func TestPearsonSelf(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	x := make([]float64, 1000)
	for i := range x {
		x[i] = r.Float64() * 100
	}
	if got := Pearson(x, x); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("self correlation should be 1.0, got %v", got)
	}
}

func TestPearsonNegated(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	x := make([]float64, 1000)
	y := make([]float64, 1000)
	for i := range x {
		x[i] = r.Float64() * 100
		y[i] = -x[i] + 42.5
	}
	if got := Pearson(x, y); math.Abs(got+1.0) > 1e-9 {
		t.Errorf("negated series should correlate at -1.0, got %v", got)
	}
}

func TestPearsonConstantSeries(t *testing.T) {
	x := []float64{5, 5, 5, 5, 5}
	y := []float64{1, 2, 3, 4, 5}
	if got := Pearson(x, y); got != 0 {
		t.Errorf("zero-variance series should yield 0, got %v", got)
	}
}

func TestPearsonUnequalLengths(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 99, 99}
	y := []float64{1, 2, 3, 4, 5}
	if got := Pearson(x, y); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("should truncate to shorter series, got %v", got)
	}
}

func TestPearsonIndependentSequences(t *testing.T) {
	// Two independent uniform sequences should show negligible
	// correlation for any seed.
	for _, seed := range []int64{1, 2, 3} {
		ra := rand.New(rand.NewSource(seed))
		rb := rand.New(rand.NewSource(seed + 1000))
		a := make([]uint64, 100000)
		b := make([]uint64, 100000)
		for i := range a {
			a[i] = uint64(ra.Intn(1000))
			b[i] = uint64(rb.Intn(1000))
		}
		if got := PearsonUint64(a, b); math.Abs(got) >= 0.05 {
			t.Errorf("seed %d: independent sequences correlate at %v", seed, got)
		}
	}
}

// =============================================================================
// Autocorrelation tests
// =============================================================================

func TestAutocorrelationConstantSequence(t *testing.T) {
	x := []uint64{42, 42, 42, 42, 42, 42}
	for lag := 1; lag < len(x); lag++ {
		got, err := Autocorrelation(x, lag)
		if err != nil {
			t.Fatalf("lag %d: %v", lag, err)
		}
		if got != 0.0 {
			t.Errorf("lag %d: constant sequence should yield exactly 0.0, got %v", lag, got)
		}
	}
}

func TestAutocorrelationLagTooLarge(t *testing.T) {
	x := []uint64{1, 2, 3}
	if _, err := Autocorrelation(x, 3); !errors.Is(err, ErrLagTooLarge) {
		t.Errorf("lag == len should fail with ErrLagTooLarge, got %v", err)
	}
	if _, err := Autocorrelation(x, 10); !errors.Is(err, ErrLagTooLarge) {
		t.Errorf("lag > len should fail with ErrLagTooLarge, got %v", err)
	}
}

func TestAutocorrelationRamp(t *testing.T) {
	x := make([]uint64, 10000)
	for i := range x {
		x[i] = uint64(i)
	}
	got, err := Autocorrelation(x, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got < 0.99 {
		t.Errorf("linear ramp should be strongly autocorrelated at lag 1, got %v", got)
	}
}

func TestAutocorrelationAlternating(t *testing.T) {
	x := make([]uint64, 10000)
	for i := range x {
		if i%2 == 0 {
			x[i] = 1000
		}
	}
	got, err := Autocorrelation(x, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got > -0.99 {
		t.Errorf("alternating sequence should anti-correlate at lag 1, got %v", got)
	}
}
