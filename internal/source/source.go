// Package source defines the boundary between the evaluation engine and
// the hardware/OS probes that feed it.
//
// A Source produces raw timing samples by exercising some OS or hardware
// path. Sources are callable repeatedly to produce independent
// sequences, though not necessarily idempotent in their physical effect:
// a probe that touches the cache leaves it warmer. That is an accepted
// property of physical entropy sources and exactly what the stability
// assessment is designed to expose.
//
// The reference probes in this package are deliberately thin front ends;
// everything with real structure lives in the analysis packages.
package source

import (
	"context"
	"fmt"
)

// Source produces raw timing samples in the order they were observed.
type Source interface {
	// Name identifies the source in reports and stored audits.
	Name() string

	// Collect returns n timing samples in monotonic hardware tick
	// units. The engine performs no unit conversion. Collect may
	// return fewer than n samples together with a nil error when the
	// probed path rejects some operations; it must never substitute
	// synthetic data.
	Collect(ctx context.Context, n int) ([]uint64, error)
}

// CollectionError wraps a source failure so callers can tell collection
// failures apart from analysis failures. The engine propagates these
// unchanged and never retries internally.
type CollectionError struct {
	Source string
	Err    error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("source %s: collection failed: %v", e.Source, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// NewCollectionError wraps err as a collection failure of the named
// source. Returns nil when err is nil.
func NewCollectionError(name string, err error) error {
	if err == nil {
		return nil
	}
	return &CollectionError{Source: name, Err: err}
}
