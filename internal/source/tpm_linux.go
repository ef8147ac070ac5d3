//go:build linux

package source

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/google/go-tpm/legacy/tpm2"
)

// TPMLatencySource times TPM2_GetRandom round-trips. The TPM is a
// separate clock domain behind a slow bus, so the command latency
// carries jitter from the security processor itself.
type TPMLatencySource struct {
	rw io.ReadWriteCloser
}

var tpmDevicePaths = []string{"/dev/tpmrm0", "/dev/tpm0"}

// NewTPMLatencySource opens the first available TPM device, or the
// given path when non-empty.
func NewTPMLatencySource(device string) (*TPMLatencySource, error) {
	candidates := tpmDevicePaths
	if device != "" {
		candidates = []string{device}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		rw, err := tpm2.OpenTPM(path)
		if err != nil {
			continue
		}
		return &TPMLatencySource{rw: rw}, nil
	}
	return nil, NewCollectionError("tpm_latency", errors.New("no TPM device available"))
}

func (*TPMLatencySource) Name() string { return "tpm_latency" }

func (s *TPMLatencySource) Collect(ctx context.Context, n int) ([]uint64, error) {
	out := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, NewCollectionError("tpm_latency", err)
		}
		t0 := nowTicks()
		if _, err := tpm2.GetRandom(s.rw, 8); err != nil {
			return nil, NewCollectionError("tpm_latency", err)
		}
		t1 := nowTicks()
		out = append(out, t1-t0)
	}
	return out, nil
}

// Close releases the TPM device.
func (s *TPMLatencySource) Close() error {
	return s.rw.Close()
}
