package source

import (
	"context"

	"golang.org/x/crypto/blake2b"
)

// HashTimingSource times batches of BLAKE2b compressions. The variance
// comes from the memory subsystem feeding the hash core, frequency
// scaling, and SMT interference, not from the hash function itself.
type HashTimingSource struct {
	rounds int
}

// NewHashTimingSource creates the probe. rounds is the number of hash
// invocations per sample (32 when <= 0).
func NewHashTimingSource(rounds int) *HashTimingSource {
	if rounds <= 0 {
		rounds = 32
	}
	return &HashTimingSource{rounds: rounds}
}

func (*HashTimingSource) Name() string { return "hash_timing" }

func (s *HashTimingSource) Collect(ctx context.Context, n int) ([]uint64, error) {
	var block [64]byte
	out := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, NewCollectionError("hash_timing", err)
			}
		}
		t0 := nowTicks()
		for j := 0; j < s.rounds; j++ {
			sum := blake2b.Sum256(block[:])
			copy(block[:32], sum[:])
		}
		t1 := nowTicks()
		out = append(out, t1-t0)
	}
	return out, nil
}
