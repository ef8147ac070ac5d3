package source

import (
	"context"
	"os"
	"runtime"
)

// ClockJitterSource measures back-to-back monotonic clock reads.
// Jitter comes from instruction retirement, interrupts, and the clock
// fabric itself.
type ClockJitterSource struct{}

func (ClockJitterSource) Name() string { return "clock_jitter" }

func (ClockJitterSource) Collect(ctx context.Context, n int) ([]uint64, error) {
	out := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, NewCollectionError("clock_jitter", err)
		}
		t0 := nowTicks()
		t1 := nowTicks()
		out = append(out, t1-t0)
	}
	return out, nil
}

// MemoryWalkSource times strided reads over a buffer large enough to
// spill the L1/L2 caches, exposing cache and DRAM path latency.
type MemoryWalkSource struct {
	buf []byte
}

const memoryWalkBufSize = 8 << 20

// NewMemoryWalkSource allocates and touches the probe buffer.
func NewMemoryWalkSource() *MemoryWalkSource {
	buf := make([]byte, memoryWalkBufSize)
	for i := 0; i < len(buf); i += 4096 {
		buf[i] = byte(i)
	}
	return &MemoryWalkSource{buf: buf}
}

func (*MemoryWalkSource) Name() string { return "memory_walk" }

func (s *MemoryWalkSource) Collect(ctx context.Context, n int) ([]uint64, error) {
	out := make([]uint64, 0, n)
	var sink byte
	lcg := nowTicks() | 1
	for i := 0; i < n; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, NewCollectionError("memory_walk", err)
			}
		}
		lcg = lcg*6364136223846793005 + 1442695040888963407
		base := int(lcg % uint64(len(s.buf)-65536))

		t0 := nowTicks()
		// 512 cache-line strided reads from a pseudo-random base.
		for j := 0; j < 512; j++ {
			sink ^= s.buf[base+j*64]
		}
		t1 := nowTicks()
		out = append(out, t1-t0)
	}
	_ = sink
	return out, nil
}

// SchedYieldSource times a voluntary yield to the scheduler. The
// latency depends on run-queue depth and core migration decisions.
type SchedYieldSource struct{}

func (SchedYieldSource) Name() string { return "sched_yield" }

func (SchedYieldSource) Collect(ctx context.Context, n int) ([]uint64, error) {
	out := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, NewCollectionError("sched_yield", err)
			}
		}
		t0 := nowTicks()
		runtime.Gosched()
		t1 := nowTicks()
		out = append(out, t1-t0)
	}
	return out, nil
}

// FsyncJournalSource times small append+fsync cycles against a scratch
// file, exposing storage controller and filesystem journal latency.
type FsyncJournalSource struct {
	path string
}

// NewFsyncJournalSource creates the probe with a scratch file in dir
// (os.TempDir when empty).
func NewFsyncJournalSource(dir string) *FsyncJournalSource {
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "entrospect-fsync-*")
	if err != nil {
		return &FsyncJournalSource{}
	}
	path := f.Name()
	f.Close()
	return &FsyncJournalSource{path: path}
}

func (*FsyncJournalSource) Name() string { return "fsync_journal" }

func (s *FsyncJournalSource) Collect(ctx context.Context, n int) ([]uint64, error) {
	if s.path == "" {
		return nil, NewCollectionError("fsync_journal", os.ErrNotExist)
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, NewCollectionError("fsync_journal", err)
	}
	defer f.Close()

	payload := []byte("entrospect")
	out := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, NewCollectionError("fsync_journal", err)
		}
		t0 := nowTicks()
		if _, err := f.Write(payload); err != nil {
			return nil, NewCollectionError("fsync_journal", err)
		}
		if err := f.Sync(); err != nil {
			return nil, NewCollectionError("fsync_journal", err)
		}
		t1 := nowTicks()
		out = append(out, t1-t0)
	}
	return out, nil
}

// Close removes the scratch file.
func (s *FsyncJournalSource) Close() error {
	if s.path == "" {
		return nil
	}
	return os.Remove(s.path)
}
