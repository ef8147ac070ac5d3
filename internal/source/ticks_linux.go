//go:build linux

package source

import "golang.org/x/sys/unix"

// nowTicks reads CLOCK_MONOTONIC_RAW, which is not subject to NTP slew
// and so preserves the oscillator's own jitter.
func nowTicks() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return 0
	}
	return uint64(ts.Sec)*1e9 + uint64(ts.Nsec)
}
