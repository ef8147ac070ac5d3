//go:build !linux

package source

import "time"

var tickBase = time.Now()

// nowTicks returns monotonic nanoseconds since process start.
func nowTicks() uint64 {
	return uint64(time.Since(tickBase))
}
