//go:build !linux && !darwin

package sample

import (
	"fmt"
	"runtime"
)

// SelfRSS returns 0 on platforms without an RSS source; heap statistics
// from the runtime are still collected.
func SelfRSS() uint64 {
	return 0
}

// ProcessRSS is not supported on this platform.
func ProcessRSS(pid int) (uint64, error) {
	return 0, fmt.Errorf("external process sampling is not supported on %s", runtime.GOOS)
}
