//go:build darwin

package sample

import (
	"fmt"
	"syscall"
)

// SelfRSS returns the current resident set size of this process in bytes.
// On macOS, ru_maxrss is reported in bytes (unlike Linux's kilobytes).
// Returns 0 if the value cannot be determined.
func SelfRSS() uint64 {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	return uint64(ru.Maxrss)
}

// ProcessRSS is not supported on macOS; there is no /proc equivalent
// readable without task_for_pid entitlements.
func ProcessRSS(pid int) (uint64, error) {
	return 0, fmt.Errorf("external process sampling is not supported on darwin")
}
