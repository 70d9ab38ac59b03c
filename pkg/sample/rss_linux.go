//go:build linux

package sample

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SelfRSS returns the current resident set size of this process in bytes.
// Returns 0 if the value cannot be determined.
func SelfRSS() uint64 {
	rss, err := ProcessRSS(os.Getpid())
	if err != nil {
		return 0
	}
	return rss
}

// ProcessRSS returns the resident set size of the given pid in bytes,
// read from /proc/<pid>/status.
func ProcessRSS(pid int) (uint64, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "VmRSS:") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				kb, err := strconv.ParseUint(fields[1], 10, 64)
				if err != nil {
					return 0, err
				}
				return kb * 1024, nil
			}
		}
	}
	return 0, fmt.Errorf("no VmRSS entry for pid %d", pid)
}
