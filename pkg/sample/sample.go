package sample

import "time"

// Sample is a single memory observation.
type Sample struct {
	Timestamp   time.Time
	Elapsed     time.Duration
	RSSBytes    uint64
	HeapAlloc   uint64
	HeapInuse   uint64
	HeapObjects uint64
	HeapSys     uint64
	Goroutines  int
	Counters    []int64 // parallel to the tracker's registered counter names
}

// RSSMB returns the resident set size in megabytes.
func (s Sample) RSSMB() float64 {
	return float64(s.RSSBytes) / 1024 / 1024
}

// HeapMB returns the heap allocation in megabytes.
func (s Sample) HeapMB() float64 {
	return float64(s.HeapAlloc) / 1024 / 1024
}

// Minutes returns the elapsed time in minutes.
func (s Sample) Minutes() float64 {
	return s.Elapsed.Minutes()
}
