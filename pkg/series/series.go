package series

import "math"

// Column names recognized in recording CSVs.
const (
	ColElapsedSec = "elapsed_sec"
	ColRSSBytes   = "rss_bytes"
	ColHeapAlloc  = "heap_alloc_bytes"

	// ColHeapAllocLegacy is the heap column name written by older harnesses.
	ColHeapAllocLegacy = "heap_allocated_bytes"
)

// Series is the unit-converted view of one memory recording.
// All three slices are the same length, one entry per CSV row.
type Series struct {
	Times []float64 `json:"times"` // elapsed minutes
	RSS   []float64 `json:"rss"`   // resident set size, MB
	Heap  []float64 `json:"heap"`  // heap allocation, MB
}

// Dataset pairs a label with its series, as rendered in reports.
type Dataset struct {
	Label  string `json:"label"`
	Series Series `json:"series"`
}

// Len returns the number of samples.
func (s *Series) Len() int {
	return len(s.Times)
}

// Empty reports whether the series has no samples.
func (s *Series) Empty() bool {
	return len(s.Times) == 0
}

// Duration returns the elapsed minutes of the last sample, or 0 when empty.
func (s *Series) Duration() float64 {
	if len(s.Times) == 0 {
		return 0
	}
	return s.Times[len(s.Times)-1]
}

// Round2 rounds to two decimal places, the precision used for all
// converted values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MinutesFromSeconds converts elapsed seconds to rounded minutes.
func MinutesFromSeconds(sec float64) float64 {
	return Round2(sec / 60)
}

// MBFromBytes converts a byte count to rounded megabytes.
func MBFromBytes(b float64) float64 {
	return Round2(b / (1024 * 1024))
}
