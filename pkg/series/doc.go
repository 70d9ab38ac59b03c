// Package series defines the memory time-series value types and the CSV
// decoding shared by the analyze, report, and serve entry points.
//
// A Series holds the unit-converted view of one recording: elapsed time in
// minutes, resident set size in MB, and heap allocation in MB, each rounded
// to two decimals. The raw CSV column contract is the one produced by the
// sample package (and by older harnesses that named the heap column
// "heap_allocated_bytes" instead of "heap_alloc_bytes").
package series
