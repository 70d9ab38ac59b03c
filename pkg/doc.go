// Package pkg provides the core libraries for memscope memory benchmarking.
//
// # Overview
//
// Memscope records process memory usage over time, analyzes the recordings
// for leak-shaped growth, and renders them as interactive HTML reports. The
// pkg directory is organized into four main areas:
//
//  1. [sample] / [series] / [trend] - Domain logic (sampling, CSV decoding, leak detection)
//  2. [cache] / [store] / [config] - Infrastructure (artifact caching, run history, configuration)
//  3. [report] - HTML report rendering
//  4. [pipeline] - Orchestration (load → analyze → render)
//
// # Architecture
//
// The typical data flow through memscope:
//
//	Observed Process
//	         ↓
//	sample.Tracker ──→ CSV recording
//	         ↓
//	pipeline.Runner (load → analyze → render)
//	         ↓
//	HTML / JSON report
//
// The CLI (internal/cli) and the report server (internal/server) are thin
// layers over pipeline.Runner, so caching and semantics are identical in
// both entry points.
package pkg
