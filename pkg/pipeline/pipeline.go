// Package pipeline provides the core report pipeline for memscope.
//
// This package implements the complete load → analyze → render pipeline
// that can be used by CLI and server components. By centralizing this
// logic, we ensure consistent behavior across all entry points and avoid
// code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read recording CSVs into labeled datasets
//  2. Analyze: Compute trend reports and leak verdicts per dataset
//  3. Render: Generate output artifacts (HTML, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Inputs:  []pipeline.Input{{Label: "Go", Path: "go_results.csv"}},
//	    Formats: []string{pipeline.FormatHTML},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	html := result.Artifacts[pipeline.FormatHTML]
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/getmemscope/memscope/pkg/errors"
	"github.com/getmemscope/memscope/pkg/report"
	"github.com/getmemscope/memscope/pkg/series"
	"github.com/getmemscope/memscope/pkg/trend"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultTitle is the report title used when none is given.
	DefaultTitle = report.DefaultTitle

	// DefaultCacheTTL is how long rendered artifacts stay cached.
	DefaultCacheTTL = 24 * time.Hour
)

// Format constants for output formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatHTML: true,
	FormatJSON: true,
}

// ValidateFormats checks that all requested formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat,
				"invalid format: %s (must be 'html' or 'json')", f)
		}
	}
	return nil
}

// Input is one labeled recording. Exactly one of Path or Data is set:
// the CLI passes file paths, the server passes uploaded bytes.
type Input struct {
	Label string
	Path  string
	Data  []byte
}

// Options controls a pipeline execution.
type Options struct {
	// Inputs are the labeled recordings to load.
	Inputs []Input

	// Title is the report title.
	Title string

	// Formats are the artifacts to render.
	Formats []string

	// CacheTTL is how long rendered artifacts are cached.
	CacheTTL time.Duration

	// Refresh bypasses the cache for this execution.
	Refresh bool

	// Logger overrides the runner's logger for this execution.
	Logger *log.Logger
}

// ValidateAndSetDefaults validates options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Inputs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no inputs given")
	}
	for _, in := range o.Inputs {
		if in.Label == "" {
			return errors.New(errors.ErrCodeInvalidInput, "input with empty label")
		}
		if in.Path == "" && in.Data == nil {
			return errors.New(errors.ErrCodeInvalidInput,
				"input %q has neither path nor data", in.Label)
		}
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatHTML}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	return nil
}

// Stats captures per-stage timings.
type Stats struct {
	LoadTime    time.Duration
	AnalyzeTime time.Duration
	RenderTime  time.Duration
	SampleCount int
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	AnalyzeHit bool
	RenderHit  bool
}

// Analysis pairs a dataset label with its trend report.
type Analysis struct {
	Label  string       `json:"label"`
	Report trend.Report `json:"report"`
}

// Result is the output of a pipeline execution.
type Result struct {
	Datasets  []series.Dataset
	Analyses  []Analysis
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo

	// ContentHash identifies the input set, for cache keys and ETags.
	ContentHash string
}

// LeakCount returns how many datasets were flagged as leaking.
func (r *Result) LeakCount() int {
	n := 0
	for _, a := range r.Analyses {
		if a.Report.LeakDetected {
			n++
		}
	}
	return n
}
