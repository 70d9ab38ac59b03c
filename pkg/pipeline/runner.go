package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/getmemscope/memscope/pkg/cache"
	"github.com/getmemscope/memscope/pkg/observability"
	"github.com/getmemscope/memscope/pkg/report"
	"github.com/getmemscope/memscope/pkg/sample"
	"github.com/getmemscope/memscope/pkg/series"
	"github.com/getmemscope/memscope/pkg/trend"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// recording is one loaded input with both views of its samples: the
// converted series for rendering and the raw samples for trend analysis.
type recording struct {
	label   string
	dataset series.Dataset
	samples []sample.Sample
	hash    string
}

// Execute runs the complete load → analyze → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	labels := make([]string, len(opts.Inputs))
	for i, in := range opts.Inputs {
		labels[i] = in.Label
	}
	hooks := observability.Pipeline()

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	hooks.OnLoadStart(ctx, labels)
	recordings, err := r.load(opts)
	result.Stats.LoadTime = time.Since(loadStart)
	sampleCount := 0
	for _, rec := range recordings {
		sampleCount += len(rec.samples)
	}
	hooks.OnLoadComplete(ctx, labels, sampleCount, result.Stats.LoadTime, err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.SampleCount = sampleCount
	result.Datasets = make([]series.Dataset, len(recordings))
	for i, rec := range recordings {
		result.Datasets[i] = rec.dataset
	}
	result.ContentHash = contentHash(recordings)

	opts.Logger.Info("loaded recordings",
		"inputs", len(recordings),
		"samples", sampleCount,
		"duration", result.Stats.LoadTime)

	// Stage 2: Analyze
	analyzeStart := time.Now()
	hooks.OnAnalyzeStart(ctx, len(recordings))
	analyses, analyzeHit := r.analyzeWithCacheInfo(ctx, recordings, opts)
	result.Analyses = analyses
	result.Stats.AnalyzeTime = time.Since(analyzeStart)
	result.CacheInfo.AnalyzeHit = analyzeHit
	hooks.OnAnalyzeComplete(ctx, len(recordings), result.Stats.AnalyzeTime, nil)

	opts.Logger.Info("analyzed trends",
		"recordings", len(recordings),
		"leaks", result.LeakCount(),
		"duration", result.Stats.AnalyzeTime)

	// Stage 3: Render
	renderStart := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.renderWithCacheInfo(ctx, result.Datasets, analyses, result.ContentHash, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	hooks.OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// load reads every input into a recording. Inputs with a Path are read
// from disk, inputs with Data are decoded in place.
func (r *Runner) load(opts Options) ([]recording, error) {
	recordings := make([]recording, 0, len(opts.Inputs))
	for _, in := range opts.Inputs {
		data := in.Data
		if data == nil {
			read, err := os.ReadFile(in.Path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", in.Label, err)
			}
			data = read
		}

		s, err := series.Read(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Label, err)
		}
		samples, err := sample.ReadCSV(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Label, err)
		}

		recordings = append(recordings, recording{
			label:   in.Label,
			dataset: series.Dataset{Label: in.Label, Series: *s},
			samples: samples,
			hash:    cache.Hash(append([]byte(in.Label+"\x00"), data...)),
		})
	}
	return recordings, nil
}

// contentHash combines the per-recording hashes into one identity for the
// input set. Order matters: reordering inputs reorders the charts.
func contentHash(recordings []recording) string {
	var buf bytes.Buffer
	for _, rec := range recordings {
		buf.WriteString(rec.hash)
		buf.WriteByte('\n')
	}
	return cache.Hash(buf.Bytes())
}

// analyzeWithCacheInfo computes trend reports per recording, serving from
// cache where possible. The second return reports whether every recording
// was a cache hit. Analysis never fails: a stale or corrupt cache entry
// just falls through to recomputation.
func (r *Runner) analyzeWithCacheInfo(ctx context.Context, recordings []recording, opts Options) ([]Analysis, bool) {
	analyses := make([]Analysis, len(recordings))
	allHit := true

	for i, rec := range recordings {
		key := r.Keyer.AnalysisKey(rec.hash)

		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				var cached trend.Report
				if json.Unmarshal(data, &cached) == nil {
					observability.Cache().OnCacheHit(ctx, key)
					analyses[i] = Analysis{Label: rec.label, Report: cached}
					continue
				}
			}
			observability.Cache().OnCacheMiss(ctx, key)
		}
		allHit = false

		rep := trend.Analyze(rec.samples)
		analyses[i] = Analysis{Label: rec.label, Report: rep}

		if data, err := json.Marshal(rep); err == nil {
			if r.Cache.Set(ctx, key, data, opts.CacheTTL) == nil {
				observability.Cache().OnCacheSet(ctx, key, len(data))
			}
		}
	}

	return analyses, allHit && len(recordings) > 0
}

// renderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) renderWithCacheInfo(ctx context.Context, datasets []series.Dataset, analyses []Analysis, hash string, opts Options) (map[string][]byte, bool, error) {
	// Try to get all formats from cache
	allCached := !opts.Refresh
	artifacts := make(map[string][]byte)

	if allCached {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(hash, cache.ArtifactKeyOpts{Format: format, Title: opts.Title})
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, key)
				artifacts[format] = data
			} else {
				observability.Cache().OnCacheMiss(ctx, key)
				allCached = false
				break
			}
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := renderArtifacts(datasets, analyses, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(hash, cache.ArtifactKeyOpts{Format: format, Title: opts.Title})
		if r.Cache.Set(ctx, key, data, opts.CacheTTL) == nil {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}

	return rendered, false, nil
}

// jsonDocument is the machine-readable artifact.
type jsonDocument struct {
	Title    string           `json:"title"`
	Datasets []series.Dataset `json:"datasets"`
	Analyses []Analysis       `json:"analyses"`
}

func renderArtifacts(datasets []series.Dataset, analyses []Analysis, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatHTML:
			data, err := report.RenderHTML(datasets, opts.Title)
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
		case FormatJSON:
			doc := jsonDocument{Title: opts.Title, Datasets: datasets, Analyses: analyses}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
		}
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
