// Package cache provides pluggable caching for pipeline artifacts.
//
// Rendering a report is deterministic in its inputs, so artifacts are cached
// keyed on content hashes of the input recordings plus the render options.
// Three backends are provided:
//   - FileCache: per-user cache directory for the CLI
//   - RedisCache: shared cache for the report server
//   - NullCache: caching disabled
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with optional expiration.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// ArtifactKeyOpts are the render options that participate in artifact keys.
type ArtifactKeyOpts struct {
	Format string
	Title  string
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// AnalysisKey generates a key for a trend report of one recording.
	AnalysisKey(contentHash string) string

	// ArtifactKey generates a key for a rendered artifact.
	// contentHash covers all input recordings and their labels.
	ArtifactKey(contentHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// AnalysisKey generates a key for a trend report.
func (k *DefaultKeyer) AnalysisKey(contentHash string) string {
	return hashKey("analysis", contentHash)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", contentHash, opts.Format, opts.Title)
}
