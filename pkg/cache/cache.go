// Package cache provides caching for the generation pipeline.
//
// The pipeline caches two intermediate results so that re-running it is
// cheap: analyzed outlines (keyed by the source text and analyzer options)
// and computed layouts (keyed by the outline hash, variant and canvas
// options). Exports can be cached too, keyed by the diagram hash.
//
// # Backends
//
//   - [NullCache]: stores nothing; disables caching
//   - [FileCache]: one file per entry under a directory, used by the CLI
//   - [RedisCache]: shared cache for the HTTP server
//
// # Keys
//
// A [Keyer] builds keys from the inputs of each stage. Keys are prefixed
// by stage ("outline:", "layout:", "artifact:") followed by a SHA-256 of
// the inputs, so the same inputs always map to the same key. Use
// [NewScopedKeyer] to isolate workspaces or tenants.
package cache

import (
	"context"
	"time"
)

// Default TTLs for each cached stage.
const (
	OutlineTTL  = 7 * 24 * time.Hour
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 24 * time.Hour
)

// Cache is a byte-oriented key-value cache with optional expiry.
//
// Get reports a miss with ok=false and a nil error; errors are reserved for
// backend failures. A zero ttl stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys for pipeline stages.
type Keyer interface {
	OutlineKey(textHash string, opts OutlineKeyOpts) string
	LayoutKey(outlineHash string, opts LayoutKeyOpts) string
	ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string
}

// OutlineKeyOpts are the analyzer inputs that affect an outline.
type OutlineKeyOpts struct {
	Hint     string `json:"hint"`
	Analyzer string `json:"analyzer"` // analyzer options fingerprint
}

// LayoutKeyOpts are the layout inputs that affect positions.
type LayoutKeyOpts struct {
	Variant string `json:"variant"`
	Canvas  string `json:"canvas"` // layout options fingerprint
}

// ArtifactKeyOpts are the export inputs that affect the rendered bytes.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale"`
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a keyer with no prefix.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// OutlineKey returns the key for an analyzed outline.
func (DefaultKeyer) OutlineKey(textHash string, opts OutlineKeyOpts) string {
	return hashKey("outline", textHash, opts)
}

// LayoutKey returns the key for a computed layout.
func (DefaultKeyer) LayoutKey(outlineHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", outlineHash, opts)
}

// ArtifactKey returns the key for an exported artifact.
func (DefaultKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", diagramHash, opts)
}
