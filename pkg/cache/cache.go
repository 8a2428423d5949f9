// Package cache stores layouts and rendered artifacts between runs.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (used by the HTTP server)
//   - [NullCache]: stores nothing (--no-cache)
//
// # Keys
//
// Keys are built by a [Keyer] from content hashes, so a changed commit list
// or changed render options never hit a stale entry:
//
//	layoutKey := keyer.LayoutKey(commit.Hash(commits), cache.LayoutKeyOpts{VisibleLaneLimit: 7})
//	svgKey := keyer.ArtifactKey(layoutHash, cache.ArtifactKeyOpts{Format: "svg", RowHeight: 24})
//
// [ScopedKeyer] prefixes every key, which keeps tenants (or applications
// sharing one Redis) apart.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes. Layout and artifact keys are content hashes and
// only expire to bound storage; source entries are keyed by a resolved
// revision and expire sooner.
const (
	TTLSource   = 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// SourceKey identifies a commit list read from a repository at a
	// resolved revision.
	SourceKey(repo string, opts SourceKeyOpts) string
	// LayoutKey identifies the lane layout of a commit list.
	LayoutKey(commitsHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies a rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// SourceKeyOpts are the repository read options that change the result.
type SourceKeyOpts struct {
	Head  string `json:"head"`
	Ref   string `json:"ref,omitempty"`
	All   bool   `json:"all,omitempty"`
	Limit int    `json:"limit,omitempty"`
	Order string `json:"order,omitempty"`
}

// LayoutKeyOpts are the layout options that change the result.
type LayoutKeyOpts struct {
	VisibleLaneLimit int `json:"visible_lane_limit"`
}

// ArtifactKeyOpts are the render options that change the output bytes.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	VizType   string  `json:"viz_type,omitempty"`
	RowHeight float64 `json:"row_height,omitempty"`
	Width     float64 `json:"width,omitempty"`
	Labels    bool    `json:"labels,omitempty"`
	Detailed  bool    `json:"detailed,omitempty"`
	// Geometry is a hash of the drawing constants.
	Geometry string `json:"geometry,omitempty"`
	Palette  string `json:"palette,omitempty"`
	// Primitives is set when JSON output embeds drawing primitives.
	Primitives bool `json:"primitives,omitempty"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) SourceKey(repo string, opts SourceKeyOpts) string {
	return hashKey("source", repo, opts)
}

func (DefaultKeyer) LayoutKey(commitsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", commitsHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
