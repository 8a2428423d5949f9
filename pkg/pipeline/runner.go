package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lanegraph/pkg/cache"
	"github.com/matzehuels/lanegraph/pkg/commit"
	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/observability"
	"github.com/matzehuels/lanegraph/pkg/source/gitrepo"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default entry lifetimes when positive.
	TTL time.Duration
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

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result, err := r.ExecuteLayout(ctx, opts)
	if err != nil {
		return nil, err
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Layout, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"type", opts.VizType,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ExecuteLayout runs the load and layout stages only. The returned result
// has no artifacts.
func (r *Runner) ExecuteLayout(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := opts.ValidateForLayout(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	commits, decodeStats, sourceHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	commits, dups := commit.Dedupe(commits)
	if dups > 0 {
		r.Logger.Warn("dropped duplicate commits", "count", dups)
	}
	result.Commits = commits
	result.CommitsHash = commit.Hash(commits)
	result.Stats.Commits = len(commits)
	result.Stats.Duplicates = dups
	result.Stats.Skipped = decodeStats.Skipped
	result.Stats.Malformed = decodeStats.Malformed
	result.Stats.LoadTime = time.Since(loadStart)
	result.CacheInfo.SourceHit = sourceHit

	r.Logger.Info("loaded commits",
		"source", describeSource(opts),
		"commits", len(commits),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.GenerateLayoutWithCacheInfo(ctx, commits, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.MaxLanes = l.MaxLaneCount
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"rows", len(l.Rows),
		"lanes", l.MaxLaneCount,
		"visible_lanes", l.VisibleMaxLaneCount,
		"duration", result.Stats.LayoutTime)
	if l.MaxLaneCount > l.VisibleLaneLimit {
		r.Logger.Warn("lanes beyond the visible limit are drawn in the last column",
			"lanes", l.MaxLaneCount,
			"limit", l.VisibleLaneLimit)
	}

	return result, nil
}

// LoadWithCacheInfo reads the commit list and returns whether it came from
// the cache. Only repository reads are cached; they are keyed by the
// resolved revision, so new commits always miss.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) ([]commit.Commit, commit.DecodeStats, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, commit.DecodeStats{}, false, err
	}

	source := describeSource(opts)
	if opts.Repo == "" {
		commits, stats, err := r.load(ctx, source, opts)
		return commits, stats, false, err
	}

	head, err := gitrepo.Revision(opts.Repo, opts.SourceOptions())
	if err != nil {
		return nil, commit.DecodeStats{}, false, err
	}
	repo := opts.Repo
	if abs, err := filepath.Abs(repo); err == nil {
		repo = abs
	}
	cacheKey := r.Keyer.SourceKey(repo, opts.SourceKeyOpts(head))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit := r.get(ctx, "source", cacheKey); hit {
			var commits []commit.Commit
			if err := json.Unmarshal(data, &commits); err == nil {
				return commits, commit.DecodeStats{Total: len(commits)}, true, nil
			}
		}
	}

	commits, stats, err := r.load(ctx, source, opts)
	if err != nil {
		return nil, stats, false, err
	}
	if data, err := json.Marshal(commits); err == nil {
		r.set(ctx, "source", cacheKey, data, cache.TTLSource)
	}
	return commits, stats, false, nil
}

func (r *Runner) load(ctx context.Context, source string, opts Options) ([]commit.Commit, commit.DecodeStats, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()
	commits, stats, err := Load(ctx, opts)
	hooks.OnLoadComplete(ctx, source, len(commits), time.Since(start), err)
	return commits, stats, err
}

// GenerateLayoutWithCacheInfo computes the lane layout with caching and
// returns cache hit info. commits must already be deduplicated.
func (r *Runner) GenerateLayoutWithCacheInfo(ctx context.Context, commits []commit.Commit, opts Options) (lanes.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return lanes.Layout{}, false, err
	}

	cacheKey := r.Keyer.LayoutKey(commit.Hash(commits), opts.LayoutKeyOpts())

	if data, hit := r.get(ctx, "layout", cacheKey); hit {
		var cached lanes.Layout
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, true, nil
		}
		// A corrupt entry falls through to recompute.
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(commits))
	start := time.Now()
	l := GenerateLayout(commits, opts)
	hooks.OnLayoutComplete(ctx, len(l.Rows), l.MaxLaneCount, time.Since(start), nil)

	if data, err := json.Marshal(l); err == nil {
		r.set(ctx, "layout", cacheKey, data, cache.TTLLayout)
	}
	return l, false, nil
}

// GenerateLayout is a convenience wrapper that calls GenerateLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) GenerateLayout(ctx context.Context, commits []commit.Commit, opts Options) (lanes.Layout, error) {
	l, _, err := r.GenerateLayoutWithCacheInfo(ctx, commits, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info. Only formats missing from the cache are rendered.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l lanes.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutHash := cache.HashJSON(l)
	artifacts := make(map[string][]byte, len(opts.Formats))

	var missing []string
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit := r.get(ctx, "artifact", cacheKey); hit {
			artifacts[format] = data
			continue
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.VizType, missing)
	start := time.Now()
	rendered, err := Render(ctx, l, renderOpts)
	hooks.OnRenderComplete(ctx, opts.VizType, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		r.set(ctx, "artifact", cacheKey, data, cache.TTLArtifact)
	}
	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l lanes.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// get looks up key and reports the outcome to the cache hooks. Backend
// errors count as misses.
func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "kind", keyType, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "kind", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func describeSource(opts Options) string {
	if opts.Repo != "" {
		return gitrepo.Describe(opts.Repo, opts.SourceOptions())
	}
	return "input"
}
