// Package pipeline provides the load → layout → render pipeline shared by the
// CLI and the HTTP server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: decode a commit list from JSON or read it from a git repository
//  2. Layout: assign lanes with [lanes.Build] over the full list
//  3. Render: produce SVG, PNG, PDF, JSON or text output
//
// Every stage is cached through a [cache.Cache]. Layout and artifact keys
// are content hashes, so a cached entry is never stale.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Repo:    ".",
//	    Limit:   500,
//	    Formats: []string{"svg", "text"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lanegraph/pkg/cache"
	"github.com/matzehuels/lanegraph/pkg/commit"
	"github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/render/row"
	"github.com/matzehuels/lanegraph/pkg/render/sink"
	"github.com/matzehuels/lanegraph/pkg/source/gitrepo"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultRowHeight is the row height used when none is given.
	DefaultRowHeight = sink.DefaultRowHeight

	// DefaultPNGScale is the rasterization scale for PNG output.
	DefaultPNGScale = 2.0
)

// Visualization types.
const (
	VizTypeLanes    = "lanes"
	VizTypeNodelink = "nodelink"
)

// DefaultVizType is the default visualization type.
const DefaultVizType = VizTypeLanes

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatText = "text"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatText: true,
}

// ValidVizTypes is the set of supported visualization types.
var ValidVizTypes = map[string]bool{
	VizTypeLanes:    true,
	VizTypeNodelink: true,
}

// ContentType returns the MIME type of a rendered format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
type Options struct {
	// Source options. Exactly one of Input and Repo is used; Repo wins.
	Input   []byte        `json:"-"`
	Repo    string        `json:"repo,omitempty"`
	Ref     string        `json:"ref,omitempty"`
	All     bool          `json:"all,omitempty"`
	Limit   int           `json:"limit,omitempty"`
	Order   gitrepo.Order `json:"order,omitempty"`
	Refresh bool          `json:"refresh,omitempty"`

	// Layout options
	VisibleLaneLimit int `json:"visible_lane_limit,omitempty"`

	// Render options
	VizType    string       `json:"viz_type,omitempty"`
	Formats    []string     `json:"formats,omitempty"`
	RowHeight  float64      `json:"row_height,omitempty"`
	Width      float64      `json:"width,omitempty"`
	Labels     bool         `json:"labels,omitempty"`
	Detailed   bool         `json:"detailed,omitempty"`
	Primitives bool         `json:"primitives,omitempty"`
	Geometry   row.Geometry `json:"geometry,omitempty"`
	Palette    []string     `json:"palette,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Commits is the deduplicated commit list the layout was built from.
	Commits []commit.Commit

	// CommitsHash is the content hash of Commits.
	CommitsHash string

	// Layout is the lane layout.
	Layout lanes.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Commits    int
	Duplicates int
	Skipped    int
	Malformed  int
	MaxLanes   int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SourceHit bool // Whether the repository read came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json, text)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if !ValidVizTypes[vizType] {
		return errors.New(errors.ErrCodeInvalidVizType, "invalid viz_type: %q (must be one of: lanes, nodelink)", vizType)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that a commit source is present and well formed.
func (o *Options) ValidateForLoad() error {
	if o.Repo == "" && o.Input == nil {
		return errors.New(errors.ErrCodeInvalidInput, "commit input or repository path is required")
	}
	if o.Repo != "" {
		if err := errors.ValidatePath(o.Repo); err != nil {
			return err
		}
		if err := o.SourceOptions().Validate(); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.VisibleLaneLimit == 0 {
		o.VisibleLaneLimit = lanes.DefaultVisibleLaneLimit
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	if o.VisibleLaneLimit < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "visible lane limit must be positive, got %d", o.VisibleLaneLimit)
	}
	o.SetLayoutDefaults()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.RowHeight <= 0 {
		o.RowHeight = DefaultRowHeight
	}
	if o.Geometry == (row.Geometry{}) {
		o.Geometry = row.DefaultGeometry()
	}
	o.Geometry = o.Geometry.Normalize()
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if o.Width < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "width must not be negative, got %v", o.Width)
	}
	o.SetRenderDefaults()
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// IsNodelink returns true if this is a nodelink visualization.
func (o *Options) IsNodelink() bool {
	return o.VizType == VizTypeNodelink
}

// SourceOptions returns the repository read options.
func (o *Options) SourceOptions() gitrepo.Options {
	return gitrepo.Options{Ref: o.Ref, All: o.All, Limit: o.Limit, Order: o.Order}
}

// SourceKeyOpts returns cache key options for a repository read at the
// resolved revision head.
func (o *Options) SourceKeyOpts(head string) cache.SourceKeyOpts {
	return cache.SourceKeyOpts{
		Head:  head,
		Ref:   o.Ref,
		All:   o.All,
		Limit: o.Limit,
		Order: string(o.Order),
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{VisibleLaneLimit: o.VisibleLaneLimit}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		VizType:    o.VizType,
		RowHeight:  o.RowHeight,
		Width:      o.Width,
		Labels:     o.Labels,
		Detailed:   o.Detailed,
		Geometry:   cache.HashJSON(o.Geometry),
		Palette:    strings.Join(o.Palette, ","),
		Primitives: o.Primitives,
	}
}
