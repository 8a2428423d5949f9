package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/render/nodelink"
	"github.com/matzehuels/lanegraph/pkg/render/sink"
	"github.com/matzehuels/lanegraph/pkg/render/styles"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, l lanes.Layout, opts Options) (map[string][]byte, error) {
	if opts.IsNodelink() {
		return renderNodelink(ctx, l, opts)
	}
	return renderLanes(ctx, l, opts)
}

// renderLanes generates lane graph outputs.
func renderLanes(ctx context.Context, l lanes.Layout, opts Options) (map[string][]byte, error) {
	svgOpts := buildSVGOptions(opts)
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(l, svgOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(ctx, l, sink.WithPNGSVGOptions(svgOpts...), sink.WithScale(DefaultPNGScale))
		case FormatPDF:
			data, err = sink.RenderPDF(ctx, l, sink.WithPDFSVGOptions(svgOpts...))
		case FormatJSON:
			data, err = renderJSON(l, opts)
		case FormatText:
			data = []byte(sink.RenderText(l, buildTextOptions(opts)...))
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported lanes format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// renderNodelink generates Graphviz outputs. JSON output is the lane
// layout, text output is the DOT source.
func renderNodelink(ctx context.Context, l lanes.Layout, opts Options) (map[string][]byte, error) {
	dot := nodelink.ToDOT(CommitsOf(l), nodelink.Options{Detailed: opts.Detailed, Layout: &l})
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, DefaultPNGScale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatJSON:
			data, err = renderJSON(l, opts)
		case FormatText:
			data = []byte(dot)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported nodelink format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func renderJSON(l lanes.Layout, opts Options) ([]byte, error) {
	jsonOpts := []sink.JSONOption{sink.WithJSONGeometry(opts.Geometry)}
	if opts.Primitives {
		jsonOpts = append(jsonOpts, sink.WithJSONPrimitives(opts.Width, opts.RowHeight))
	}
	return sink.RenderJSON(l, jsonOpts...)
}

// buildSVGOptions builds SVG rendering options.
func buildSVGOptions(opts Options) []sink.SVGOption {
	svgOpts := []sink.SVGOption{
		sink.WithRowHeight(opts.RowHeight),
		sink.WithWidth(opts.Width),
		sink.WithGeometry(opts.Geometry),
	}
	if opts.Labels {
		svgOpts = append(svgOpts, sink.WithLabels())
	}
	if len(opts.Palette) > 0 {
		svgOpts = append(svgOpts, sink.WithPalette(styles.FromHex(opts.Palette)))
	}
	return svgOpts
}

func buildTextOptions(opts Options) []sink.TextOption {
	if opts.Labels {
		return []sink.TextOption{sink.WithTextLabels()}
	}
	return nil
}
