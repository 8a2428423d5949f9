// Package render holds the output side of lanegraph.
//
// The subpackages do the work:
//
//   - [row]: turns one layout row into drawing primitives
//   - [sink]: assembles rows into SVG, PNG, PDF, JSON or text
//   - [nodelink]: draws the commit DAG with Graphviz instead of lanes
//   - [styles]: lane colours and text helpers
//
// This package only provides [ToPDF] and [ToPNG], which convert any SVG
// using the external rsvg-convert tool (from librsvg). Both sinks and the
// node-link renderer use them.
//
//	svg := sink.RenderSVG(layout)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [row]: github.com/matzehuels/lanegraph/pkg/render/row
// [sink]: github.com/matzehuels/lanegraph/pkg/render/sink
// [nodelink]: github.com/matzehuels/lanegraph/pkg/render/nodelink
// [styles]: github.com/matzehuels/lanegraph/pkg/render/styles
package render
