// Package sink assembles the rows of a [lanes.Layout] into final output.
//
// # Overview
//
// A "sink" takes a computed layout, renders every row with [row.Render]
// and writes the result in one format:
//
//   - SVG: rows stacked vertically, one colour per lane, optional labels
//   - PNG and PDF: the SVG converted by rsvg-convert
//   - JSON: the layout itself, optionally with the drawn primitives
//   - Text: an ASCII graph in the style of git log --graph
//
// # SVG Output
//
// Rows are independent, so [RenderSVG] renders them concurrently on a
// bounded errgroup and then writes the fragments in row order:
//
//	svg := sink.RenderSVG(layout,
//	    sink.WithRowHeight(24),
//	    sink.WithLabels(),
//	)
//
// # PDF and PNG Output
//
// [RenderPDF] and [RenderPNG] generate SVG first and then convert it via
// [render.ToPDF] and [render.ToPNG]. These require librsvg:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
//
// # Text Output
//
// [RenderText] draws two character cells per lane: "*" for a commit, "|"
// for a lane passing through, and "\", "/" and "-" for connectors.
//
// [lanes.Layout]: github.com/matzehuels/lanegraph/pkg/lanes.Layout
// [row.Render]: github.com/matzehuels/lanegraph/pkg/render/row.Render
// [render.ToPDF]: github.com/matzehuels/lanegraph/pkg/render.ToPDF
// [render.ToPNG]: github.com/matzehuels/lanegraph/pkg/render.ToPNG
package sink
