// Package nodelink renders a commit history as a node-link diagram.
//
// # Overview
//
// Instead of lanes, every commit becomes a box and every parent link an
// arrow, laid out by Graphviz. It is the "type=nodelink" alternative to
// the lane view and is useful for inspecting criss-cross merges that the
// lane view flattens.
//
// # Usage
//
//	dot := nodelink.ToDOT(commits, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)
//
// Passing the lane layout in [Options] colours each node with its lane
// colour.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
