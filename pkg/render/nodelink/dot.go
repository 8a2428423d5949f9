package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/lanegraph/pkg/commit"
	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/render"
	"github.com/matzehuels/lanegraph/pkg/render/styles"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds author and date lines to node labels.
	// When false, only the short hash and subject are shown.
	Detailed bool

	// Layout, when set, colours every node by the lane it occupies in the
	// lane view so both visualizations read alike.
	Layout *lanes.Layout
}

// ToDOT converts a commit history to Graphviz DOT format. Edges point from
// a commit to its parents. Parents that are not part of the history are
// drawn as dashed placeholders.
func ToDOT(commits []commit.Commit, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=12, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("  ranksep=0.35;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	colors := laneColors(opts.Layout)
	known := make(map[string]bool, len(commits))
	for _, c := range commits {
		if c.Hash == "" || known[c.Hash] {
			continue
		}
		known[c.Hash] = true
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(c, opts.Detailed))}
		if col, ok := colors[c.Hash]; ok {
			attrs = append(attrs, fmt.Sprintf("color=%q", col), "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", c.Hash, strings.Join(attrs, ", "))
	}

	var ghosts []string
	for _, c := range commits {
		for _, p := range c.Parents {
			if p != "" && !known[p] {
				known[p] = true
				ghosts = append(ghosts, p)
			}
		}
	}
	for _, p := range ghosts {
		fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,dashed\", fontcolor=grey];\n", p, commit.Commit{Hash: p}.Short())
	}

	buf.WriteString("\n")
	for _, c := range commits {
		if c.Hash == "" {
			continue
		}
		for _, p := range c.Parents {
			if p != "" {
				fmt.Fprintf(&buf, "  %q -> %q;\n", c.Hash, p)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(c commit.Commit, detailed bool) string {
	label := c.Short()
	if s := c.Subject(); s != "" {
		label += " " + styles.Truncate(s, 40)
	}
	if !detailed {
		return label
	}
	var parts []string
	if c.Author != "" {
		parts = append(parts, "author: "+c.Author)
	}
	if c.Date != "" {
		parts = append(parts, "date: "+c.Date)
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func laneColors(l *lanes.Layout) map[string]string {
	if l == nil {
		return nil
	}
	p := styles.NewPalette(max(l.VisibleLaneLimit, 1))
	limit := max(l.VisibleLaneLimit, 1)
	out := make(map[string]string, len(l.Rows))
	for _, r := range l.Rows {
		if r.Commit.Hash != "" {
			out[r.Commit.Hash] = p.Hex(min(r.LaneIndex, limit-1))
		}
	}
	return out
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
