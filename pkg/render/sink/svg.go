package sink

import (
	"bytes"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/render/row"
	"github.com/matzehuels/lanegraph/pkg/render/styles"
)

const (
	// DefaultRowHeight is the height of one commit row in SVG units.
	DefaultRowHeight = 24.0

	labelGap      = 8.0
	labelWidth    = 520.0
	labelFontSize = 12.0
	subjectChars  = 60
)

const labelCSS = `
    text { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: %.0fpx; dominant-baseline: middle; }
    .hash { fill: #6a737d; }
    .author { fill: #959da5; }`

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	rowHeight   float64
	width       float64
	labels      bool
	geom        row.Geometry
	palette     styles.Palette
	hasPalette  bool
	concurrency int
}

// WithRowHeight sets the height of every row (default 24).
func WithRowHeight(h float64) SVGOption {
	return func(r *svgRenderer) {
		if h > 0 {
			r.rowHeight = h
		}
	}
}

// WithWidth limits the width of the graph column. Zero lets the lane
// geometry decide.
func WithWidth(w float64) SVGOption { return func(r *svgRenderer) { r.width = max(w, 0) } }

// WithLabels adds the short hash, subject and author next to each row.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

func WithGeometry(g row.Geometry) SVGOption { return func(r *svgRenderer) { r.geom = g.Normalize() } }

func WithPalette(p styles.Palette) SVGOption {
	return func(r *svgRenderer) { r.palette, r.hasPalette = p, true }
}

// WithConcurrency bounds the number of rows rendered at once.
func WithConcurrency(n int) SVGOption {
	return func(r *svgRenderer) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// RenderSVG renders every row of l and stacks them into one SVG document.
func RenderSVG(l lanes.Layout, opts ...SVGOption) []byte {
	r := newSVGRenderer(l, opts...)

	graphW := r.graphWidth(l)
	totalW := graphW
	if r.labels {
		totalW += labelGap + labelWidth
	}
	totalH := r.rowHeight * float64(len(l.Rows))

	fragments := r.renderRows(l, graphW)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		totalW, totalH, totalW, totalH)
	if r.labels {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", fmt.Sprintf(labelCSS, labelFontSize))
	}
	fmt.Fprintf(&buf, `  <rect width="%.1f" height="%.1f" fill="white"/>`+"\n", totalW, totalH)
	for _, f := range fragments {
		buf.Write(f)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func newSVGRenderer(l lanes.Layout, opts ...SVGOption) svgRenderer {
	r := svgRenderer{
		rowHeight:   DefaultRowHeight,
		geom:        row.DefaultGeometry(),
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&r)
	}
	if !r.hasPalette {
		r.palette = styles.NewPalette(max(l.VisibleLaneLimit, 1))
	}
	return r
}

// graphWidth is the width every row is rendered into, so lane x positions
// line up across rows.
func (r svgRenderer) graphWidth(l lanes.Layout) float64 {
	natural := float64(max(l.VisibleMaxLaneCount, 1)) * r.geom.MaxLaneWidth
	w := min(natural, r.geom.MaxTotalWidth)
	if r.width > 0 {
		w = min(w, r.width)
	}
	return w
}

func (r svgRenderer) renderRows(l lanes.Layout, graphW float64) [][]byte {
	fragments := make([][]byte, len(l.Rows))

	var g errgroup.Group
	g.SetLimit(max(r.concurrency, 1))
	for i := range l.Rows {
		g.Go(func() error {
			fragments[i] = r.renderRow(l, i, graphW)
			return nil
		})
	}
	_ = g.Wait()
	return fragments
}

func (r svgRenderer) renderRow(l lanes.Layout, i int, graphW float64) []byte {
	lr := l.Rows[i]
	y := r.rowHeight * float64(i)
	prims := row.Render(lr, l, graphW, r.rowHeight, row.WithGeometry(r.geom))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `  <g class="row" id="row-%d" transform="translate(0,%.2f)">`+"\n", i, y)
	for _, p := range prims {
		r.writePrimitive(&buf, p)
	}
	if r.labels {
		r.writeLabel(&buf, lr, graphW)
	}
	buf.WriteString("  </g>\n")
	return buf.Bytes()
}

func (r svgRenderer) writePrimitive(buf *bytes.Buffer, p row.Primitive) {
	color := r.palette.Hex(p.LaneStyle().Lane)
	width := p.LaneStyle().Width

	switch p := p.(type) {
	case row.Line:
		fmt.Fprintf(buf, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f" stroke-linecap="round"/>`+"\n",
			p.X, p.Y1, p.X, p.Y2, color, width)
	case row.Curve:
		x1, y1, x2, y2 := p.ControlPoints()
		fmt.Fprintf(buf, `    <path d="M %.2f %.2f C %.2f %.2f, %.2f %.2f, %.2f %.2f" fill="none" stroke="%s" stroke-width="%.2f" stroke-linecap="round"/>`+"\n",
			p.FromX, p.FromY, x1, y1, x2, y2, p.ToX, p.ToY, color, width)
	case row.Circle:
		fmt.Fprintf(buf, `    <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="white" stroke-width="%.2f"/>`+"\n",
			p.X, p.Y, p.Radius, color, width)
	}
}

func (r svgRenderer) writeLabel(buf *bytes.Buffer, lr lanes.Row, graphW float64) {
	c := lr.Commit
	x, y := graphW+labelGap, r.rowHeight/2
	fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f"><tspan class="hash">%s</tspan> %s`,
		x, y, styles.EscapeXML(c.Short()), styles.EscapeXML(styles.Truncate(c.Subject(), subjectChars)))
	if c.Author != "" {
		fmt.Fprintf(buf, ` <tspan class="author">(%s)</tspan>`, styles.EscapeXML(c.Author))
	}
	buf.WriteString("</text>\n")
}
