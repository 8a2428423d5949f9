// Package row turns one lane layout row into drawing primitives.
//
// [Render] is a pure function of a [lanes.Row], the [lanes.Layout] it
// belongs to and the available drawing area. It clamps lanes to the
// layout's visible lane limit, derives lane spacing, node radius and
// stroke width from lane density, and emits [Line], [Curve] and [Circle]
// primitives in lane coordinates. Rows are independent and can be rendered
// in any order or concurrently.
//
// [View] keeps the last drawn size of a row so a host can forward container
// resize notifications and only redraw when the size actually changed.
package row

import (
	"math"

	"github.com/matzehuels/lanegraph/pkg/lanes"
)

// Geometry holds the tunable drawing constants.
type Geometry struct {
	MinLaneWidth  float64 `toml:"min_lane_width" json:"min_lane_width"`
	MaxLaneWidth  float64 `toml:"max_lane_width" json:"max_lane_width"`
	MaxTotalWidth float64 `toml:"max_total_width" json:"max_total_width"`
	NodeRadius    float64 `toml:"node_radius" json:"node_radius"`
	MinNodeRadius float64 `toml:"min_node_radius" json:"min_node_radius"`
	LineWidth     float64 `toml:"line_width" json:"line_width"`
	MinLineWidth  float64 `toml:"min_line_width" json:"min_line_width"`

	// CurveFactor scales the horizontal distance of a connector into its
	// curvature; CurveMinFactor scales lane spacing into the lower bound.
	CurveFactor    float64 `toml:"curve_factor" json:"curve_factor"`
	CurveMinFactor float64 `toml:"curve_min_factor" json:"curve_min_factor"`

	// ResizeEpsilon is the smallest size change that triggers a redraw.
	ResizeEpsilon float64 `toml:"resize_epsilon" json:"resize_epsilon"`

	// MinHeight is the smallest row height drawn.
	MinHeight float64 `toml:"min_height" json:"min_height"`
}

// DefaultGeometry returns the default drawing constants.
func DefaultGeometry() Geometry {
	return Geometry{
		MinLaneWidth:   8,
		MaxLaneWidth:   16,
		MaxTotalWidth:  16 * lanes.DefaultVisibleLaneLimit,
		NodeRadius:     4,
		MinNodeRadius:  2,
		LineWidth:      2,
		MinLineWidth:   0.75,
		CurveFactor:    0.35,
		CurveMinFactor: 0.85,
		ResizeEpsilon:  0.5,
		MinHeight:      1,
	}
}

// Normalize replaces non-positive fields with their defaults and orders
// the min/max pairs.
func (g Geometry) Normalize() Geometry {
	d := DefaultGeometry()
	fill := func(v *float64, def float64) {
		if *v <= 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = def
		}
	}
	fill(&g.MinLaneWidth, d.MinLaneWidth)
	fill(&g.MaxLaneWidth, d.MaxLaneWidth)
	fill(&g.MaxTotalWidth, d.MaxTotalWidth)
	fill(&g.NodeRadius, d.NodeRadius)
	fill(&g.MinNodeRadius, d.MinNodeRadius)
	fill(&g.LineWidth, d.LineWidth)
	fill(&g.MinLineWidth, d.MinLineWidth)
	fill(&g.CurveFactor, d.CurveFactor)
	fill(&g.CurveMinFactor, d.CurveMinFactor)
	fill(&g.ResizeEpsilon, d.ResizeEpsilon)
	fill(&g.MinHeight, d.MinHeight)
	if g.MinLaneWidth > g.MaxLaneWidth {
		g.MinLaneWidth, g.MaxLaneWidth = g.MaxLaneWidth, g.MinLaneWidth
	}
	return g
}

// Option configures [Render], [Measure] and [NewView].
type Option func(*Geometry)

// WithGeometry replaces the drawing constants.
func WithGeometry(g Geometry) Option {
	return func(dst *Geometry) { *dst = g }
}

func geometryOf(opts []Option) Geometry {
	g := DefaultGeometry()
	for _, opt := range opts {
		opt(&g)
	}
	return g.Normalize()
}

// Metrics describes the horizontal geometry of a row.
type Metrics struct {
	// Capacity is the number of lane columns drawn (at least 1).
	Capacity int
	// Limit is the visible lane limit lanes are clamped to.
	Limit      int
	Spacing    float64
	TotalWidth float64
	Radius     float64
	Stroke     float64
}

// LaneX returns the horizontal centre of lane i.
func (m Metrics) LaneX(i int) float64 {
	return m.Spacing*float64(i) + m.Spacing/2
}

// Clamp maps a lane index onto the visible columns.
func (m Metrics) Clamp(i int) int {
	return min(max(i, 0), m.Limit-1)
}

// Measure derives the lane spacing and marker sizes of r for the given
// available width. A non-positive width means "unbounded" and falls back
// to the geometry's MaxTotalWidth.
func Measure(r lanes.Row, l lanes.Layout, width float64, opts ...Option) Metrics {
	return measure(r, l, width, geometryOf(opts))
}

func measure(r lanes.Row, l lanes.Layout, width float64, g Geometry) Metrics {
	m := Metrics{Limit: l.VisibleLaneLimit}
	if m.Limit < 1 {
		m.Limit = lanes.DefaultVisibleLaneLimit
	}

	capacity := max(1, m.Clamp(r.LaneIndex)+1, min(l.VisibleMaxLaneCount, m.Limit))
	for i := range max(len(r.LanesBefore), len(r.LanesAfter)) {
		if r.OccupiedBefore(i) || r.OccupiedAfter(i) {
			capacity = max(capacity, m.Clamp(i)+1)
		}
	}
	for _, pa := range r.ParentAssignments {
		capacity = max(capacity, m.Clamp(pa.Lane)+1)
	}
	for _, cl := range r.Converging {
		capacity = max(capacity, m.Clamp(cl)+1)
	}
	m.Capacity = capacity

	maxTotal := g.MaxTotalWidth
	if width > 0 && !math.IsInf(width, 0) {
		maxTotal = min(maxTotal, width)
	}

	n := float64(capacity)
	spacing := max(min(maxTotal/n, g.MaxLaneWidth), g.MinLaneWidth)
	if spacing*n > maxTotal {
		spacing = maxTotal / n
	}
	m.Spacing = spacing
	m.TotalWidth = spacing * n

	scale := spacing / g.MaxLaneWidth
	m.Radius = max(g.MinNodeRadius, g.NodeRadius*scale)
	m.Stroke = max(g.MinLineWidth, g.LineWidth*scale)
	return m
}

// Render draws r into a width x height box. Lines come first, then
// connectors, then the node marker, so painting in order puts the node on
// top. Render never fails: out of range lanes are clamped and degenerate
// sizes are replaced by minimums.
func Render(r lanes.Row, l lanes.Layout, width, height float64, opts ...Option) []Primitive {
	return render(r, l, width, height, geometryOf(opts))
}

func render(r lanes.Row, l lanes.Layout, width, height float64, g Geometry) []Primitive {
	m := measure(r, l, width, g)
	if !(height >= g.MinHeight) || math.IsInf(height, 0) {
		height = g.MinHeight
	}

	own := m.Clamp(r.LaneIndex)
	cx, cy := m.LaneX(own), height/2

	before := make([]bool, m.Capacity)
	after := make([]bool, m.Capacity)
	converging := make([]bool, m.Capacity)
	for i := range max(len(r.LanesBefore), len(r.LanesAfter)) {
		if r.OccupiedBefore(i) {
			before[m.Clamp(i)] = true
		}
		if r.OccupiedAfter(i) {
			after[m.Clamp(i)] = true
		}
	}
	for _, cl := range r.Converging {
		if c := m.Clamp(cl); c != own {
			converging[c] = true
		}
	}

	var prims []Primitive
	for i := range m.Capacity {
		x := m.LaneX(i)
		style := Style{Lane: i, Width: m.Stroke}

		// Converging lanes bend into the node instead of a top half. A lane
		// opened by a merge still gets its bottom half next to the connector.
		through := before[i] && !converging[i]
		top := through || i == own
		bottom := after[i]

		switch {
		case top && bottom:
			prims = append(prims, Line{X: x, Y1: 0, Y2: height, Style: style})
		case top:
			prims = append(prims, Line{X: x, Y1: 0, Y2: cy, Style: style})
		case bottom:
			prims = append(prims, Line{X: x, Y1: cy, Y2: height, Style: style})
		}
	}

	for i := range m.Capacity {
		if !converging[i] {
			continue
		}
		x := m.LaneX(i)
		prims = append(prims, Curve{
			FromX: x, FromY: 0,
			ToX: cx, ToY: cy,
			Curvature: curvature(x-cx, m.Spacing, g),
			Style:     Style{Lane: i, Width: m.Stroke},
		})
	}

	for _, pa := range r.ParentAssignments {
		lane := m.Clamp(pa.Lane)
		x := m.LaneX(lane)
		prims = append(prims, Curve{
			FromX: cx, FromY: cy,
			ToX: x, ToY: height,
			Curvature: curvature(x-cx, m.Spacing, g),
			Style:     Style{Lane: lane, Width: m.Stroke},
		})
	}

	return append(prims, Circle{X: cx, Y: cy, Radius: m.Radius, Style: Style{Lane: own, Width: m.Stroke}})
}

func curvature(dx, spacing float64, g Geometry) float64 {
	return max(math.Abs(dx)*g.CurveFactor, spacing*g.CurveMinFactor)
}
