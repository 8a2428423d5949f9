package row

import (
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/lanegraph/pkg/commit"
	"github.com/matzehuels/lanegraph/pkg/lanes"
)

func c(hash string, parents ...string) commit.Commit {
	return commit.Commit{Hash: hash, Parents: parents}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRenderLinear(t *testing.T) {
	l := lanes.Build([]commit.Commit{c("A", "B"), c("B")})

	prims := Render(l.Rows[0], l, 200, 24)
	want := []Primitive{
		Line{X: 8, Y1: 0, Y2: 24, Style: Style{Lane: 0, Width: 2}},
		Circle{X: 8, Y: 12, Radius: 4, Style: Style{Lane: 0, Width: 2}},
	}
	if !reflect.DeepEqual(prims, want) {
		t.Errorf("Render() = %#v, want %#v", prims, want)
	}

	// The root row ends its lane at the node.
	prims = Render(l.Rows[1], l, 200, 24)
	if line, ok := prims[0].(Line); !ok || line.Y1 != 0 || line.Y2 != 12 {
		t.Errorf("root row line = %#v, want top half", prims[0])
	}
}

func TestRenderMerge(t *testing.T) {
	l := lanes.Build([]commit.Commit{c("M", "A", "B"), c("A", "C"), c("B", "C"), c("C")})

	// Lane 1 opens at the merge: it gets a bottom half next to the connector.
	prims := Render(l.Rows[0], l, 200, 24)
	want := []Primitive{
		Line{X: 8, Y1: 0, Y2: 24, Style: Style{Lane: 0, Width: 2}},
		Line{X: 24, Y1: 12, Y2: 24, Style: Style{Lane: 1, Width: 2}},
		Curve{FromX: 8, FromY: 12, ToX: 24, ToY: 24, Curvature: 16 * 0.85, Style: Style{Lane: 1, Width: 2}},
		Circle{X: 8, Y: 12, Radius: 4, Style: Style{Lane: 0, Width: 2}},
	}
	if !reflect.DeepEqual(prims, want) {
		t.Errorf("Render() = %#v, want %#v", prims, want)
	}
}

func TestRenderBottomHalfFollowsLanesAfter(t *testing.T) {
	histories := map[string][]commit.Commit{
		"merge":   {c("M", "A", "B"), c("A", "C"), c("B", "C"), c("C")},
		"octopus": {c("O", "a", "b", "c"), c("a"), c("b"), c("c")},
		"branch":  {c("X", "Z"), c("Y", "Z"), c("Z")},
	}
	for name, commits := range histories {
		l := lanes.Build(commits)
		for _, r := range l.Rows {
			m := Measure(r, l, 200)
			bottom := make(map[int]bool)
			for _, p := range Render(r, l, 200, 24) {
				if line, ok := p.(Line); ok && line.Y2 == 24 {
					bottom[line.Style.Lane] = true
				}
			}
			for i := range r.LanesAfter {
				if r.OccupiedAfter(i) && !bottom[m.Clamp(i)] {
					t.Errorf("%s row %s: lane %d occupied after but has no bottom half", name, r.Commit.Hash, i)
				}
			}
		}
	}
}

func TestRenderConverging(t *testing.T) {
	l := lanes.Build([]commit.Commit{c("M", "A", "B"), c("A", "C"), c("B", "C"), c("C")})

	prims := Render(l.Rows[3], l, 200, 24)
	want := []Primitive{
		Line{X: 8, Y1: 0, Y2: 12, Style: Style{Lane: 0, Width: 2}},
		Curve{FromX: 24, FromY: 0, ToX: 8, ToY: 12, Curvature: 16 * 0.85, Style: Style{Lane: 1, Width: 2}},
		Circle{X: 8, Y: 12, Radius: 4, Style: Style{Lane: 0, Width: 2}},
	}
	if !reflect.DeepEqual(prims, want) {
		t.Errorf("Render() = %#v, want %#v", prims, want)
	}
}

func TestRenderOrder(t *testing.T) {
	l := lanes.Build([]commit.Commit{c("O", "a", "b", "c", "d"), c("a"), c("b"), c("c"), c("d")})
	for _, r := range l.Rows {
		prims := Render(r, l, 100, 20)
		stage := 0
		for i, p := range prims {
			var s int
			switch p.(type) {
			case Line:
				s = 0
			case Curve:
				s = 1
			case Circle:
				s = 2
				if i != len(prims)-1 {
					t.Errorf("%s: circle at %d, want last", r.Commit.Hash, i)
				}
			}
			if s < stage {
				t.Errorf("%s: %T after later stage", r.Commit.Hash, p)
			}
			stage = s
		}
	}
}

func TestRenderIdempotent(t *testing.T) {
	l := lanes.Build([]commit.Commit{c("M", "A", "B"), c("A", "C"), c("B", "C"), c("C")})
	for _, r := range l.Rows {
		a := Render(r, l, 90, 24)
		b := Render(r, l, 90, 24)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: Render not deterministic", r.Commit.Hash)
		}
	}
}

func TestRenderClampsOverflow(t *testing.T) {
	parents := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"}
	commits := []commit.Commit{c("O", parents...)}
	for _, p := range parents {
		commits = append(commits, c(p))
	}

	for _, limit := range []int{1, 3, 7} {
		l := lanes.Build(commits, lanes.WithVisibleLaneLimit(limit))
		for _, r := range l.Rows {
			m := Measure(r, l, 400)
			if m.Capacity < 1 || m.Capacity > limit {
				t.Errorf("limit %d: capacity = %d", limit, m.Capacity)
			}
			for _, p := range Render(r, l, 400, 24) {
				if lane := p.LaneStyle().Lane; lane < 0 || lane >= limit {
					t.Errorf("limit %d row %s: lane %d out of range", limit, r.Commit.Hash, lane)
				}
			}
		}
	}
}

func TestRenderDegenerateSizes(t *testing.T) {
	l := lanes.Build([]commit.Commit{c("M", "A", "B"), c("A"), c("B")})
	for _, size := range []struct{ w, h float64 }{
		{0, 0}, {-10, -10}, {1, 1}, {math.Inf(1), math.NaN()},
	} {
		prims := Render(l.Rows[0], l, size.w, size.h)
		if len(prims) == 0 {
			t.Fatalf("size %v: no primitives", size)
		}
		circle := prims[len(prims)-1].(Circle)
		if math.IsNaN(circle.X) || math.IsNaN(circle.Y) || math.IsInf(circle.X, 0) {
			t.Errorf("size %v: circle = %#v", size, circle)
		}
		if circle.Y <= 0 {
			t.Errorf("size %v: circle.Y = %v, want > 0", size, circle.Y)
		}
	}
}

func TestRenderEmptyRow(t *testing.T) {
	prims := Render(lanes.Row{}, lanes.Layout{}, 0, 0)
	if len(prims) != 2 {
		t.Fatalf("len(prims) = %d, want 2", len(prims))
	}
}

func TestMeasure(t *testing.T) {
	wide := lanes.Layout{VisibleMaxLaneCount: 7, VisibleLaneLimit: 7}
	eight := lanes.Layout{VisibleMaxLaneCount: 8, VisibleLaneLimit: 8}

	tests := []struct {
		name        string
		layout      lanes.Layout
		width       float64
		wantCap     int
		wantSpacing float64
		wantRadius  float64
		wantStroke  float64
	}{
		{"SingleLane", lanes.Layout{}, 200, 1, 16, 4, 2},
		{"Unbounded", wide, 0, 7, 16, 4, 2},
		{"Dense", eight, 0, 8, 14, 3.5, 1.75},
		{"MinSpacing", eight, 64, 8, 8, 2, 1},
		{"TooNarrow", wide, 24, 7, 24.0 / 7, 2, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Measure(lanes.Row{}, tt.layout, tt.width)
			if m.Capacity != tt.wantCap {
				t.Errorf("Capacity = %d, want %d", m.Capacity, tt.wantCap)
			}
			if !near(m.Spacing, tt.wantSpacing) {
				t.Errorf("Spacing = %v, want %v", m.Spacing, tt.wantSpacing)
			}
			if !near(m.Radius, tt.wantRadius) {
				t.Errorf("Radius = %v, want %v", m.Radius, tt.wantRadius)
			}
			if !near(m.Stroke, tt.wantStroke) {
				t.Errorf("Stroke = %v, want %v", m.Stroke, tt.wantStroke)
			}
			if m.TotalWidth > max(tt.width, 0)+1e-9 && tt.width > 0 {
				t.Errorf("TotalWidth = %v exceeds %v", m.TotalWidth, tt.width)
			}
		})
	}
}

func TestCurvature(t *testing.T) {
	g := DefaultGeometry()
	if got := curvature(16, 16, g); !near(got, 13.6) {
		t.Errorf("short curvature = %v, want 13.6", got)
	}
	if got := curvature(-96, 16, g); !near(got, 33.6) {
		t.Errorf("long curvature = %v, want 33.6", got)
	}
}

func TestCurveControlPoints(t *testing.T) {
	down := Curve{FromX: 0, FromY: 0, ToX: 10, ToY: 20, Curvature: 5}
	x1, y1, x2, y2 := down.ControlPoints()
	if x1 != 0 || y1 != 5 || x2 != 10 || y2 != 15 {
		t.Errorf("down = %v %v %v %v", x1, y1, x2, y2)
	}

	up := Curve{FromX: 0, FromY: 20, ToX: 10, ToY: 0, Curvature: 5}
	x1, y1, x2, y2 = up.ControlPoints()
	if x1 != 0 || y1 != 15 || x2 != 10 || y2 != 5 {
		t.Errorf("up = %v %v %v %v", x1, y1, x2, y2)
	}
}

func TestGeometryNormalize(t *testing.T) {
	g := Geometry{MinLaneWidth: 20, MaxLaneWidth: 10, NodeRadius: -1}.Normalize()
	if g.MinLaneWidth != 10 || g.MaxLaneWidth != 20 {
		t.Errorf("lane widths = %v..%v, want 10..20", g.MinLaneWidth, g.MaxLaneWidth)
	}
	if g.NodeRadius != DefaultGeometry().NodeRadius {
		t.Errorf("NodeRadius = %v, want default", g.NodeRadius)
	}
}

func TestWithGeometry(t *testing.T) {
	g := DefaultGeometry()
	g.MaxLaneWidth = 32
	g.MaxTotalWidth = 320

	m := Measure(lanes.Row{}, lanes.Layout{}, 0, WithGeometry(g))
	if m.Spacing != 32 {
		t.Errorf("Spacing = %v, want 32", m.Spacing)
	}
}
