package row

import (
	"math"
	"sync"

	"github.com/matzehuels/lanegraph/pkg/lanes"
)

// SizeEvent reports a new container size for a row.
type SizeEvent struct {
	Width, Height float64
}

// View is a row bound to a drawing surface. It remembers the size it last
// drew at and ignores resize notifications that do not move either
// dimension by at least the geometry's ResizeEpsilon.
//
// A View is safe for concurrent use.
type View struct {
	row    lanes.Row
	layout lanes.Layout
	geom   Geometry

	mu     sync.Mutex
	width  float64
	height float64
	drawn  bool
	prims  []Primitive
}

// NewView binds r to a surface of the given width.
func NewView(r lanes.Row, l lanes.Layout, width float64, opts ...Option) *View {
	return &View{row: r, layout: l, geom: geometryOf(opts), width: width}
}

// Draw renders the row at the current width and the given height.
func (v *View) Draw(height float64) []Primitive {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.drawLocked(v.width, height)
}

// HandleResize redraws the row if ev differs from the last drawn size by
// at least ResizeEpsilon in either dimension. It returns the current
// primitives and whether a redraw happened.
func (v *View) HandleResize(ev SizeEvent) ([]Primitive, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.drawn &&
		math.Abs(ev.Width-v.width) < v.geom.ResizeEpsilon &&
		math.Abs(ev.Height-v.height) < v.geom.ResizeEpsilon {
		return v.prims, false
	}
	return v.drawLocked(ev.Width, ev.Height), true
}

// Size returns the last drawn size.
func (v *View) Size() (width, height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

// Row returns the row the view draws.
func (v *View) Row() lanes.Row { return v.row }

func (v *View) drawLocked(width, height float64) []Primitive {
	v.width, v.height = width, height
	v.prims = render(v.row, v.layout, width, height, v.geom)
	v.drawn = true
	return v.prims
}
