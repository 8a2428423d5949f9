package sink

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/render/row"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	primitives bool
	width      float64
	rowHeight  float64
	geom       row.Geometry
	indent     bool
}

// WithJSONPrimitives adds the drawing primitives of every row, rendered
// into a width x rowHeight box, so clients can draw without reimplementing
// the geometry.
func WithJSONPrimitives(width, rowHeight float64) JSONOption {
	return func(r *jsonRenderer) {
		r.primitives = true
		r.width, r.rowHeight = width, rowHeight
	}
}

func WithJSONGeometry(g row.Geometry) JSONOption {
	return func(r *jsonRenderer) { r.geom = g.Normalize() }
}

// WithJSONIndent pretty-prints the output.
func WithJSONIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

type jsonOutput struct {
	lanes.Layout
	Primitives [][]jsonPrimitive `json:"primitives,omitempty"`
}

type jsonPrimitive struct {
	Type      string   `json:"type"`
	Lane      int      `json:"lane"`
	Width     float64  `json:"width"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Y1        *float64 `json:"y1,omitempty"`
	Y2        *float64 `json:"y2,omitempty"`
	FromX     *float64 `json:"from_x,omitempty"`
	FromY     *float64 `json:"from_y,omitempty"`
	ToX       *float64 `json:"to_x,omitempty"`
	ToY       *float64 `json:"to_y,omitempty"`
	Curvature *float64 `json:"curvature,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
}

// RenderJSON serialises the layout. Free lane slots are written as "".
func RenderJSON(l lanes.Layout, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{rowHeight: DefaultRowHeight, geom: row.DefaultGeometry()}
	for _, opt := range opts {
		opt(&r)
	}

	if l.Rows == nil {
		l.Rows = []lanes.Row{}
	}
	out := jsonOutput{Layout: l}
	if r.primitives {
		out.Primitives = make([][]jsonPrimitive, len(l.Rows))
		for i, lr := range l.Rows {
			for _, p := range row.Render(lr, l, r.width, r.rowHeight, row.WithGeometry(r.geom)) {
				out.Primitives[i] = append(out.Primitives[i], toJSONPrimitive(p))
			}
		}
	}

	if r.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// ReadLayoutJSON decodes a layout written by [RenderJSON].
func ReadLayoutJSON(rd io.Reader) (lanes.Layout, error) {
	var l lanes.Layout
	if err := json.NewDecoder(rd).Decode(&l); err != nil {
		return lanes.Layout{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode layout")
	}
	return l, nil
}

func toJSONPrimitive(p row.Primitive) jsonPrimitive {
	s := p.LaneStyle()
	out := jsonPrimitive{Lane: s.Lane, Width: s.Width}
	switch p := p.(type) {
	case row.Line:
		out.Type = "line"
		out.X, out.Y1, out.Y2 = &p.X, &p.Y1, &p.Y2
	case row.Curve:
		out.Type = "curve"
		out.FromX, out.FromY, out.ToX, out.ToY = &p.FromX, &p.FromY, &p.ToX, &p.ToY
		out.Curvature = &p.Curvature
	case row.Circle:
		out.Type = "circle"
		out.X, out.Y, out.Radius = &p.X, &p.Y, &p.Radius
	}
	return out
}
