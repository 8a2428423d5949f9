package row

// Primitive is a backend independent drawing instruction.
// It is one of [Line], [Curve] or [Circle].
type Primitive interface {
	// LaneStyle returns the lane and stroke the primitive is drawn with.
	LaneStyle() Style
	isPrimitive()
}

// Style carries the visible lane a primitive belongs to (for colouring)
// and the stroke width.
type Style struct {
	Lane  int     `json:"lane"`
	Width float64 `json:"width"`
}

// Line is a vertical lane segment at X from Y1 to Y2.
type Line struct {
	X, Y1, Y2 float64
	Style     Style
}

// Curve is a cubic connector from (FromX, FromY) to (ToX, ToY). Both control
// points sit Curvature units vertically inside the segment, so the curve
// leaves and enters vertically.
type Curve struct {
	FromX, FromY float64
	ToX, ToY     float64
	Curvature    float64
	Style        Style
}

// Circle is the commit node marker.
type Circle struct {
	X, Y, Radius float64
	Style        Style
}

func (l Line) LaneStyle() Style   { return l.Style }
func (c Curve) LaneStyle() Style  { return c.Style }
func (c Circle) LaneStyle() Style { return c.Style }

func (Line) isPrimitive()   {}
func (Curve) isPrimitive()  {}
func (Circle) isPrimitive() {}

// ControlPoints returns the two bezier control points of c.
func (c Curve) ControlPoints() (x1, y1, x2, y2 float64) {
	dir := 1.0
	if c.ToY < c.FromY {
		dir = -1
	}
	return c.FromX, c.FromY + dir*c.Curvature, c.ToX, c.ToY - dir*c.Curvature
}
