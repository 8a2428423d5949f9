package sink

import (
	"strings"

	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/render/styles"
)

// TextOption configures [RenderText].
type TextOption func(*textRenderer)

type textRenderer struct {
	labels  bool
	subject int
}

// WithTextLabels appends the short hash and subject to every commit line.
func WithTextLabels() TextOption { return func(r *textRenderer) { r.labels = true } }

// WithSubjectWidth truncates subjects to n characters (default 72).
func WithSubjectWidth(n int) TextOption {
	return func(r *textRenderer) {
		if n > 0 {
			r.subject = n
		}
	}
}

// RenderText draws l as an ASCII graph. Each row produces its commit line
// plus a connector line above it when branches converge into the commit
// and one below it when the commit opens merge lanes.
func RenderText(l lanes.Layout, opts ...TextOption) string {
	r := textRenderer{subject: 72}
	for _, opt := range opts {
		opt(&r)
	}

	var b strings.Builder
	for _, lr := range l.Rows {
		for _, line := range r.lines(lr, l) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// lines returns the text lines of one row. The commit line is padded
// to the row's lane width when labels are enabled.
func (r textRenderer) lines(lr lanes.Row, l lanes.Layout) []string {
	g := newTextGrid(lr, l)

	var lines []string
	if pre := g.convergeLine(); pre != "" {
		lines = append(lines, pre)
	}

	node := g.nodeLine()
	if r.labels {
		node = padRight(node, g.cols) + " " + lr.Commit.Short()
		if s := lr.Commit.Subject(); s != "" {
			node += " " + styles.Truncate(s, r.subject)
		}
	}
	lines = append(lines, node)

	if post := g.mergeLine(); post != "" {
		lines = append(lines, post)
	}
	return lines
}

// RowLines returns the text lines of a single row, as written by
// [RenderText], so rows can be redrawn independently.
func RowLines(lr lanes.Row, l lanes.Layout, opts ...TextOption) []string {
	r := textRenderer{subject: 72}
	for _, opt := range opts {
		opt(&r)
	}
	return r.lines(lr, l)
}

// textGrid holds one row's lane occupancy clamped to the visible lanes.
type textGrid struct {
	cols       int
	own        int
	before     []bool
	after      []bool
	converging []bool
	assigned   []int
}

func newTextGrid(lr lanes.Row, l lanes.Layout) textGrid {
	limit := l.VisibleLaneLimit
	if limit < 1 {
		limit = lanes.DefaultVisibleLaneLimit
	}
	clamp := func(i int) int { return min(max(i, 0), limit-1) }

	n := max(min(l.VisibleMaxLaneCount, limit), clamp(lr.LaneIndex)+1, 1)
	g := textGrid{
		own:        clamp(lr.LaneIndex),
		before:     make([]bool, limit),
		after:      make([]bool, limit),
		converging: make([]bool, limit),
	}
	for i := range max(len(lr.LanesBefore), len(lr.LanesAfter)) {
		if lr.OccupiedBefore(i) {
			g.before[clamp(i)] = true
			n = max(n, clamp(i)+1)
		}
		if lr.OccupiedAfter(i) {
			g.after[clamp(i)] = true
			n = max(n, clamp(i)+1)
		}
	}
	for _, cl := range lr.Converging {
		if c := clamp(cl); c != g.own {
			g.converging[c] = true
		}
	}
	for _, pa := range lr.ParentAssignments {
		lane := clamp(pa.Lane)
		g.assigned = append(g.assigned, lane)
		n = max(n, lane+1)
	}
	g.cols = 2*n - 1
	g.before, g.after, g.converging = g.before[:n], g.after[:n], g.converging[:n]
	return g
}

func (g textGrid) blank() []byte {
	return []byte(strings.Repeat(" ", g.cols))
}

func (g textGrid) through(i int) bool { return g.before[i] && !g.converging[i] }

func (g textGrid) nodeLine() string {
	line := g.blank()
	for i := range g.before {
		if g.through(i) {
			line[2*i] = '|'
		}
	}
	line[2*g.own] = '*'
	return trimRight(line)
}

func (g textGrid) convergeLine() string {
	line := g.blank()
	found := false
	for i := range g.before {
		switch {
		case g.converging[i]:
			found = true
			diagonal(line, i, g.own)
		case g.through(i) || i == g.own:
			if line[2*i] == ' ' {
				line[2*i] = '|'
			}
		}
	}
	if !found {
		return ""
	}
	return trimRight(line)
}

func (g textGrid) mergeLine() string {
	if len(g.assigned) == 0 {
		return ""
	}
	line := g.blank()
	for i := range g.after {
		if g.after[i] {
			line[2*i] = '|'
		}
	}
	for _, lane := range g.assigned {
		if lane != g.own {
			diagonal(line, g.own, lane)
		}
	}
	return trimRight(line)
}

// diagonal draws a connector between the cells of lanes from and to,
// running downwards from from to to.
func diagonal(line []byte, from, to int) {
	lo, hi := min(from, to), max(from, to)
	for c := 2*lo + 1; c < 2*hi-1; c++ {
		if line[c] == ' ' {
			line[c] = '-'
		}
	}
	if to > from {
		line[2*hi-1] = '\\'
	} else {
		line[2*lo+1] = '/'
	}
}

func trimRight(b []byte) string {
	return strings.TrimRight(string(b), " ")
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
