package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/lanegraph/pkg/commit"
	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/render/row"
	"github.com/matzehuels/lanegraph/pkg/render/styles"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// Graph Cells
// =============================================================================

const (
	// cellsPerLane is the number of terminal columns per lane.
	cellsPerLane = 2

	// rowLines is the height a row is drawn at: the converge connectors,
	// the commit line and the merge connectors.
	rowLines = 3
)

// cellGeometry scales the drawing constants to terminal cells: one lane per
// two columns, one row per three lines.
func cellGeometry(limit int) row.Geometry {
	g := row.DefaultGeometry()
	g.MinLaneWidth = 1
	g.MaxLaneWidth = cellsPerLane
	g.MaxTotalWidth = float64(cellsPerLane * max(limit, 1))
	g.NodeRadius = 0.5
	g.MinNodeRadius = 0.5
	g.LineWidth = 1
	g.MinLineWidth = 1
	g.MinHeight = rowLines
	return g
}

type cell struct {
	ch   byte
	lane int
}

// graphLine is one terminal line of the graph column.
type graphLine []cell

func (l graphLine) String() string {
	b := make([]byte, len(l))
	for i, c := range l {
		b[i] = c.ch
	}
	return strings.TrimRight(string(b), " ")
}

func (l *graphLine) set(col int, ch byte, lane int, overwrite bool) {
	for len(*l) <= col {
		*l = append(*l, cell{ch: ' '})
	}
	if overwrite || (*l)[col].ch == ' ' {
		(*l)[col] = cell{ch: ch, lane: lane}
	}
}

// rasterize maps the primitives of a row drawn rowLines high with the given
// lane spacing onto character cells. The connector lines above and below the
// commit line are dropped unless a curve changes column on them. It returns the
// kept lines and the index of the commit line among them.
func rasterize(prims []row.Primitive, spacing float64) ([]graphLine, int) {
	col := func(x float64) int {
		return max(0, int(math.Floor(x-spacing/2+1e-9)))
	}
	line := func(y float64) int {
		return min(max(int(y), 0), rowLines-1)
	}

	grid := make([]graphLine, rowLines)
	var connector [rowLines]bool

	for _, p := range prims {
		lane := p.LaneStyle().Lane
		switch p := p.(type) {
		case row.Line:
			c := col(p.X)
			for k := line(math.Ceil(p.Y1)); k <= line(math.Ceil(p.Y2)-1); k++ {
				grid[k].set(c, '|', lane, false)
			}
		case row.Curve:
			k := line((p.FromY + p.ToY) / 2)
			top, bottom := col(p.FromX), col(p.ToX)
			if p.FromY > p.ToY {
				top, bottom = bottom, top
			}
			lo, hi := min(top, bottom), max(top, bottom)
			if lo == hi {
				grid[k].set(lo, '|', lane, false)
				continue
			}
			connector[k] = true
			for c := lo + 1; c < hi-1; c++ {
				grid[k].set(c, '-', lane, false)
			}
			if bottom > top {
				grid[k].set(hi-1, '\\', lane, true)
			} else {
				grid[k].set(lo+1, '/', lane, true)
			}
		case row.Circle:
			grid[line(p.Y)].set(col(p.X), '*', lane, true)
		}
	}

	node := rowLines / 2
	var kept []graphLine
	for k, gl := range grid {
		if k == node {
			node = len(kept)
			kept = append(kept, gl)
			continue
		}
		if connector[k] {
			kept = append(kept, gl)
		}
	}
	return kept, node
}

// =============================================================================
// GraphModel - Interactive lane graph viewer
// =============================================================================

// graphRow is a layout row bound to a terminal-sized view and its last
// rasterization.
type graphRow struct {
	view  *row.View
	lines []graphLine
	node  int
}

// GraphModel is the bubbletea model of the view command. Every row keeps a
// [row.View]; terminal resizes are forwarded to it and only rows whose
// drawing actually changed are rasterized again.
type GraphModel struct {
	Title  string
	Cursor int
	Offset int
	Width  int
	Height int

	layout      lanes.Layout
	rows        []graphRow
	geom        row.Geometry
	laneStyles  []lipgloss.Style
	cols        int
	showMessage bool
	now         func() time.Time
}

// NewGraphModel creates a viewer for l sized for an 80x24 terminal until
// the first resize arrives.
func NewGraphModel(l lanes.Layout, title string, palette styles.Palette) GraphModel {
	limit := l.VisibleLaneLimit
	if limit < 1 {
		limit = lanes.DefaultVisibleLaneLimit
	}
	m := GraphModel{
		Title:  title,
		layout: l,
		rows:   make([]graphRow, len(l.Rows)),
		geom:   cellGeometry(limit),
		now:    time.Now,
	}
	for i := range limit {
		m.laneStyles = append(m.laneStyles, lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Hex(i))))
	}
	for i, r := range l.Rows {
		m.rows[i].view = row.NewView(r, l, m.geom.MaxTotalWidth, row.WithGeometry(m.geom))
	}
	m.resize(80, 24)
	return m
}

func (m GraphModel) Init() tea.Cmd {
	return nil
}

func (m GraphModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup", "b":
			m.move(-m.bodyHeight())
		case "pgdown", " ", "f":
			m.move(m.bodyHeight())
		case "home", "g":
			m.move(-len(m.rows))
		case "end", "G":
			m.move(len(m.rows))
		case "enter":
			m.showMessage = !m.showMessage
			m.move(0)
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	}
	return m, nil
}

// resize forwards the new terminal size to every row view and returns how
// many rows were redrawn.
func (m *GraphModel) resize(width, height int) int {
	m.Width, m.Height = width, height
	graphWidth := min(m.geom.MaxTotalWidth, max(cellsPerLane, float64(width/3)))

	redrawn := 0
	for i := range m.rows {
		r := &m.rows[i]
		prims, changed := r.view.HandleResize(row.SizeEvent{Width: graphWidth, Height: rowLines})
		if !changed && r.lines != nil {
			continue
		}
		metrics := row.Measure(r.view.Row(), m.layout, graphWidth, row.WithGeometry(m.geom))
		r.lines, r.node = rasterize(prims, metrics.Spacing)
		redrawn++
	}

	m.cols = 0
	for _, r := range m.rows {
		for _, gl := range r.lines {
			m.cols = max(m.cols, len(gl))
		}
	}
	m.move(0)
	return redrawn
}

// move shifts the cursor by delta rows and scrolls it into view.
func (m *GraphModel) move(delta int) {
	if len(m.rows) == 0 {
		m.Cursor, m.Offset = 0, 0
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.rows)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	body := m.bodyHeight()
	for m.Offset < m.Cursor && m.linesBetween(m.Offset, m.Cursor) > body {
		m.Offset++
	}
}

// linesBetween counts the terminal lines of rows from..to inclusive.
func (m *GraphModel) linesBetween(from, to int) int {
	n := 0
	for i := from; i <= to && i < len(m.rows); i++ {
		n += len(m.rows[i].lines)
	}
	return n
}

// bodyHeight is the number of lines available for the graph.
func (m *GraphModel) bodyHeight() int {
	chrome := 4 // title, blank, blank, footer
	if m.showMessage {
		chrome += m.detailHeight()
	}
	return max(m.Height-chrome, 1)
}

func (m GraphModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d commits · %d lanes", len(m.rows), m.layout.MaxLaneCount)))
	b.WriteString("\n\n")

	body := m.bodyHeight()
	used := 0
	for i := m.Offset; i < len(m.rows) && used < body; i++ {
		r := m.rows[i]
		for j, gl := range r.lines {
			if used >= body {
				break
			}
			b.WriteString(m.paint(gl))
			if j == r.node {
				b.WriteString(" ")
				b.WriteString(m.label(i))
			}
			b.WriteString("\n")
			used++
		}
	}
	for ; used < body; used++ {
		b.WriteString("\n")
	}

	if m.showMessage && len(m.rows) > 0 {
		b.WriteString(m.detail())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  ↑/↓ navigate  ⏎ details  q quit", m.Cursor+1, len(m.rows))))

	return b.String()
}

// paint colours a graph line by lane and pads it to the graph column width.
func (m GraphModel) paint(gl graphLine) string {
	var b strings.Builder
	for _, c := range gl {
		if c.ch == ' ' {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(m.laneStyles[min(max(c.lane, 0), len(m.laneStyles)-1)].Render(string(c.ch)))
	}
	if pad := m.cols - len(gl); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	return b.String()
}

// label renders the short hash, subject, author and age of row i.
func (m GraphModel) label(i int) string {
	c := m.rows[i].view.Row().Commit
	room := max(m.Width-m.cols-40, 16)
	subject := styles.Truncate(c.Subject(), room)
	meta := c.Author
	if age := formatRelativeTime(c.Date, m.now()); age != "" {
		if meta != "" {
			meta += ", "
		}
		meta += age
	}

	if i == m.Cursor {
		return listSelectedStyle.Render(strings.TrimSpace(fmt.Sprintf("▸ %s %s  %s", c.Short(), subject, meta)))
	}
	return StyleHighlight.Render(c.Short()) + " " + listNormalStyle.Render(subject) + "  " + listDimStyle.Render(meta)
}

// detail renders the full message of the selected commit.
func (m GraphModel) detail() string {
	return detailBoxStyle.Width(max(m.Width-4, 20)).Render(m.detailText(m.rows[m.Cursor].view.Row().Commit))
}

func (m GraphModel) detailText(c commit.Commit) string {
	var b strings.Builder
	b.WriteString(StyleHighlight.Render(c.Hash))
	if len(c.Parents) > 0 {
		b.WriteString(listDimStyle.Render("  parents " + strings.Join(c.Parents, " ")))
	}
	b.WriteString("\n")
	if c.Author != "" || c.Date != "" {
		b.WriteString(listDimStyle.Render(strings.TrimSpace(c.Author + "  " + c.Date)))
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimRight(c.Message, "\n"))
	return b.String()
}

// detailHeight is the height of the detail box including its border.
func (m *GraphModel) detailHeight() int {
	if len(m.rows) == 0 {
		return 0
	}
	return lipgloss.Height(m.detail()) + 1
}

// =============================================================================
// Helpers
// =============================================================================

// formatRelativeTime renders an RFC 3339 date relative to now. Dates that do
// not parse are returned unchanged.
func formatRelativeTime(s string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}

	diff := now.Sub(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", max(int(diff.Minutes()), 0))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
