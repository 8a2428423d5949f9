package lanes

import (
	"slices"

	"github.com/matzehuels/lanegraph/pkg/commit"
)

// DefaultVisibleLaneLimit is the default cap on simultaneously drawn lanes.
const DefaultVisibleLaneLimit = 7

// Free marks an unreserved slot in a lane table.
const Free = ""

// ParentAssignment records that a merge parent must be reached by a
// connector ending in Lane.
type ParentAssignment struct {
	ParentHash string `json:"parent"`
	Lane       int    `json:"lane"`
}

// Row is the layout of a single commit.
type Row struct {
	Commit commit.Commit `json:"commit"`

	// LaneIndex is the column the commit is drawn in.
	LaneIndex int `json:"lane"`

	// LanesBefore is the lane table entering the row.
	LanesBefore []string `json:"lanes_before"`

	// LanesAfter is the lane table leaving the row, before trailing free
	// lanes are trimmed.
	LanesAfter []string `json:"lanes_after"`

	// ParentAssignments lists every parent except the first, which always
	// continues straight down LaneIndex.
	ParentAssignments []ParentAssignment `json:"parent_assignments,omitempty"`

	// Converging lists the other lanes that were waiting for this commit
	// and are released by this row.
	Converging []int `json:"converging,omitempty"`

	// LaneCount is the lane table width needed to draw the row.
	LaneCount int `json:"lane_count"`
}

// OccupiedBefore reports whether lane i holds a reservation entering the row.
func (r Row) OccupiedBefore(i int) bool { return occupied(r.LanesBefore, i) }

// OccupiedAfter reports whether lane i holds a reservation leaving the row.
func (r Row) OccupiedAfter(i int) bool { return occupied(r.LanesAfter, i) }

func occupied(table []string, i int) bool {
	return i >= 0 && i < len(table) && table[i] != Free
}

// Layout is the result of [Build].
type Layout struct {
	Rows                []Row `json:"rows"`
	MaxLaneCount        int   `json:"max_lane_count"`
	VisibleMaxLaneCount int   `json:"visible_max_lane_count"`
	VisibleLaneLimit    int   `json:"visible_lane_limit"`
}

// Option configures [Build].
type Option func(*config)

type config struct {
	visibleLimit int
}

// WithVisibleLaneLimit sets the cap on simultaneously drawn lanes.
// Values below 1 keep the default.
func WithVisibleLaneLimit(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.visibleLimit = n
		}
	}
}

// Build computes the lane layout of commits, processed in input order.
// It never fails: malformed records are laid out without connectors.
func Build(commits []commit.Commit, opts ...Option) Layout {
	cfg := config{visibleLimit: DefaultVisibleLaneLimit}
	for _, opt := range opts {
		opt(&cfg)
	}

	rows := make([]Row, 0, len(commits))
	var st state
	for _, c := range commits {
		var row Row
		st, row = step(st, c)
		rows = append(rows, row)
	}

	return Layout{
		Rows:                rows,
		MaxLaneCount:        st.maxLanes,
		VisibleMaxLaneCount: min(st.maxLanes, cfg.visibleLimit),
		VisibleLaneLimit:    cfg.visibleLimit,
	}
}

// state is the accumulator threaded through [step].
type state struct {
	table    []string
	maxLanes int
}

// step lays out one commit. It takes ownership of st.table and returns the
// table to hand to the next commit.
func step(st state, c commit.Commit) (state, Row) {
	table := st.table
	lane := pick(table, c.Hash)

	row := Row{
		Commit:      c,
		LaneIndex:   lane,
		LanesBefore: slices.Clone(table),
	}

	// Branches that were also waiting for this commit end here.
	if c.Hash != "" {
		for i, h := range table {
			if i != lane && h == c.Hash {
				table[i] = Free
				row.Converging = append(row.Converging, i)
			}
		}
	}

	parents := c.Parents
	if c.Hash == "" {
		parents = nil
	}
	parents = slices.DeleteFunc(slices.Clone(parents), func(p string) bool { return p == Free })

	if len(parents) > 0 {
		table = reserve(table, lane, parents[0])
	} else {
		table = reserve(table, lane, Free)
	}

	for _, p := range parents[min(1, len(parents)):] {
		pl := pick(table, p)
		table = reserve(table, pl, p)
		row.ParentAssignments = append(row.ParentAssignments, ParentAssignment{ParentHash: p, Lane: pl})
	}

	row.LanesAfter = slices.Clone(table)

	row.LaneCount = max(len(row.LanesBefore), len(row.LanesAfter), lane+1)
	for _, pa := range row.ParentAssignments {
		row.LaneCount = max(row.LaneCount, pa.Lane+1)
	}

	for len(table) > 0 && table[len(table)-1] == Free {
		table = table[:len(table)-1]
	}

	return state{table: table, maxLanes: max(st.maxLanes, row.LaneCount)}, row
}

// pick returns the lane for hash: the leftmost lane already reserved for it,
// else the leftmost free lane, else a new lane past the end.
func pick(table []string, hash string) int {
	if hash != Free {
		if i := slices.Index(table, hash); i >= 0 {
			return i
		}
	}
	if i := slices.Index(table, Free); i >= 0 {
		return i
	}
	return len(table)
}

// reserve stores hash in lane i, growing the table when i is past the end.
func reserve(table []string, i int, hash string) []string {
	for len(table) <= i {
		table = append(table, Free)
	}
	table[i] = hash
	return table
}
