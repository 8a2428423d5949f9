package lanes

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/lanegraph/pkg/commit"
)

func c(hash string, parents ...string) commit.Commit {
	return commit.Commit{Hash: hash, Parents: parents}
}

func TestBuildLinearHistory(t *testing.T) {
	l := Build([]commit.Commit{c("C3", "C2"), c("C2", "C1"), c("C1")})

	if len(l.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(l.Rows))
	}
	for i, r := range l.Rows {
		if r.LaneIndex != 0 {
			t.Errorf("row %d: LaneIndex = %d, want 0", i, r.LaneIndex)
		}
		if len(r.ParentAssignments) != 0 {
			t.Errorf("row %d: ParentAssignments = %v, want none", i, r.ParentAssignments)
		}
	}
	if l.MaxLaneCount != 1 {
		t.Errorf("MaxLaneCount = %d, want 1", l.MaxLaneCount)
	}
	if l.VisibleMaxLaneCount != 1 {
		t.Errorf("VisibleMaxLaneCount = %d, want 1", l.VisibleMaxLaneCount)
	}
	if got := l.Rows[0].LanesAfter; !reflect.DeepEqual(got, []string{"C2"}) {
		t.Errorf("row 0 LanesAfter = %v, want [C2]", got)
	}
}

func TestBuildSimpleMerge(t *testing.T) {
	l := Build([]commit.Commit{c("M", "A", "B"), c("A", "C"), c("B", "C"), c("C")})

	m := l.Rows[0]
	want := []ParentAssignment{{ParentHash: "B", Lane: 1}}
	if !reflect.DeepEqual(m.ParentAssignments, want) {
		t.Fatalf("M ParentAssignments = %v, want %v", m.ParentAssignments, want)
	}
	if !m.OccupiedAfter(1) {
		t.Errorf("lane 1 should be occupied after M, got %v", m.LanesAfter)
	}

	b := l.Rows[2]
	if b.LaneIndex != 1 {
		t.Errorf("B LaneIndex = %d, want 1", b.LaneIndex)
	}
	if !b.OccupiedBefore(1) {
		t.Errorf("lane 1 should be occupied before B, got %v", b.LanesBefore)
	}

	root := l.Rows[3]
	if root.LaneIndex != 0 {
		t.Errorf("C LaneIndex = %d, want 0", root.LaneIndex)
	}
	if !reflect.DeepEqual(root.Converging, []int{1}) {
		t.Errorf("C Converging = %v, want [1]", root.Converging)
	}
	for i := range root.LanesAfter {
		if root.OccupiedAfter(i) {
			t.Errorf("lane %d still reserved after the root commit: %v", i, root.LanesAfter)
		}
	}
	if l.MaxLaneCount != 2 {
		t.Errorf("MaxLaneCount = %d, want 2", l.MaxLaneCount)
	}
}

func TestBuildRootCommitFreesLane(t *testing.T) {
	// Two independent histories: the first root must free lane 0 so the
	// second history's tip can reuse it.
	l := Build([]commit.Commit{c("a2", "a1"), c("a1"), c("b2", "b1"), c("b1")})

	a1 := l.Rows[1]
	if a1.OccupiedAfter(a1.LaneIndex) {
		t.Errorf("root lane still reserved: %v", a1.LanesAfter)
	}
	if b2 := l.Rows[2]; b2.LaneIndex != 0 || len(b2.LanesBefore) != 0 {
		t.Errorf("b2 should start on a trimmed table in lane 0, got lane %d before %v", b2.LaneIndex, b2.LanesBefore)
	}
	if l.MaxLaneCount != 1 {
		t.Errorf("MaxLaneCount = %d, want 1", l.MaxLaneCount)
	}
}

func TestBuildTrimsTrailingLanes(t *testing.T) {
	// B's branch ends at root X in the last lane, so the table shrinks back
	// to one lane before A and A's extra parent gets a fresh lane 1.
	commits := []commit.Commit{
		c("M", "A", "B"),
		c("B", "X"),
		c("X"),
		c("A", "D", "E"),
		c("D"),
		c("E"),
	}
	l := Build(commits)

	x := l.Rows[2]
	if x.LaneIndex != 1 {
		t.Fatalf("X LaneIndex = %d, want 1", x.LaneIndex)
	}
	if x.OccupiedAfter(1) {
		t.Errorf("X should free lane 1, got %v", x.LanesAfter)
	}

	a := l.Rows[3]
	if len(a.LanesBefore) != 1 {
		t.Errorf("trailing free lane should be trimmed before A, got %v", a.LanesBefore)
	}
	want := []ParentAssignment{{ParentHash: "E", Lane: 1}}
	if !reflect.DeepEqual(a.ParentAssignments, want) {
		t.Errorf("A ParentAssignments = %v, want %v", a.ParentAssignments, want)
	}
}

func TestBuildReusesInteriorHole(t *testing.T) {
	commits := []commit.Commit{
		c("M", "A", "B", "C"),
		c("B", "X"),
		c("X"),
		c("A", "D", "E"),
		c("C"),
		c("D"),
		c("E"),
	}
	l := Build(commits)

	if got := l.Rows[2].LanesAfter; !reflect.DeepEqual(got, []string{"A", "", "C"}) {
		t.Fatalf("X LanesAfter = %v, want [A  C]", got)
	}

	a := l.Rows[3]
	if len(a.LanesBefore) != 3 {
		t.Errorf("interior hole must be kept, LanesBefore = %v", a.LanesBefore)
	}
	want := []ParentAssignment{{ParentHash: "E", Lane: 1}}
	if !reflect.DeepEqual(a.ParentAssignments, want) {
		t.Errorf("A ParentAssignments = %v, want %v", a.ParentAssignments, want)
	}
}

func TestBuildLeftmostFreeLane(t *testing.T) {
	// Lanes 0..2 are reserved by an octopus merge. Lane 1 is released first,
	// then a new branch tip must take the hole at 1 rather than appending.
	commits := []commit.Commit{
		c("O", "A", "B", "C"),
		c("B"),
		c("T", "A"),
	}
	l := Build(commits)

	if got := l.Rows[1].LanesAfter; !reflect.DeepEqual(got, []string{"A", "", "C"}) {
		t.Fatalf("B LanesAfter = %v, want [A  C]", got)
	}
	if tip := l.Rows[2]; tip.LaneIndex != 1 {
		t.Errorf("T LaneIndex = %d, want 1 (leftmost hole)", tip.LaneIndex)
	}
}

func TestBuildMalformed(t *testing.T) {
	commits := []commit.Commit{
		c("", "ghost"),
		{Hash: "p", Parents: []string{"", "q"}},
		c("q"),
	}
	l := Build(commits)

	if got := l.Rows[0]; got.OccupiedAfter(got.LaneIndex) || len(got.ParentAssignments) != 0 {
		t.Errorf("hashless commit should contribute no connectors, got %+v", got)
	}
	if got := l.Rows[1].LanesAfter; !reflect.DeepEqual(got, []string{"q"}) {
		t.Errorf("empty parent should be ignored, LanesAfter = %v", got)
	}
	if l.Rows[2].LaneIndex != 0 {
		t.Errorf("q LaneIndex = %d, want 0", l.Rows[2].LaneIndex)
	}
}

func TestBuildEmpty(t *testing.T) {
	l := Build(nil)
	if len(l.Rows) != 0 || l.MaxLaneCount != 0 || l.VisibleMaxLaneCount != 0 {
		t.Errorf("Build(nil) = %+v, want empty", l)
	}
	if l.VisibleLaneLimit != DefaultVisibleLaneLimit {
		t.Errorf("VisibleLaneLimit = %d, want %d", l.VisibleLaneLimit, DefaultVisibleLaneLimit)
	}
}

func TestBuildOverflow(t *testing.T) {
	l := Build(wideHistory(10))

	if l.MaxLaneCount <= DefaultVisibleLaneLimit {
		t.Fatalf("MaxLaneCount = %d, want more than %d", l.MaxLaneCount, DefaultVisibleLaneLimit)
	}
	if l.VisibleMaxLaneCount != DefaultVisibleLaneLimit {
		t.Errorf("VisibleMaxLaneCount = %d, want %d", l.VisibleMaxLaneCount, DefaultVisibleLaneLimit)
	}

	l = Build(wideHistory(10), WithVisibleLaneLimit(3))
	if l.VisibleMaxLaneCount != 3 || l.VisibleLaneLimit != 3 {
		t.Errorf("custom limit: visible = %d, limit = %d, want 3", l.VisibleMaxLaneCount, l.VisibleLaneLimit)
	}

	l = Build(wideHistory(2), WithVisibleLaneLimit(0))
	if l.VisibleLaneLimit != DefaultVisibleLaneLimit {
		t.Errorf("limit 0 should keep default, got %d", l.VisibleLaneLimit)
	}
}

func TestBuildLaneCount(t *testing.T) {
	for _, commits := range fixtures() {
		for i, r := range Build(commits).Rows {
			want := max(len(r.LanesBefore), len(r.LanesAfter), r.LaneIndex+1)
			for _, pa := range r.ParentAssignments {
				want = max(want, pa.Lane+1)
			}
			if r.LaneCount != want {
				t.Errorf("row %d: LaneCount = %d, want %d", i, r.LaneCount, want)
			}
		}
	}
}

func TestReservationInvariant(t *testing.T) {
	for name, commits := range fixtures() {
		l := Build(commits)
		for j, r := range l.Rows {
			if !slices.Contains(r.LanesBefore, r.Commit.Hash) {
				continue
			}
			// A reserved commit lands in the leftmost lane waiting for it.
			if want := slices.Index(r.LanesBefore, r.Commit.Hash); r.LaneIndex != want {
				t.Errorf("%s row %d: LaneIndex = %d, want reserved lane %d", name, j, r.LaneIndex, want)
			}
			// And every lane waiting for it is consumed by this row.
			for i, h := range r.LanesAfter {
				if h == r.Commit.Hash {
					t.Errorf("%s row %d: lane %d still waits for %s", name, j, i, h)
				}
			}
		}
	}
}

func TestReservationCarriesToChildRow(t *testing.T) {
	// Without shared parents every reservation is unique, so the lane held
	// for a parent must be exactly the lane the parent is drawn in.
	commits := []commit.Commit{
		c("M", "A", "B"),
		c("B", "B1"),
		c("A", "A1"),
		c("B1", "B0"),
		c("A1"),
		c("B0"),
	}
	l := Build(commits)

	rowOf := make(map[string]int)
	for j, r := range l.Rows {
		rowOf[r.Commit.Hash] = j
	}
	for i, r := range l.Rows {
		for lane, h := range r.LanesAfter {
			if h == Free {
				continue
			}
			j, ok := rowOf[h]
			if !ok || j <= i {
				continue
			}
			if got := l.Rows[j].LaneIndex; got != lane {
				t.Errorf("row %d reserved lane %d for %s, but it was drawn in lane %d", i, lane, h, got)
			}
		}
	}
}

func TestMonotonicTrim(t *testing.T) {
	for name, commits := range fixtures() {
		for i, r := range Build(commits).Rows {
			grown := 0
			if r.LaneIndex >= len(r.LanesBefore) {
				grown++
			}
			for _, pa := range r.ParentAssignments {
				if pa.Lane >= len(r.LanesBefore) {
					grown++
				}
			}
			if len(r.LanesAfter) > len(r.LanesBefore)+grown {
				t.Errorf("%s row %d: LanesAfter %v grew beyond LanesBefore %v + %d new lanes",
					name, i, r.LanesAfter, r.LanesBefore, grown)
			}
		}
	}
}

func TestBuildDoesNotShareTables(t *testing.T) {
	l := Build([]commit.Commit{c("A", "B"), c("B", "C"), c("C")})
	l.Rows[0].LanesAfter[0] = "mutated"
	if l.Rows[1].LanesBefore[0] != "B" {
		t.Error("row snapshots must not alias each other")
	}
}

func TestBuildDeterministic(t *testing.T) {
	commits := fixtures()["criss-cross"]
	if !reflect.DeepEqual(Build(commits), Build(commits)) {
		t.Error("Build should be a pure function of its input")
	}
}

// wideHistory returns an octopus merge with n parents, each on its own branch.
func wideHistory(n int) []commit.Commit {
	parents := make([]string, n)
	for i := range parents {
		parents[i] = fmt.Sprintf("p%d", i)
	}
	commits := []commit.Commit{c("octopus", parents...)}
	for _, p := range parents {
		commits = append(commits, c(p, "base"))
	}
	return append(commits, c("base"))
}

func fixtures() map[string][]commit.Commit {
	return map[string][]commit.Commit{
		"linear": {c("C3", "C2"), c("C2", "C1"), c("C1")},
		"merge":  {c("M", "A", "B"), c("A", "C"), c("B", "C"), c("C")},
		"criss-cross": {
			c("M2", "A2", "B2"),
			c("A2", "A1", "B1"),
			c("B2", "B1", "A1"),
			c("A1", "R"),
			c("B1", "R"),
			c("R"),
		},
		"octopus": wideHistory(9),
		"forest":  {c("a2", "a1"), c("b2", "b1"), c("a1"), c("b1")},
	}
}
