package pipeline

import (
	"github.com/matzehuels/lanegraph/pkg/commit"
	"github.com/matzehuels/lanegraph/pkg/lanes"
)

// GenerateLayout assigns lanes to commits. Commits must already be
// deduplicated; the builder trusts the input order.
func GenerateLayout(commits []commit.Commit, opts Options) lanes.Layout {
	limit := opts.VisibleLaneLimit
	if limit <= 0 {
		limit = lanes.DefaultVisibleLaneLimit
	}
	return lanes.Build(commits, lanes.WithVisibleLaneLimit(limit))
}

// CommitsOf returns the commits of l in row order.
func CommitsOf(l lanes.Layout) []commit.Commit {
	commits := make([]commit.Commit, len(l.Rows))
	for i, r := range l.Rows {
		commits[i] = r.Commit
	}
	return commits
}
