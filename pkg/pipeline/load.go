package pipeline

import (
	"context"

	"github.com/matzehuels/lanegraph/pkg/commit"
	"github.com/matzehuels/lanegraph/pkg/source/gitrepo"
)

// Load reads the commit list named by opts: the repository at opts.Repo when
// set, otherwise the JSON document in opts.Input. Decode repairs are logged
// as warnings and reported in the returned stats.
func Load(ctx context.Context, opts Options) ([]commit.Commit, commit.DecodeStats, error) {
	if opts.Repo != "" {
		commits, err := gitrepo.Load(ctx, opts.Repo, opts.SourceOptions())
		if err != nil {
			return nil, commit.DecodeStats{}, err
		}
		return commits, commit.DecodeStats{Total: len(commits)}, nil
	}

	commits, stats, err := commit.Decode(opts.Input)
	if err != nil {
		return nil, stats, err
	}
	if opts.Logger != nil && (stats.Skipped > 0 || stats.Malformed > 0) {
		opts.Logger.Warn("repaired commit input",
			"entries", stats.Total,
			"skipped", stats.Skipped,
			"malformed", stats.Malformed)
	}
	return commits, stats, nil
}
