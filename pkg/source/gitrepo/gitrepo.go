// Package gitrepo reads commit histories from local git repositories.
//
// It opens a repository with go-git (no git binary required), walks the log
// from a revision or from every reference, and maps each commit to a
// [commit.Commit] in the order the walk produced them. That order is what
// the lane layout consumes, so it is worth choosing deliberately:
// [OrderTime] matches "git log" for most histories, [OrderDFS] keeps
// branches contiguous.
//
// # Usage
//
//	commits, err := gitrepo.Load(ctx, ".", gitrepo.Options{Ref: "main", Limit: 500})
package gitrepo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/matzehuels/lanegraph/pkg/commit"
	"github.com/matzehuels/lanegraph/pkg/errors"
)

// Order selects the log traversal order.
type Order string

const (
	// OrderTime walks commits by descending committer time.
	OrderTime Order = "time"
	// OrderDFS walks commits depth first, parents in order.
	OrderDFS Order = "dfs"
)

// Options configures [Load].
type Options struct {
	// Ref is the revision to start from (branch, tag, hash, HEAD~3...).
	// Empty means HEAD.
	Ref string
	// All walks every reference instead of Ref.
	All bool
	// Limit stops after this many commits. Zero means no limit.
	Limit int
	// Order is the traversal order; empty means [OrderTime].
	Order Order
}

// Validate checks the options for obvious mistakes.
func (o Options) Validate() error {
	if err := errors.ValidateRef(o.Ref); err != nil {
		return err
	}
	if o.Limit < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "limit must not be negative, got %d", o.Limit)
	}
	switch o.Order {
	case "", OrderTime, OrderDFS:
		return nil
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown log order %q (want time or dfs)", o.Order)
	}
}

// Load returns the commit history of the repository containing path.
// Parent directories are searched for the .git directory, so any path
// inside a working tree works.
func Load(ctx context.Context, path string, opts Options) ([]commit.Commit, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	repo, err := open(path)
	if err != nil {
		return nil, err
	}

	logOpts := &git.LogOptions{All: opts.All, Order: logOrder(opts.Order)}
	if !opts.All {
		from, err := resolve(repo, opts.Ref)
		if err != nil {
			return nil, err
		}
		logOpts.From = from
	}

	iter, err := repo.Log(logOpts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRepository, err, "read log")
	}
	defer iter.Close()

	var commits []commit.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, convert(c))
		if opts.Limit > 0 && len(commits) >= opts.Limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctxErr, "read log")
		}
		return nil, errors.Wrap(errors.ErrCodeRepository, err, "read log")
	}
	return commits, nil
}

// Revision returns a string that changes whenever the history [Load] would
// return changes: the resolved commit hash of Ref, or a digest of every
// reference when All is set. Callers use it as a cache key component.
func Revision(path string, opts Options) (string, error) {
	if err := errors.ValidatePath(path); err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	repo, err := open(path)
	if err != nil {
		return "", err
	}
	if !opts.All {
		h, err := resolve(repo, opts.Ref)
		if err != nil {
			return "", err
		}
		return h.String(), nil
	}

	refs, err := repo.References()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeRepository, err, "list references")
	}
	defer refs.Close()

	var names []string
	err = refs.ForEach(func(r *plumbing.Reference) error {
		if r.Type() == plumbing.HashReference {
			names = append(names, r.Name().String()+"="+r.Hash().String())
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeRepository, err, "list references")
	}
	sort.Strings(names)
	sum := sha256.Sum256([]byte(strings.Join(names, "\n")))
	return hex.EncodeToString(sum[:]), nil
}

func open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "no git repository at %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeRepository, err, "open %s", path)
	}
	return repo, nil
}

func resolve(repo *git.Repository, ref string) (plumbing.Hash, error) {
	if ref == "" {
		head, err := repo.Head()
		if err != nil {
			if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
				return plumbing.ZeroHash, errors.Wrap(errors.ErrCodeNotFound, err, "repository has no commits")
			}
			return plumbing.ZeroHash, errors.Wrap(errors.ErrCodeRepository, err, "resolve HEAD")
		}
		return head.Hash(), nil
	}
	h, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(errors.ErrCodeInvalidRef, err, "resolve %s", ref)
	}
	return *h, nil
}

func logOrder(o Order) git.LogOrder {
	if o == OrderDFS {
		return git.LogOrderDFS
	}
	return git.LogOrderCommitterTime
}

func convert(c *object.Commit) commit.Commit {
	out := commit.Commit{
		Hash:    c.Hash.String(),
		Author:  c.Author.Name,
		Message: c.Message,
	}
	if !c.Author.When.IsZero() {
		out.Date = c.Author.When.UTC().Format(time.RFC3339)
	}
	for _, p := range c.ParentHashes {
		out.Parents = append(out.Parents, p.String())
	}
	return out
}

// Describe returns a one-line summary of where commits came from, used in
// log messages.
func Describe(path string, opts Options) string {
	switch {
	case opts.All:
		return fmt.Sprintf("%s (all refs)", path)
	case opts.Ref != "":
		return fmt.Sprintf("%s@%s", path, opts.Ref)
	default:
		return fmt.Sprintf("%s@HEAD", path)
	}
}
