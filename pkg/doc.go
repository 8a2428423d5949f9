// Package pkg provides the libraries behind lanegraph, a commit-graph layout
// and rendering engine.
//
// # Overview
//
// Lanegraph takes an ordered commit history and draws it the way
// `git log --graph` does: every commit gets a lane (column), merges open
// lanes for their extra parents and branches converge back when their
// parent is reached. The pkg directory is organized into these areas:
//
//  1. [commit] and [lanes] - the commit model and the lane layout builder
//  2. [render] - per-row drawing primitives and the output sinks
//  3. [source/gitrepo] - reading history straight from a git repository
//  4. [pipeline] - orchestration (load → layout → render) with caching
//  5. [cache], [config], [errors], [observability] - shared infrastructure
//
// # Architecture
//
// The data flow through lanegraph:
//
//	Commit JSON or git repository
//	         ↓
//	    [commit] package (decode, repair, dedupe)
//	         ↓
//	    [lanes] package (assign lanes over the whole history)
//	         ↓
//	    [render/row] package (one row → lines, curves, node marker)
//	         ↓
//	    [render/sink] package (SVG/PNG/PDF/JSON/text)
//
// The layout is always computed over the full list before anything is
// drawn; rows can then be drawn independently and in parallel.
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/lanegraph/pkg/commit"
//	    "github.com/matzehuels/lanegraph/pkg/lanes"
//	    "github.com/matzehuels/lanegraph/pkg/render/sink"
//	)
//
//	commits, _, err := commit.ImportJSON("history.json")
//	if err != nil {
//	    return err
//	}
//	commits, _ = commit.Dedupe(commits)
//
//	l := lanes.Build(commits, lanes.WithVisibleLaneLimit(5))
//	svg := sink.RenderSVG(l, sink.WithLabels())
//	text := sink.RenderText(l)
//
// # Main Packages
//
// [lanes] - The layout builder. A pure fold over the commit list that keeps
// a lane table of reserved parent hashes and emits one row descriptor per
// commit. It never fails: malformed commits are laid out as roots.
//
// [render/row] - Turns a row descriptor into Line, Curve and Circle
// primitives for a given box. [row.View] keeps the last drawing and only
// redraws when the box size changes.
//
// [render/sink] - Assembles rows into documents. PNG and PDF go through
// rsvg-convert; [render/nodelink] draws the commit DAG with Graphviz.
//
// [pipeline] - The load → layout → render pipeline used by the CLI and the
// HTTP server, so caching behaves the same everywhere.
//
// [cache] - File, Redis and null backends behind one interface, with
// content-addressed keys for layouts and artifacts.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/lanes/...    # Specific package
//	go test -run Example       # Examples only
//
// [commit]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/commit
// [lanes]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/lanes
// [render]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/render
// [render/row]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/render/row
// [row.View]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/render/row#View
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/render/sink
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/render/nodelink
// [source/gitrepo]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/source/gitrepo
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/observability
package pkg
