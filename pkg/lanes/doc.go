// Package lanes computes the lane (column) layout of a commit graph.
//
// # Overview
//
// [Build] walks an ordered commit list once, most recent first, and assigns
// every commit a lane so that ancestry lines can be drawn without ambiguity,
// the same way `git log --graph` does. The result is one [Row] per commit
// describing lane occupancy entering and leaving the row, the commit's own
// lane, and the lane each extra merge parent must be connected to.
//
// # Algorithm
//
// A lane table maps lane number to the hash expected to occupy it next
// (or [Free]). For every commit:
//
//  1. Pick the lane already reserved for the commit's hash, else the
//     leftmost free lane, else append a new lane.
//  2. Snapshot the table (LanesBefore).
//  3. Release any other lane that was also waiting for this commit
//     (Converging). Reserve the commit's own lane for its first parent, or
//     free it for a root commit. Give every additional parent a lane using
//     the same preference order as step 1.
//  4. Snapshot the table (LanesAfter) and compute LaneCount.
//  5. Trim trailing free lanes so linear histories stay narrow. Interior
//     holes remain and are reused by later commits.
//
// Leftmost-free reuse is a greedy heuristic. It is O(lanes) per commit and
// deterministic but does not minimise crossings or width.
//
// # Purity
//
// Build is a pure function of its input: the lane table is a fold
// accumulator that never escapes the call. Loading more history means
// calling Build again over the full list, since every row depends on all
// rows above it.
//
// # Visible lanes
//
// [Layout.VisibleMaxLaneCount] caps the number of columns a renderer draws
// (default [DefaultVisibleLaneLimit]). Lanes at or beyond the cap are
// collapsed onto the last visible column by the renderer. This is lossy for
// very wide histories and merge lines may overlap there.
package lanes
