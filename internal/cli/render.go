package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
)

// renderOpts holds the command-line flags of the render command that do not
// map directly onto pipeline.Options.
type renderOpts struct {
	output  string // output file (single format) or base path (multiple)
	formats string // comma-separated output formats
	noCache bool
	source  sourceFlags
}

// renderCommand creates the render command: load, lay out and render in
// one step.
func (c *CLI) renderCommand() *cobra.Command {
	var ro renderOpts
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [commits.json|-]",
		Short: "Render a commit history as a lane graph",
		Long: `Render a commit history as a lane graph.

The history is read from a commit JSON file, from standard input ('-') or,
with --repo, directly from a git repository. The layout is computed over
the whole history and written in every requested format.

With several formats, -o names the base path and every format gets its own
extension. '-o -' writes a single format to standard output.

Results are cached locally for faster subsequent runs.`,
		Example: `  lanegraph render history.json
  lanegraph render --repo . --limit 200 -f svg,text --labels
  git-export | lanegraph render - -f text -o -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			c.applyConfig(cmd, &opts)
			if formats := parseFormats(ro.formats); len(formats) > 0 {
				opts.Formats = formats
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := ro.source.apply(c, &opts, input); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), input, opts, ro)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, text (comma-separated)")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-read the repository even when cached")
	ro.source.register(cmd)

	cmd.Flags().StringVarP(&opts.VizType, "type", "t", pipeline.DefaultVizType, "visualization type: lanes (default), nodelink")
	cmd.Flags().IntVar(&opts.VisibleLaneLimit, "lane-limit", lanes.DefaultVisibleLaneLimit, "lanes drawn before clamping to the last column")
	cmd.Flags().Float64Var(&opts.RowHeight, "row-height", pipeline.DefaultRowHeight, "row height in pixels")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "graph column width in pixels (0: natural width)")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "draw short hash, subject and author next to each commit")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show author and date in nodelink diagrams")
	cmd.Flags().BoolVar(&opts.Primitives, "primitives", false, "include drawing primitives in JSON output")

	return cmd
}

// runRender executes the pipeline and writes every artifact.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, ro renderOpts) error {
	if ro.output == stdinPath && len(opts.Formats) > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "'-o -' needs exactly one format, got %d", len(opts.Formats))
	}

	runner, err := c.newRunner(ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", sourceLabel(input, opts)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done(runSummary("Rendered", result))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	files, err := c.writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		base:      outputBase(input, opts.Repo),
		output:    ro.output,
	})
	if err != nil {
		return err
	}
	if ro.output == stdinPath {
		return nil
	}

	printSuccess("Rendered %d commits", result.Stats.Commits)
	printArtifacts(files)
	printStats(result.Stats.Commits, result.Stats.MaxLanes, result.CacheInfo.RenderHit)
	printRepairs(result.Stats)
	if result.Stats.MaxLanes > result.Layout.VisibleLaneLimit {
		printWarning("%d lanes exceed the visible limit of %d; extra lanes share the last column",
			result.Stats.MaxLanes, result.Layout.VisibleLaneLimit)
	}
	return nil
}

// =============================================================================
// Output
// =============================================================================

// artifactWriteParams describes where rendered artifacts go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	base      string // default base path derived from the input
	output    string // -o value
}

// writtenFile records one artifact written to disk.
type writtenFile struct {
	format string
	path   string
	size   int
}

// writeArtifacts writes each format to its own file, or the single format to
// standard output for "-o -". Files are written in the order of formats.
func (c *CLI) writeArtifacts(p artifactWriteParams) ([]writtenFile, error) {
	if p.output == stdinPath {
		if len(p.formats) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "'-o -' needs exactly one format, got %d", len(p.formats))
		}
		_, err := c.stdout.Write(p.artifacts[p.formats[0]])
		return nil, err
	}

	var files []writtenFile
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		var path string
		if len(p.formats) == 1 && p.output != "" {
			path = p.output
		} else {
			path = basePath(p.output, p.base) + "." + fileExt(format)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return files, fmt.Errorf("create output directory: %w", err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return files, fmt.Errorf("write output %s: %w", path, err)
		}
		c.Logger.Debug("wrote artifact", "format", format, "path", path, "bytes", len(data))
		files = append(files, writtenFile{format: format, path: path, size: len(data)})
	}
	return files, nil
}

// basePath derives the base output path. An empty output falls back to
// base; a known format extension on output is stripped.
func basePath(output, base string) string {
	if output == "" {
		return base
	}
	ext := filepath.Ext(output)
	if e := strings.TrimPrefix(ext, "."); pipeline.ValidFormats[e] || e == "txt" {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputBase names output files after the input file, the repository
// directory, or "lanegraph" for standard input.
func outputBase(input, repo string) string {
	if repo != "" {
		abs, err := filepath.Abs(repo)
		if err != nil {
			abs = repo
		}
		return filepath.Base(abs)
	}
	if input == "" || input == stdinPath {
		return appName
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}

// fileExt returns the file extension of an output format.
func fileExt(format string) string {
	if format == pipeline.FormatText {
		return "txt"
	}
	return format
}

// sourceLabel describes the commit source for progress messages.
func sourceLabel(input string, opts pipeline.Options) string {
	switch {
	case opts.Repo != "":
		return opts.Repo
	case input == stdinPath:
		return "stdin"
	default:
		return input
	}
}

// formatList joins formats for display, in a stable order.
func formatList(formats []string) string {
	sorted := slices.Clone(formats)
	slices.Sort(sorted)
	return strings.Join(sorted, ", ")
}
