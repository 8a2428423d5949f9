package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lanegraph/pkg/pipeline"
	"github.com/matzehuels/lanegraph/pkg/render/sink"
)

// visualizeCommand creates the visualize command for rendering from a layout.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "visualize <layout.json>",
		Short: "Render a computed layout",
		Long: `Render a computed layout.

The visualize command takes a layout.json file (produced by 'layout') and
renders it to SVG, PNG, PDF or text. The layout already holds every lane
assignment, so this step is purely about drawing.

Results are cached locally for faster subsequent runs.

Use 'render' as a shortcut to go directly from commits to visual output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd, &opts)
			if formats := parseFormats(formatsStr); len(formats) > 0 {
				opts.Formats = formats
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runVisualize(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json, text (comma-separated)")
	cmd.Flags().StringVarP(&opts.VizType, "type", "t", pipeline.DefaultVizType, "visualization type: lanes (default), nodelink")
	cmd.Flags().Float64Var(&opts.RowHeight, "row-height", pipeline.DefaultRowHeight, "row height in pixels")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "graph column width in pixels (0: natural width)")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "draw short hash, subject and author next to each commit")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show author and date in nodelink diagrams")

	return cmd
}

// runVisualize loads the layout and renders it.
func (c *CLI) runVisualize(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	data, err := c.readInput(input)
	if err != nil {
		return err
	}
	l, err := sink.ReadLayoutJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", formatList(opts.Formats)))
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Visualization failed")
		return fmt.Errorf("visualize: %w", err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d rows", len(l.Rows)))

	files, err := c.writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		base:      layoutBase(input),
		output:    output,
	})
	if err != nil || output == stdinPath {
		return err
	}

	printSuccess("Rendered %d rows", len(l.Rows))
	printArtifacts(files)
	printStats(len(l.Rows), l.MaxLaneCount, cacheHit)
	return nil
}

// layoutBase strips ".layout.json" (or any extension) from a layout file name.
func layoutBase(input string) string {
	return strings.TrimSuffix(outputBase(input, ""), ".layout")
}
