package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
)

// layoutCommand creates the layout command for computing lane layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout <commits.json|->",
		Short: "Compute the lane layout of a commit history",
		Long: `Compute the lane layout of a commit history.

The layout command takes a commit JSON file (or '-' for standard input) and
assigns every commit a lane. The output is a layout.json file (same format
as 'render -f json') that can be rendered with the 'visualize' command.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd, &opts)
			opts.Formats = []string{pipeline.FormatJSON}
			data, err := c.readInput(args[0])
			if err != nil {
				return err
			}
			opts.Input = data
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, '-' for stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().IntVar(&opts.VisibleLaneLimit, "lane-limit", lanes.DefaultVisibleLaneLimit, "lanes drawn before clamping to the last column")
	cmd.Flags().BoolVar(&opts.Primitives, "primitives", false, "include drawing primitives for every row")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "width the primitives are drawn into (0: natural width)")
	cmd.Flags().Float64Var(&opts.RowHeight, "row-height", pipeline.DefaultRowHeight, "row height the primitives are drawn into")

	return cmd
}

// runLayout computes the layout and writes it as JSON.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, "Computing lane layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done(runSummary("Laid out", result))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = outputBase(input, "") + ".layout.json"
	}
	files, err := c.writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		output:    outputPath,
	})
	if err != nil {
		return err
	}
	if outputPath == stdinPath {
		return nil
	}

	printSuccess("Layout complete")
	for _, f := range files {
		printFile(f.path)
	}
	printStats(result.Stats.Commits, result.Stats.MaxLanes, result.CacheInfo.LayoutHit)
	printRepairs(result.Stats)
	printNewline()
	printNextStep("Render", appName+" visualize "+outputPath)

	return nil
}
