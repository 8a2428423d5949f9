package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
	"github.com/matzehuels/lanegraph/pkg/render/sink"
	"github.com/matzehuels/lanegraph/pkg/render/styles"
)

// viewCommand creates the interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		source  sourceFlags
		noCache bool
		plain   bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "view [commits.json|-]",
		Short: "Browse a lane graph in the terminal",
		Long: `Browse a lane graph in the terminal.

The viewer draws the graph column from the same row primitives as the SVG
output and redraws rows when the terminal is resized. When standard output
is not a terminal, or with --plain, the graph is printed as text instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			c.applyConfig(cmd, &opts)
			if err := source.apply(c, &opts, input); err != nil {
				return err
			}
			if !plain && !isTerminal(c.stdout) {
				plain = true
			}
			return c.runView(cmd.Context(), input, opts, noCache, plain)
		},
	}

	source.register(cmd)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-read the repository even when cached")
	cmd.Flags().IntVar(&opts.VisibleLaneLimit, "lane-limit", lanes.DefaultVisibleLaneLimit, "lanes drawn before clamping to the last column")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the graph as text instead of starting the viewer")

	return cmd
}

// runView computes the layout and shows it.
func (c *CLI) runView(ctx context.Context, input string, opts pipeline.Options, noCache, plain bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	result, err := runner.ExecuteLayout(ctx, opts)
	if err != nil {
		return err
	}

	if plain {
		_, err := io.WriteString(c.stdout, sink.RenderText(result.Layout, sink.WithTextLabels()))
		return err
	}

	palette := styles.NewPalette(result.Layout.VisibleLaneLimit)
	if len(opts.Palette) > 0 {
		palette = styles.FromHex(opts.Palette)
	}
	model := NewGraphModel(result.Layout, sourceLabel(input, opts), palette)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return ctx.Err()
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
