package cli

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lanegraph/pkg/buildinfo"
	"github.com/matzehuels/lanegraph/pkg/cache"
	"github.com/matzehuels/lanegraph/pkg/config"
	"github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
	"github.com/matzehuels/lanegraph/pkg/source/gitrepo"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// stdinPath selects standard input (or output) in place of a file.
const stdinPath = "-"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs. Flags given explicitly
	// on the command line take precedence over it.
	Config config.Config

	configPath string
	stdin      io.Reader
	stdout     io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Lanegraph draws commit histories as lane graphs",
		Long: `Lanegraph turns an ordered commit history into a lane graph: every commit
gets a column, merges open new lanes and branches converge back into their
parents. The layout can be written as JSON, rendered to SVG, PNG, PDF or
text, browsed in the terminal or served over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.config/lanegraph/config.toml)")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the --config file, or the default location when the
// flag is empty. A missing default file yields the built-in defaults.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		def, err := config.DefaultPath()
		if err != nil {
			c.Config = config.Default()
			return nil
		}
		path = def
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", path)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cache, nil, c.Logger)
	runner.TTL = c.Config.Cache.TTL.Duration
	return runner, nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the configured cache directory, falling back to the XDG
// location (~/.cache/lanegraph/).
func (c *CLI) cacheDir() (string, error) {
	return c.Config.CacheDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// sourceFlags are the commit source flags shared by render and view.
type sourceFlags struct {
	repo  string
	ref   string
	all   bool
	limit int
	order string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.repo, "repo", "", "read commits from the git repository at this path")
	cmd.Flags().StringVar(&s.ref, "ref", "", "revision to start from (default: HEAD)")
	cmd.Flags().BoolVar(&s.all, "all", false, "walk every branch and tag")
	cmd.Flags().IntVar(&s.limit, "limit", 0, "stop after this many commits (0: no limit)")
	cmd.Flags().StringVar(&s.order, "order", "", "log order: time (default), dfs")
}

// apply fills the source part of opts. Without --repo, input names a
// commit JSON file or "-" for standard input.
func (s *sourceFlags) apply(c *CLI, opts *pipeline.Options, input string) error {
	if s.repo != "" {
		opts.Repo = s.repo
		opts.Ref = s.ref
		opts.All = s.all
		opts.Limit = s.limit
		opts.Order = gitrepo.Order(s.order)
		return nil
	}
	if input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "a commit file, '-' or --repo is required")
	}
	data, err := c.readInput(input)
	if err != nil {
		return err
	}
	opts.Input = data
	return nil
}

// applyConfig copies config values into opts for every flag the user did
// not set explicitly.
func (c *CLI) applyConfig(cmd *cobra.Command, opts *pipeline.Options) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	cfg := c.Config
	if !changed("lane-limit") {
		opts.VisibleLaneLimit = cfg.Layout.VisibleLaneLimit
	}
	if !changed("row-height") {
		opts.RowHeight = cfg.Render.RowHeight
	}
	if !changed("width") {
		opts.Width = cfg.Render.Width
	}
	if !changed("labels") {
		opts.Labels = cfg.Render.Labels
	}
	if !changed("format") && len(cfg.Render.Formats) > 0 {
		opts.Formats = cfg.Render.Formats
	}
	opts.Geometry = cfg.Geometry
	opts.Palette = cfg.Render.Palette
	opts.Logger = c.Logger
}

// readInput reads a file, or standard input when path is "-".
func (c *CLI) readInput(path string) ([]byte, error) {
	if path == stdinPath {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return data, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	formats := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			formats = append(formats, p)
		}
	}
	return formats
}
