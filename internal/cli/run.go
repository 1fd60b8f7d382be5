package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/engine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Input        string
	Database     string
	RecipeFormat string
	OutputKind   string
	Breakpoints  bool

	// IDGenerator allows overriding the bake ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.IDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <recipe>",
		Short: "Bake a recipe over an input",
		Long: `Run a recipe over an input and write the output to stdout.

The recipe is a JSON, YAML, or CUE document (format chosen by extension,
or --recipe-format). Use "-" to read the recipe or the input from stdin.
When a database is given (--db or [store] database in the config file) the
bake and every executed step are logged for history, trace, and replay.

Output is written raw when stdout is a pipe or file. On a terminal,
non-printable bytes are escaped.

Examples:
  bake run recipe.json --input data.bin > out.bin
  echo -n hello | bake run to-base64.yaml --input -
  bake run recipe.cue --input data.txt --db ./bake.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBake(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", `input file ("-" for stdin; empty input if unset)`)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite bake log (overrides [store] database)")
	cmd.Flags().StringVar(&opts.RecipeFormat, "recipe-format", "", "recipe format (json|yaml|cue; default from extension)")
	cmd.Flags().StringVar(&opts.OutputKind, "output-kind", "", "convert the output to this dish kind before writing")
	cmd.Flags().BoolVar(&opts.Breakpoints, "breakpoints", false, "pause at steps marked as breakpoints")

	return cmd
}

func runBake(opts *RunOptions, recipePath string, cmd *cobra.Command) error {
	cfg, err := opts.Config()
	if err != nil {
		return err
	}

	if recipePath == stdinPath && opts.Input == stdinPath {
		return NewExitError(ExitCommandError, "recipe and input cannot both be read from stdin")
	}
	steps, err := loadRecipe(recipePath, opts.RecipeFormat, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load recipe", err)
	}
	input, err := loadInput(opts.Input, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	req := bakeRequest{
		Steps:    steps,
		Input:    input,
		Database: cfg.Store.Database,
		IDs:      opts.IDGenerator,
	}
	if opts.Database != "" {
		req.Database = opts.Database
	}
	if opts.OutputKind != "" {
		kind, err := dish.ParseKind(opts.OutputKind)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --output-kind", err)
		}
		req.OutputKind = &kind
	}

	var extra []engine.EngineOption
	if cmd.Flags().Changed("breakpoints") {
		extra = append(extra, engine.WithBreakpoints(opts.Breakpoints))
	}

	ctx, cancel := bakeContext(cmd.Context(), cfg)
	defer cancel()

	out, err := executeBake(ctx, cfg, req, extra...)
	if err != nil {
		return err
	}
	return reportBake(opts.Format, cmd.OutOrStdout(), cmd.ErrOrStderr(), out)
}
