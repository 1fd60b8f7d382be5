package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bake/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	RecipeFormat string
	To           string
	Output       string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <recipe>",
		Short: "Convert a recipe between JSON, YAML, and CUE",
		Long: `Parse a recipe and write it back out in another format.

Every step is written in full form (op, args, and any disabled or
breakpoint flags). CUE output binds the JSON step list to the recipe
field, so it loads back as a CUE recipe.

Examples:
  bake compile recipe.cue --to json
  bake compile recipe.json --to yaml -o recipe.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RecipeFormat, "recipe-format", "", "input recipe format (json|yaml|cue; default from extension)")
	cmd.Flags().StringVar(&opts.To, "to", "json", "output format (json|yaml|cue)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func runCompile(opts *CompileOptions, recipePath string, cmd *cobra.Command) error {
	to, err := compiler.ParseFormat(opts.To)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --to", err)
	}
	steps, err := loadRecipe(recipePath, opts.RecipeFormat, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to compile recipe", err)
	}
	data, err := compiler.Marshal(steps, to)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to write recipe", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output file", err)
		}
		if opts.Format == "json" {
			return writeOK(cmd.OutOrStdout(), map[string]any{
				"recipe": recipePath,
				"output": opts.Output,
				"format": string(to),
				"steps":  len(steps),
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d steps to %s\n", len(steps), opts.Output)
		return nil
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
