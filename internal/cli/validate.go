package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bake/internal/compiler"
	"github.com/roach88/bake/internal/ops"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	RecipeFormat string
}

// ValidateResult holds the diagnostics for one recipe.
type ValidateResult struct {
	Recipe      string                `json:"recipe"`
	Steps       int                   `json:"steps"`
	Valid       bool                  `json:"valid"`
	Diagnostics []compiler.Diagnostic `json:"diagnostics"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <recipe>",
		Short: "Check a recipe without running it",
		Long: `Check a recipe against the operation catalogue without running it.

Reports unknown operations, ill-typed or surplus arguments, option values
outside their choices, and jumps to missing labels as errors. Unclosed
Fork blocks, stray Merges, duplicate labels, and register-dependent jump
targets are reported as warnings.

Exit codes: 0 valid (warnings allowed), 1 errors found, 2 unreadable recipe.

Examples:
  bake validate recipe.json
  bake validate recipe.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RecipeFormat, "recipe-format", "", "recipe format (json|yaml|cue; default from extension)")

	return cmd
}

func runValidate(opts *ValidateOptions, recipePath string, cmd *cobra.Command) error {
	steps, err := loadRecipe(recipePath, opts.RecipeFormat, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load recipe", err)
	}

	diags := compiler.Validate(ops.NewRegistry(), steps)
	if diags == nil {
		diags = []compiler.Diagnostic{}
	}
	result := ValidateResult{
		Recipe:      recipePath,
		Steps:       len(steps),
		Valid:       !compiler.HasErrors(diags),
		Diagnostics: diags,
	}

	if opts.Format == "json" {
		if result.Valid {
			if err := writeOK(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		} else if err := writeFailure(cmd.OutOrStdout(), CodeInvalidRecipe, "recipe has errors", result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, d := range diags {
			marker := "⚠"
			if d.Severity == compiler.SeverityError {
				marker = "✗"
			}
			fmt.Fprintf(w, "%s %s\n", marker, d.Error())
		}
		if result.Valid {
			fmt.Fprintf(w, "✓ %s: %d steps valid\n", recipePath, len(steps))
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: recipe has errors", recipePath))
	}
	return nil
}
