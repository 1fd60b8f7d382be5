package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bake/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	GoldenDir string // golden snapshot directory; empty skips golden checks
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario>...",
		Short: "Run recipe scenarios",
		Long: `Run YAML scenarios: a recipe, an input, and the expected outcome.

Each argument is a scenario file or a directory of *.yaml / *.yml files.
Scenarios check output, status, failing step, registers, and the step
trace; with --golden each trace is also compared against
<golden>/<scenario name>.golden. --update rewrites the golden files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing paths, etc.)

Examples:
  bake test ./scenarios
  bake test ./scenarios --golden ./testdata/golden
  bake test ./scenarios --golden ./testdata/golden --update
  bake test fork.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden snapshot directory")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	if opts.Update && opts.GoldenDir == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	files, err := harness.ExpandScenarioPaths(paths)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid scenario path", err)
	}
	if len(files) == 0 {
		if opts.Format == "json" {
			return writeOK(cmd.OutOrStdout(), &harness.SuiteResult{})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found")
		return nil
	}

	result, err := harness.RunSuite(cmd.Context(), files, harness.SuiteOptions{
		GoldenDir: opts.GoldenDir,
		Update:    opts.Update,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario run aborted", err)
	}

	if opts.Format == "json" {
		if result.OK() {
			if err := writeOK(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		} else if err := writeFailure(cmd.OutOrStdout(), CodeScenarioFailed, "scenarios failed", result); err != nil {
			return err
		}
	} else {
		outputTestText(cmd, result, opts.Verbose)
	}

	if !result.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.TotalScenarios))
	}
	return nil
}

func outputTestText(cmd *cobra.Command, result *harness.SuiteResult, verbose bool) {
	w := cmd.OutOrStdout()
	for _, f := range result.Failures {
		name := f.Scenario
		if name == "" {
			name = f.ScenarioPath
		}
		fmt.Fprintf(w, "✗ %s\n", name)
		if verbose {
			fmt.Fprintf(w, "    %s: %s\n", f.ScenarioPath, f.Error)
		} else {
			fmt.Fprintf(w, "    %s\n", truncate(f.Error, 200))
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total", result.Passed, result.Failed, result.TotalScenarios)
	if result.Updated > 0 {
		fmt.Fprintf(w, " (%d golden files updated)", result.Updated)
	}
	fmt.Fprintln(w)
}
