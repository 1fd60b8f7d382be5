package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bake/internal/ir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
}

// TraceResult holds a logged bake and its steps.
type TraceResult struct {
	Bake  ir.BakeRecord   `json:"bake"`
	Steps []ir.StepRecord `json:"steps"`
	Stats TraceStats      `json:"stats"`
}

// TraceStats summarizes a bake's step rows.
type TraceStats struct {
	TotalSteps int   `json:"total_steps"`
	Branches   int   `json:"branch_steps"`
	Failed     int   `json:"failed"`
	ElapsedNS  int64 `json:"elapsed_ns"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <bake-id>",
		Short: "Show the steps of a logged bake",
		Long: `Show one logged bake and every step it executed, in event order.

Steps run inside Fork branches are indented by depth. Step indices are
absolute positions in the recipe.

Examples:
  bake trace 0190a3c4-... --db ./bake.db
  bake trace 0190a3c4-... --db ./bake.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite bake log (overrides [store] database)")

	return cmd
}

func runTrace(opts *TraceOptions, bakeID string, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openLog(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	bake, err := st.ReadBake(ctx, bakeID)
	if errors.Is(err, sql.ErrNoRows) {
		if opts.Format == "json" {
			_ = writeFailure(cmd.OutOrStdout(), CodeNotFound, "bake not found", map[string]string{"bake_id": bakeID})
		}
		return NewExitError(ExitFailure, fmt.Sprintf("bake not found: %s", bakeID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read bake", err)
	}
	steps, err := st.ReadSteps(ctx, bakeID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read steps", err)
	}
	if steps == nil {
		steps = []ir.StepRecord{}
	}

	result := TraceResult{Bake: bake, Steps: steps, Stats: traceStats(steps)}
	if opts.Format == "json" {
		return writeOK(cmd.OutOrStdout(), result)
	}
	return outputTraceText(cmd, result)
}

func traceStats(steps []ir.StepRecord) TraceStats {
	stats := TraceStats{TotalSteps: len(steps)}
	for _, s := range steps {
		if s.Depth > 0 {
			stats.Branches++
		}
		if s.Status == ir.BakeStatusError {
			stats.Failed++
		}
		stats.ElapsedNS += s.ElapsedNS
	}
	return stats
}

func outputTraceText(cmd *cobra.Command, result TraceResult) error {
	w := cmd.OutOrStdout()
	b := result.Bake
	fmt.Fprintf(w, "Bake %s (seq %d)\n", b.ID, b.Seq)
	fmt.Fprintf(w, "  status:  %s %s\n", statusMarker(b.Status), b.Status)
	if b.Status == ir.BakeStatusError {
		fmt.Fprintf(w, "  error:   step %d: %s\n", b.ErrorStep, b.ErrorMessage)
	}
	fmt.Fprintf(w, "  recipe:  %d steps (%s)\n", len(b.Recipe), truncate(b.RecipeHash, 16))
	fmt.Fprintf(w, "  input:   %s\n", truncate(b.InputHash, 16))
	fmt.Fprintf(w, "  output:  %s, %d bytes\n", b.OutputKind, len(b.Output))
	fmt.Fprintln(w)
	if err := writeStepTable(cmd, result.Steps, false); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d steps, %d in branches, %d failed\n",
		result.Stats.TotalSteps, result.Stats.Branches, result.Stats.Failed)
	return nil
}
