package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bake/internal/engine"
	"github.com/roach88/bake/internal/ops"
	"github.com/roach88/bake/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Input    string
}

// ReplayReport is the JSON payload of the replay command.
type ReplayReport struct {
	BakeID      string   `json:"bake_id"`
	Identical   bool     `json:"identical"`
	Drift       []string `json:"drift"`
	LogStatus   string   `json:"logged_status"`
	Status      string   `json:"status"`
	LogErrStep  int64    `json:"logged_error_step"`
	ErrorStep   int64    `json:"error_step"`
	OutputBytes int      `json:"output_bytes"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <bake-id>",
		Short: "Re-run a logged bake and check it reproduces",
		Long: `Re-run a logged bake's recipe on the same input and compare the result.

The input is not stored in the log, only its hash; pass the original input
with --input. A different input is rejected. The replay is not logged.

Reports drift in status, failing step, output kind, and output bytes.

Exit codes:
  0 - Replay reproduced the logged bake
  1 - Drift detected, or bake not found
  2 - Command error (database, input mismatch, etc.)

Examples:
  bake replay 0190a3c4-... --db ./bake.db --input data.bin
  bake replay 0190a3c4-... --db ./bake.db --input data.bin --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite bake log (overrides [store] database)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", `original input file ("-" for stdin; empty input if unset)`)

	return cmd
}

func runReplay(opts *ReplayOptions, bakeID string, cmd *cobra.Command) error {
	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	input, err := loadInput(opts.Input, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	st, err := openLog(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := bakeContext(context.Background(), cfg)
	defer cancel()

	eng := engine.New(ops.NewRegistry(), cfg.EngineOptions()...)
	result, err := st.Replay(ctx, eng, bakeID, input)
	var mismatch *store.InputMismatchError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if opts.Format == "json" {
			_ = writeFailure(cmd.OutOrStdout(), CodeNotFound, "bake not found", map[string]string{"bake_id": bakeID})
		}
		return NewExitError(ExitFailure, fmt.Sprintf("bake not found: %s", bakeID))
	case errors.As(err, &mismatch):
		return WrapExitError(ExitCommandError, "input does not match the logged bake", err)
	case err != nil:
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	report := ReplayReport{
		BakeID:      bakeID,
		Identical:   result.Identical(),
		Drift:       result.Drift,
		LogStatus:   result.Bake.Status,
		Status:      result.Status,
		LogErrStep:  result.Bake.ErrorStep,
		ErrorStep:   result.ErrorStep,
		OutputBytes: len(result.Output),
	}

	if opts.Format == "json" {
		if report.Identical {
			if err := writeOK(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		} else if err := writeFailure(cmd.OutOrStdout(), CodeReplayDrift, "replay drifted from the log", report); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		if report.Identical {
			fmt.Fprintf(w, "✓ %s reproduced (%s, %d bytes)\n", bakeID, report.Status, report.OutputBytes)
		} else {
			fmt.Fprintf(w, "✗ %s drifted: %v\n", bakeID, report.Drift)
			fmt.Fprintf(w, "    logged: %s (error step %d)\n", report.LogStatus, report.LogErrStep)
			fmt.Fprintf(w, "    replay: %s (error step %d)\n", report.Status, report.ErrorStep)
		}
	}

	if !report.Identical {
		return NewExitError(ExitFailure, fmt.Sprintf("replay of %s drifted: %v", bakeID, report.Drift))
	}
	return nil
}
