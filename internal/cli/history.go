package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/queryir"
	"github.com/roach88/bake/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Where    []string
	Steps    bool
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List logged bakes",
		Long: `List bakes from the bake log, oldest first.

Filters are column=value equalities, combined with AND. Numbers and
true/false are typed; quote a value ("3") to compare it as a string.
With --steps, step rows are listed instead of bakes.

Bake columns:  id, recipe_hash, input_hash, status, error_step, output_kind, seq
Step columns:  bake_id, seq, step_index, op, depth, status, message

Examples:
  bake history --db ./bake.db
  bake history --db ./bake.db --where status=error
  bake history --db ./bake.db --steps --where op="From Base64" --limit 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite bake log (overrides [store] database)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter as column=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Steps, "steps", false, "list step rows instead of bakes")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows (0 for all)")

	return cmd
}

// openLog opens the bake log named by flagPath or the config file.
func openLog(opts *RootOptions, flagPath string) (*store.Store, error) {
	path := flagPath
	if path == "" {
		cfg, err := opts.Config()
		if err != nil {
			return nil, err
		}
		path = cfg.Store.Database
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set [store] database in the config file")
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// parseWhere turns --where flags into a predicate; nil when there are none.
func parseWhere(filters []string) (queryir.Predicate, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	pairs := make([]queryir.Equals, 0, len(filters))
	for _, f := range filters {
		eq, err := queryir.ParseEquals(f)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, eq)
	}
	return queryir.Where(pairs...), nil
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	filter, err := parseWhere(opts.Where)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --where", err)
	}

	st, err := openLog(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.Steps {
		steps, err := st.StepHistory(ctx, filter, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "history query failed", err)
		}
		if opts.Format == "json" {
			if steps == nil {
				steps = []ir.StepRecord{}
			}
			return writeOK(cmd.OutOrStdout(), steps)
		}
		return writeStepTable(cmd, steps, true)
	}

	bakes, err := st.History(ctx, filter, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "history query failed", err)
	}
	if opts.Format == "json" {
		if bakes == nil {
			bakes = []ir.BakeRecord{}
		}
		return writeOK(cmd.OutOrStdout(), bakes)
	}

	if len(bakes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No bakes found")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tSTATUS\tSTEPS\tOUTPUT\tERROR")
	for _, b := range bakes {
		errText := ""
		if b.Status == ir.BakeStatusError {
			errText = fmt.Sprintf("step %d: %s", b.ErrorStep, truncate(b.ErrorMessage, 48))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s (%d bytes)\t%s\n",
			b.Seq, b.ID, b.Status, len(b.Recipe), b.OutputKind, len(b.Output), errText)
	}
	return tw.Flush()
}

func writeStepTable(cmd *cobra.Command, steps []ir.StepRecord, withBake bool) error {
	if len(steps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No steps found")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if withBake {
		fmt.Fprint(tw, "BAKE\t")
	}
	fmt.Fprintln(tw, "SEQ\tSTEP\tOP\tSTATUS\tMESSAGE")
	for _, s := range steps {
		if withBake {
			fmt.Fprintf(tw, "%s\t", s.BakeID)
		}
		op := s.Op
		for range s.Depth {
			op = "  " + op
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", s.Seq, s.StepIndex, op, statusMarker(s.Status), s.Message)
	}
	return tw.Flush()
}

func statusMarker(status string) string {
	switch status {
	case ir.BakeStatusOK:
		return "✓"
	case ir.BakeStatusPaused:
		return "⏸"
	default:
		return "✗"
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
