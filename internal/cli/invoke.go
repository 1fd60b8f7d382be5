package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bake/internal/engine"
	"github.com/roach88/bake/internal/ir"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Args     string
	Input    string
	Database string

	// IDGenerator allows overriding the bake ID generator (for testing).
	IDGenerator engine.IDGenerator
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	return newInvokeCommand(&InvokeOptions{RootOptions: rootOpts})
}

func newInvokeCommand(opts *InvokeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke <operation>",
		Short: "Bake a single operation",
		Long: `Run one operation over an input without writing a recipe file.

Arguments are given as a JSON array in declaration order. Missing trailing
arguments take their defaults; "bake ops <operation>" lists them.

Examples:
  echo -n hello | bake invoke "To Base64" --input -
  bake invoke "Reverse" --args '["Line"]' --input lines.txt
  bake invoke "To Hex" --args '["Space", 0]' --input data.bin --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeOperation(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Args, "args", "[]", "operation arguments as a JSON array")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", `input file ("-" for stdin; empty input if unset)`)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite bake log (overrides [store] database)")

	return cmd
}

// parseInvokeArgs decodes --args. A bare scalar or object is shorthand for
// a one-element list.
func parseInvokeArgs(raw string) (ir.IRArray, error) {
	v, err := ir.UnmarshalIRValue([]byte(raw))
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case ir.IRArray:
		return val, nil
	case ir.IRNull:
		return ir.IRArray{}, nil
	default:
		return ir.IRArray{val}, nil
	}
}

func invokeOperation(opts *InvokeOptions, op string, cmd *cobra.Command) error {
	cfg, err := opts.Config()
	if err != nil {
		return err
	}

	args, err := parseInvokeArgs(opts.Args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --args JSON", err)
	}
	input, err := loadInput(opts.Input, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	req := bakeRequest{
		Steps:    []ir.StepConfig{{Op: op, Args: args}},
		Input:    input,
		Database: cfg.Store.Database,
		IDs:      opts.IDGenerator,
	}
	if opts.Database != "" {
		req.Database = opts.Database
	}

	ctx, cancel := bakeContext(cmd.Context(), cfg)
	defer cancel()

	out, err := executeBake(ctx, cfg, req)
	if err != nil {
		return err
	}
	if opts.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "bake %s: %s\n", out.Bake.ID, out.Bake.Status)
	}
	return reportBake(opts.Format, cmd.OutOrStdout(), cmd.ErrOrStderr(), out)
}
