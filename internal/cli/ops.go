package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
	"github.com/roach88/bake/internal/ops"
)

// OpsOptions holds flags for the ops command.
type OpsOptions struct {
	*RootOptions
	Module string
}

// OpInfo describes an operation for listings.
type OpInfo struct {
	Name        string    `json:"name"`
	Module      string    `json:"module"`
	Description string    `json:"description,omitempty"`
	InputType   string    `json:"input_type"`
	OutputType  string    `json:"output_type"`
	FlowControl bool      `json:"flow_control,omitempty"`
	Args        []ArgInfo `json:"args,omitempty"`
}

// ArgInfo describes one operation argument.
type ArgInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Default any      `json:"default"`
	Options []string `json:"options,omitempty"`
}

// NewOpsCommand creates the ops command.
func NewOpsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OpsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ops [operation]",
		Short: "List operations or describe one",
		Long: `List the operation catalogue, or describe one operation's arguments.

Examples:
  bake ops
  bake ops --module Crypto
  bake ops "From Base64" --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return describeOp(opts, args[0], cmd)
			}
			return listOps(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "only list operations of this module")

	return cmd
}

func opInfo(d *operation.Descriptor) OpInfo {
	info := OpInfo{
		Name:        d.Name,
		Module:      d.Module,
		Description: d.Description,
		InputType:   d.InputType.String(),
		OutputType:  d.OutputType.String(),
		FlowControl: d.FlowControl,
	}
	for _, a := range d.Args {
		info.Args = append(info.Args, ArgInfo{
			Name:    a.Name,
			Type:    string(a.Type),
			Default: ir.ToGo(a.DefaultValue()),
			Options: a.Options,
		})
	}
	return info
}

func listOps(opts *OpsOptions, cmd *cobra.Command) error {
	var infos []OpInfo
	for _, d := range ops.NewRegistry().List() {
		if opts.Module != "" && !strings.EqualFold(d.Module, opts.Module) {
			continue
		}
		infos = append(infos, opInfo(d))
	}

	if opts.Format == "json" {
		if infos == nil {
			infos = []OpInfo{}
		}
		return writeOK(cmd.OutOrStdout(), infos)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODULE\tINPUT\tOUTPUT")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, info.Module, info.InputType, info.OutputType)
	}
	return tw.Flush()
}

func describeOp(opts *OpsOptions, name string, cmd *cobra.Command) error {
	d, err := ops.NewRegistry().Get(name)
	if err != nil {
		return WrapExitError(ExitFailure, "unknown operation", err)
	}
	info := opInfo(d)

	if opts.Format == "json" {
		return writeOK(cmd.OutOrStdout(), info)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%s)\n", info.Name, info.Module)
	if info.Description != "" {
		fmt.Fprintf(w, "  %s\n", info.Description)
	}
	fmt.Fprintf(w, "  input: %s  output: %s\n", info.InputType, info.OutputType)
	if info.FlowControl {
		fmt.Fprintln(w, "  flow control")
	}
	for i, a := range info.Args {
		fmt.Fprintf(w, "  [%d] %s (%s) default %v", i, a.Name, a.Type, a.Default)
		if len(a.Options) > 0 {
			fmt.Fprintf(w, " options: %s", strings.Join(a.Options, ", "))
		}
		fmt.Fprintln(w)
	}
	return nil
}
