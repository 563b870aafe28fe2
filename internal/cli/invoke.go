package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/stakegov/internal/ir"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	InvocationOptions
	Args string
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{InvocationOptions: InvocationOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "invoke <op>",
		Short: "Apply an invocation given as raw JSON arguments",
		Long: `Apply one invocation by operation name with raw JSON arguments.

Numbers must be integers; amounts above 2^63-1 may be given as strings.

Example:
  stakegov invoke cast_vote --sender alice --now 10 --args '{"proposal_id":1,"option":"yes","weight":600}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invArgs, err := parseArgsJSON(opts.Args)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --args JSON", err)
			}
			return applyInvocation(cmd, &opts.InvocationOptions, ir.Op(args[0]), invArgs)
		},
	}

	addInvocationFlags(cmd, &opts.InvocationOptions)
	cmd.Flags().StringVar(&opts.Args, "args", "{}", "invocation arguments as a JSON object")

	return cmd
}
