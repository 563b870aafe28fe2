package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stakegov/internal/config"
	"github.com/roach88/stakegov/internal/ir"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Admin string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a database and write genesis",
		Long: `Create the database and write the governance config.

The config comes from --config (CUE or JSON, checked against the schema).
Without one, the defaults are used with --admin as the admin account.

Examples:
  stakegov init --db ./gov.db --admin alice
  stakegov init --db ./gov.db --config ./governance.cue`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Admin, "admin", "admin", "admin account when no config file is given")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	var (
		cfg ir.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.LoadFile(opts.ConfigFile)
	} else {
		cfg, err = config.Default(ir.Address(opts.Admin))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	sess, err := openSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.engine.Init(cmd.Context(), cfg); err != nil {
		return out.Rejection(err)
	}
	return out.Success(cfg, fmt.Sprintf("initialized %s (admin %s, staking token %s)",
		opts.Database, cfg.Admin, cfg.StakingToken))
}
