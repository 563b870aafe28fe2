package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/stakegov/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	Database    string
	ConfigFile  string
	LogLevel    string
	MetricsFile string

	// InvariantChecks verifies the ledger before every commit.
	InvariantChecks bool

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the stakegov CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	rt := config.DefaultRuntime

	cmd := &cobra.Command{
		Use:   "stakegov",
		Short: "stakegov - staking and governance ledger",
		Long: `A share-based staking ledger with proposal governance and reward streams.

All state lives in one SQLite database. Every command that changes state
applies exactly one invocation, committed atomically or not at all.

Settings may also come from STAKEGOV_* environment variables
(STAKEGOV_DB, STAKEGOV_LOG_LEVEL, STAKEGOV_FORMAT, ...). Flags win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyRuntime(cmd, opts); err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			logger, err := newLogger(cmd.ErrOrStderr(), opts)
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			opts.logger = logger
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.StringVar(&opts.Format, "format", rt.Format, "output format (json|text)")
	flags.StringVar(&opts.Database, "db", rt.Database, "path to SQLite database")
	flags.StringVar(&opts.ConfigFile, "config", "", "governance config file (.cue or .json) used by init")
	flags.StringVar(&opts.LogLevel, "log-level", rt.LogLevel, "log level (debug|info|warn|error)")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the command")
	flags.BoolVar(&opts.InvariantChecks, "invariant-checks", rt.InvariantChecks, "verify ledger invariants before every commit")

	cmd.AddCommand(NewInitCommand(opts))
	for _, spec := range opCommands {
		cmd.AddCommand(newOpCommand(opts, spec))
	}
	cmd.AddCommand(NewInvokeCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// applyRuntime fills every flag the user did not set from the environment.
func applyRuntime(cmd *cobra.Command, opts *RootOptions) error {
	flags := cmd.Flags()
	rt, err := config.LoadRuntime()
	if err != nil {
		return err
	}
	if !flags.Changed("db") {
		opts.Database = rt.Database
	}
	if !flags.Changed("config") {
		opts.ConfigFile = rt.ConfigFile
	}
	if !flags.Changed("log-level") {
		opts.LogLevel = rt.LogLevel
	}
	if !flags.Changed("format") {
		opts.Format = rt.Format
	}
	if !flags.Changed("metrics-file") {
		opts.MetricsFile = rt.MetricsFile
	}
	if !flags.Changed("invariant-checks") {
		opts.InvariantChecks = rt.InvariantChecks
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
