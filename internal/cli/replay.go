package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stakegov/internal/engine"
	"github.com/roach88/stakegov/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Limit int
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Verify the audit log by replaying it into a fresh ledger",
		Long: `Replay every committed invocation from the audit log into an empty
in-memory ledger initialized with the same config, and compare each
digest and result with what was recorded.

Exit codes:
  0 - Replay reproduced the log exactly
  1 - A record diverged or was rejected on replay
  2 - Command error (database not found, etc.)

Example:
  stakegov replay --db ./gov.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "replay only the first N records (0 for all)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)
	ctx := cmd.Context()

	sess, err := openSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	cfg, err := sess.engine.Config(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read config", err)
	}
	records, err := sess.engine.Invocations(ctx, 0, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read audit log", err)
	}
	out.VerboseLog("replaying %d record(s)", len(records))

	mem, err := store.Open(store.MemoryPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open replay store", err)
	}
	defer mem.Close()

	fresh := engine.New(mem,
		engine.WithLogger(opts.log()),
		engine.WithInvariantChecks(true),
	)
	if err := fresh.Init(ctx, cfg); err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize replay", err)
	}

	report, err := engine.Replay(ctx, fresh, records)
	if err != nil {
		if outErr := out.Error("E_REPLAY_REJECTED", err.Error(), report); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "replay rejected", err)
	}
	if !report.OK() {
		if outErr := out.Error("E_REPLAY_DIVERGED",
			fmt.Sprintf("%d mismatch(es) in %d record(s)", len(report.Mismatches), report.Applied), report); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, "replay diverged")
	}
	return out.Success(report, fmt.Sprintf("✓ replayed %d record(s), no divergence", report.Applied))
}
