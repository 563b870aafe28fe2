package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/stakegov/internal/engine"
	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/store"
)

// QueryOptions holds flags shared by the query subcommands.
type QueryOptions struct {
	*RootOptions
	After  string
	Limit  int
	Status string
	Now    uint64
}

// NewQueryCommand creates the query command and its subcommands.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read state without changing it",
	}

	cmd.AddCommand(
		newQuery(opts, "config", "Governance config", cobra.NoArgs,
			func(ctx context.Context, e *engine.Engine, _ []string) (any, error) {
				return e.Config(ctx)
			}),
		newQuery(opts, "state", "Ledger totals and counters", cobra.NoArgs,
			func(ctx context.Context, e *engine.Engine, _ []string) (any, error) {
				return e.State(ctx)
			}),
		newQuery(opts, "proposal <id>", "One proposal", cobra.ExactArgs(1),
			func(ctx context.Context, e *engine.Engine, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				return e.Proposal(ctx, id)
			}),
		proposalsQuery(opts),
		newQuery(opts, "votes <proposal-id>", "Votes cast on a proposal", cobra.ExactArgs(1),
			func(ctx context.Context, e *engine.Engine, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				return e.Votes(ctx, id)
			}),
		newQuery(opts, "account <address>", "Shares, value and unlocked shares of an account", cobra.ExactArgs(1),
			func(ctx context.Context, e *engine.Engine, args []string) (any, error) {
				return e.Account(ctx, ir.Address(args[0]))
			}),
		pagedQuery(opts, "accounts", "Accounts holding shares",
			func(ctx context.Context, e *engine.Engine, after string, limit int) (any, error) {
				return e.Accounts(ctx, ir.Address(after), limit)
			}),
		newQuery(opts, "schedule <id>", "One reward schedule", cobra.ExactArgs(1),
			func(ctx context.Context, e *engine.Engine, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				return e.Schedule(ctx, id)
			}),
		pagedQuery(opts, "schedules", "Reward schedules",
			func(ctx context.Context, e *engine.Engine, after string, limit int) (any, error) {
				var cursor uint64
				if after != "" {
					var err error
					if cursor, err = parseID(after); err != nil {
						return nil, err
					}
				}
				return e.Schedules(ctx, cursor, limit)
			}),
		pendingQuery(opts),
		newQuery(opts, "balance <address>", "Token balances of an account", cobra.ExactArgs(1),
			func(ctx context.Context, e *engine.Engine, args []string) (any, error) {
				return e.Balances(ctx, ir.Address(args[0]))
			}),
		newQuery(opts, "outbox <proposal-id>", "Actions dispatched by an executed proposal", cobra.ExactArgs(1),
			func(ctx context.Context, e *engine.Engine, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				return e.Outbox(ctx, id)
			}),
		newQuery(opts, "invariants", "Check the ledger invariants", cobra.NoArgs,
			func(ctx context.Context, e *engine.Engine, _ []string) (any, error) {
				if err := e.CheckInvariants(ctx); err != nil {
					return nil, err
				}
				return map[string]bool{"ok": true}, nil
			}),
	)

	return cmd
}

type queryFunc func(ctx context.Context, e *engine.Engine, args []string) (any, error)

func newQuery(opts *QueryOptions, use, short string, posArgs cobra.PositionalArgs, fn queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  posArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, func(ctx context.Context, e *engine.Engine) (any, error) {
				return fn(ctx, e, args)
			})
		},
	}
}

func pagedQuery(opts *QueryOptions, use, short string, fn func(ctx context.Context, e *engine.Engine, after string, limit int) (any, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, opts, func(ctx context.Context, e *engine.Engine) (any, error) {
				return fn(ctx, e, opts.After, opts.Limit)
			})
		},
	}
	cmd.Flags().StringVar(&opts.After, "after", "", "exclusive cursor")
	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "maximum entries (0 for all)")
	return cmd
}

func proposalsQuery(opts *QueryOptions) *cobra.Command {
	cmd := pagedQuery(opts, "proposals", "Proposals, optionally by status",
		func(ctx context.Context, e *engine.Engine, after string, limit int) (any, error) {
			f := store.ProposalFilter{Status: ir.ProposalStatus(opts.Status), Limit: limit}
			if after != "" {
				var err error
				if f.After, err = parseID(after); err != nil {
					return nil, err
				}
			}
			return e.Proposals(ctx, f)
		})
	cmd.Flags().StringVar(&opts.Status, "status", "", "in_progress, passed, rejected, executed or expired")
	return cmd
}

func pendingQuery(opts *QueryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending <address>",
		Short: "Rewards an account could claim at a given time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, func(ctx context.Context, e *engine.Engine) (any, error) {
				now, err := resolveNow(ctx, cmd, e, opts.Now)
				if err != nil {
					return nil, err
				}
				return e.PendingRewards(ctx, ir.Address(args[0]), now)
			})
		},
	}
	cmd.Flags().Uint64Var(&opts.Now, "now", 0, "logical time (default: time of the last invocation)")
	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, fn func(ctx context.Context, e *engine.Engine) (any, error)) error {
	out := newFormatter(cmd, opts.RootOptions)
	sess, err := openSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	data, err := fn(cmd.Context(), sess.engine)
	if err != nil {
		return out.Rejection(err)
	}
	return out.Success(data, "")
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ir.Errorf(ir.CodeInvalidArgument, "invalid id %q", s)
	}
	if id == 0 {
		return 0, ir.Errorf(ir.CodeInvalidArgument, "ids start at 1")
	}
	return id, nil
}

