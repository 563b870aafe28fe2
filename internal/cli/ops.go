package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stakegov/internal/engine"
	"github.com/roach88/stakegov/internal/ir"
)

type argKind int

const (
	argUint argKind = iota
	argString
	// argJSONFile reads a JSON document from the named file.
	argJSONFile
)

// argFlag maps one flag to one invocation argument. The argument name is
// the flag name with dashes replaced by underscores.
type argFlag struct {
	name     string
	kind     argKind
	usage    string
	required bool
}

func (a argFlag) key() string {
	return strings.ReplaceAll(a.name, "-", "_")
}

// opCommand describes a command that applies one invocation.
type opCommand struct {
	use   string
	short string
	op    ir.Op
	args  []argFlag
}

var proposalIDFlag = argFlag{name: "proposal-id", kind: argUint, usage: "proposal id", required: true}

var opCommands = []opCommand{
	{use: "mint", short: "Mint tokens to an account (admin only)", op: ir.OpMint, args: []argFlag{
		{name: "to", kind: argString, usage: "recipient", required: true},
		{name: "denom", kind: argString, usage: "token denom (default: the staking token)"},
		{name: "amount", kind: argUint, usage: "amount to mint", required: true},
	}},
	{use: "stake", short: "Deposit staking tokens for shares", op: ir.OpStake, args: []argFlag{
		{name: "amount", kind: argUint, usage: "staking tokens to deposit", required: true},
	}},
	{use: "unstake", short: "Redeem shares for staking tokens", op: ir.OpUnstake, args: []argFlag{
		{name: "shares", kind: argUint, usage: "shares to redeem"},
		{name: "amount", kind: argUint, usage: "staking tokens to withdraw (rounded up to whole shares)"},
	}},
	{use: "propose", short: "Open a proposal, escrowing a deposit", op: ir.OpCreateProposal, args: []argFlag{
		{name: "deposit", kind: argUint, usage: "deposit in staking tokens", required: true},
		{name: "title", kind: argString, usage: "proposal title"},
		{name: "description", kind: argString, usage: "proposal description"},
		{name: "actions", kind: argJSONFile, usage: "JSON file with the action list"},
	}},
	{use: "vote", short: "Vote on a proposal, locking shares until it is decided", op: ir.OpCastVote, args: []argFlag{
		proposalIDFlag,
		{name: "option", kind: argString, usage: "yes or no", required: true},
		{name: "weight", kind: argUint, usage: "shares to vote with", required: true},
	}},
	{use: "snapshot", short: "Freeze the quorum denominator near the end of voting", op: ir.OpTakeSnapshot, args: []argFlag{proposalIDFlag}},
	{use: "tally", short: "Decide a proposal after voting ends", op: ir.OpTally, args: []argFlag{proposalIDFlag}},
	{use: "execute", short: "Dispatch a passed proposal's actions", op: ir.OpExecute, args: []argFlag{proposalIDFlag}},
	{use: "expire", short: "Close a passed proposal whose execution window lapsed", op: ir.OpExpire, args: []argFlag{proposalIDFlag}},
	{use: "schedule", short: "Create and fund a reward stream (admin only)", op: ir.OpInstantiate, args: []argFlag{
		{name: "start", kind: argUint, usage: "start time (default: now)"},
		{name: "duration", kind: argUint, usage: "stream duration", required: true},
		{name: "reward-token", kind: argString, usage: "reward denom", required: true},
		{name: "rate", kind: argUint, usage: "reward units per unit of time", required: true},
	}},
	{use: "update-schedules", short: "Advance reward streams", op: ir.OpUpdateSchedules, args: []argFlag{
		{name: "schedule-id", kind: argUint, usage: "advance one schedule (default: a batch from the queue)"},
		{name: "account", kind: argString, usage: "also settle this account"},
	}},
	{use: "claim", short: "Claim accrued rewards", op: ir.OpClaimRewards},
	{use: "allocate", short: "Credit unclaimed rewards to an account (admin only)", op: ir.OpAllocateRewards, args: []argFlag{
		{name: "schedule-id", kind: argUint, usage: "schedule id", required: true},
		{name: "account", kind: argString, usage: "account to credit", required: true},
		{name: "amount", kind: argUint, usage: "reward amount", required: true},
	}},
	{use: "deallocate", short: "Remove unclaimed rewards from an account (admin only)", op: ir.OpDeallocateReward, args: []argFlag{
		{name: "schedule-id", kind: argUint, usage: "schedule id", required: true},
		{name: "account", kind: argString, usage: "account to debit", required: true},
		{name: "amount", kind: argUint, usage: "reward amount", required: true},
	}},
}

// InvocationOptions are the flags shared by every state-changing command.
type InvocationOptions struct {
	*RootOptions
	Sender string
	Now    uint64
	ID     string
}

func addInvocationFlags(cmd *cobra.Command, opts *InvocationOptions) {
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "account sending the invocation (required)")
	cmd.Flags().Uint64Var(&opts.Now, "now", 0, "logical time (default: time of the last invocation)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "invocation id (default: a new UUIDv7)")
	_ = cmd.MarkFlagRequired("sender")
}

func newOpCommand(rootOpts *RootOptions, spec opCommand) *cobra.Command {
	opts := &InvocationOptions{RootOptions: rootOpts}
	uints := make(map[string]*uint64)
	strs := make(map[string]*string)

	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Long:  fmt.Sprintf("%s.\n\nApplies one %s invocation.", spec.short, spec.op),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := make(ir.IRObject, len(spec.args))
			for _, a := range spec.args {
				if !cmd.Flags().Changed(a.name) {
					continue
				}
				v, err := flagValue(a, uints, strs)
				if err != nil {
					return WrapExitError(ExitCommandError, "--"+a.name, err)
				}
				args[a.key()] = v
			}
			return applyInvocation(cmd, opts, spec.op, args)
		},
	}

	addInvocationFlags(cmd, opts)
	for _, a := range spec.args {
		switch a.kind {
		case argUint:
			uints[a.name] = cmd.Flags().Uint64(a.name, 0, a.usage)
		default:
			strs[a.name] = cmd.Flags().String(a.name, "", a.usage)
		}
		if a.required {
			_ = cmd.MarkFlagRequired(a.name)
		}
	}
	return cmd
}

func flagValue(a argFlag, uints map[string]*uint64, strs map[string]*string) (ir.IRValue, error) {
	switch a.kind {
	case argUint:
		return ir.Uint(*uints[a.name]), nil
	case argString:
		return ir.IRString(*strs[a.name]), nil
	case argJSONFile:
		data, err := os.ReadFile(*strs[a.name])
		if err != nil {
			return nil, err
		}
		return ir.UnmarshalIRValue(bytes.TrimSpace(data))
	}
	return nil, fmt.Errorf("unsupported flag kind %d", a.kind)
}

// resolveNow returns opts.Now if --now was given, else the time of the
// last committed invocation.
func resolveNow(ctx context.Context, cmd *cobra.Command, e *engine.Engine, now uint64) (uint64, error) {
	if cmd.Flags().Changed("now") {
		return now, nil
	}
	st, err := e.State(ctx)
	if err != nil {
		return 0, err
	}
	return st.LastTime, nil
}

// applyInvocation applies one invocation and reports the outcome.
func applyInvocation(cmd *cobra.Command, opts *InvocationOptions, op ir.Op, args ir.IRObject) error {
	out := newFormatter(cmd, opts.RootOptions)
	ctx := cmd.Context()

	sess, err := openSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	now, err := resolveNow(ctx, cmd, sess.engine, opts.Now)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read state", err)
	}
	inv := ir.Invocation{
		ID:     opts.ID,
		Op:     op,
		Sender: ir.Address(opts.Sender),
		Now:    now,
		Args:   args,
	}
	out.VerboseLog("applying %s by %s at %d", op, inv.Sender, now)

	res, err := sess.engine.Apply(ctx, inv)
	if err != nil {
		return out.Rejection(err)
	}
	return out.Success(res, describeResult(res))
}

func describeResult(res engine.Result) string {
	output, err := ir.MarshalCanonical(res.Output)
	if err != nil {
		output = []byte("?")
	}
	return fmt.Sprintf("%s committed (seq %d, id %s)\n%s", res.Op, res.Seq, res.ID, output)
}

// parseArgsJSON decodes a JSON object of invocation arguments.
func parseArgsJSON(s string) (ir.IRObject, error) {
	var args ir.IRObject
	if err := json.Unmarshal([]byte(s), &args); err != nil {
		return nil, err
	}
	return args, nil
}
