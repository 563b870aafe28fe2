package engine

import (
	"context"

	"github.com/roach88/stakegov/internal/ir"
)

// execute routes one invocation to its module and renders the output.
func (m *modules) execute(ctx context.Context, inv ir.Invocation) (ir.IRObject, error) {
	env := inv.Env()
	args := inv.Args

	switch inv.Op {
	case ir.OpMint:
		return m.mint(ctx, env, args)

	case ir.OpStake:
		amount, err := args.Uint("amount")
		if err != nil {
			return nil, err
		}
		minted, err := m.ledger.Stake(ctx, env, amount)
		if err != nil {
			return nil, err
		}
		return ir.IRObject{"minted_shares": ir.Uint(minted)}, nil

	case ir.OpUnstake:
		return m.unstake(ctx, env, args)

	case ir.OpCreateProposal:
		deposit, err := args.Uint("deposit")
		if err != nil {
			return nil, err
		}
		actions, err := ir.ParseActions(args["actions"])
		if err != nil {
			return nil, err
		}
		var meta ir.Metadata
		if meta.Title, err = args.OptStr("title"); err != nil {
			return nil, err
		}
		if meta.Description, err = args.OptStr("description"); err != nil {
			return nil, err
		}
		id, err := m.gov.Create(ctx, env, deposit, actions, meta)
		if err != nil {
			return nil, err
		}
		return ir.IRObject{"proposal_id": ir.Uint(id)}, nil

	case ir.OpCastVote:
		id, err := args.Uint("proposal_id")
		if err != nil {
			return nil, err
		}
		option, err := args.Str("option")
		if err != nil {
			return nil, err
		}
		weight, err := args.Uint("weight")
		if err != nil {
			return nil, err
		}
		if err := m.gov.CastVote(ctx, env, id, ir.VoteOption(option), weight); err != nil {
			return nil, err
		}
		return ir.IRObject{"proposal_id": ir.Uint(id), "weight": ir.Uint(weight)}, nil

	case ir.OpTakeSnapshot:
		id, err := args.Uint("proposal_id")
		if err != nil {
			return nil, err
		}
		total, err := m.gov.TakeSnapshot(ctx, env, id)
		if err != nil {
			return nil, err
		}
		return ir.IRObject{"proposal_id": ir.Uint(id), "snapshot_total": ir.Uint(total)}, nil

	case ir.OpTally:
		id, err := args.Uint("proposal_id")
		if err != nil {
			return nil, err
		}
		status, err := m.gov.Tally(ctx, env, id)
		if err != nil {
			return nil, err
		}
		return statusOutput(id, status), nil

	case ir.OpExecute:
		id, err := args.Uint("proposal_id")
		if err != nil {
			return nil, err
		}
		if err := m.gov.Execute(ctx, env, id); err != nil {
			return nil, err
		}
		return statusOutput(id, ir.StatusExecuted), nil

	case ir.OpExpire:
		id, err := args.Uint("proposal_id")
		if err != nil {
			return nil, err
		}
		if err := m.gov.Expire(ctx, env, id); err != nil {
			return nil, err
		}
		return statusOutput(id, ir.StatusExpired), nil

	case ir.OpInstantiate:
		return m.instantiate(ctx, env, args)

	case ir.OpUpdateSchedules:
		return m.updateSchedules(ctx, env, args)

	case ir.OpClaimRewards:
		payouts, err := m.rewards.Claim(ctx, env)
		if err != nil {
			return nil, err
		}
		arr := make(ir.IRArray, len(payouts))
		for i, p := range payouts {
			arr[i] = ir.IRObject{
				"schedule_id": ir.Uint(p.ScheduleID),
				"denom":       ir.IRString(p.Denom),
				"amount":      ir.Uint(p.Amount),
			}
		}
		return ir.IRObject{"payouts": arr}, nil

	case ir.OpAllocateRewards, ir.OpDeallocateReward:
		id, err := args.Uint("schedule_id")
		if err != nil {
			return nil, err
		}
		account, err := args.Str("account")
		if err != nil {
			return nil, err
		}
		amount, err := args.Uint("amount")
		if err != nil {
			return nil, err
		}
		if inv.Op == ir.OpAllocateRewards {
			err = m.rewards.Allocate(ctx, env, id, ir.Address(account), amount)
		} else {
			err = m.rewards.Deallocate(ctx, env, id, ir.Address(account), amount)
		}
		if err != nil {
			return nil, err
		}
		return ir.IRObject{
			"schedule_id": ir.Uint(id),
			"account":     ir.IRString(account),
			"amount":      ir.Uint(amount),
		}, nil
	}
	return nil, ir.Errorf(ir.CodeInvalidArgument, "unknown operation %q", inv.Op)
}

func statusOutput(id uint64, status ir.ProposalStatus) ir.IRObject {
	return ir.IRObject{"proposal_id": ir.Uint(id), "status": ir.IRString(status)}
}

// mint creates tokens out of thin air. Only the admin may mint; it exists
// so local setups can fund accounts.
func (m *modules) mint(ctx context.Context, env ir.Env, args ir.IRObject) (ir.IRObject, error) {
	if env.Sender != m.cfg.Admin {
		return nil, ir.Errorf(ir.CodeUnauthorized, "%s is not the admin", env.Sender)
	}
	to, err := args.Str("to")
	if err != nil {
		return nil, err
	}
	if ir.Address(to).IsModule() || to == "" {
		return nil, ir.Errorf(ir.CodeInvalidArgument, "cannot mint to %q", to)
	}
	denom, err := args.OptStr("denom")
	if err != nil {
		return nil, err
	}
	if denom == "" {
		denom = m.cfg.StakingToken
	}
	amount, err := args.Uint("amount")
	if err != nil {
		return nil, err
	}
	if err := m.bank.Mint(ctx, ir.Address(to), denom, amount); err != nil {
		return nil, err
	}
	return ir.IRObject{"to": ir.IRString(to), "denom": ir.IRString(denom), "amount": ir.Uint(amount)}, nil
}

// unstake accepts exactly one of shares or amount. An amount is converted
// to the smallest share count paying at least that much.
func (m *modules) unstake(ctx context.Context, env ir.Env, args ir.IRObject) (ir.IRObject, error) {
	hasShares, hasAmount := args.Has("shares"), args.Has("amount")
	if hasShares == hasAmount {
		return nil, ir.Errorf(ir.CodeInvalidArgument, "unstake takes exactly one of shares or amount")
	}

	var (
		shares uint64
		err    error
	)
	if hasShares {
		shares, err = args.Uint("shares")
	} else {
		var amount uint64
		if amount, err = args.Uint("amount"); err == nil {
			shares, err = m.ledger.SharesForAmount(ctx, amount)
		}
	}
	if err != nil {
		return nil, err
	}

	payout, err := m.ledger.Unstake(ctx, env, shares)
	if err != nil {
		return nil, err
	}
	return ir.IRObject{"shares": ir.Uint(shares), "payout": ir.Uint(payout)}, nil
}

func (m *modules) instantiate(ctx context.Context, env ir.Env, args ir.IRObject) (ir.IRObject, error) {
	start := env.Now
	if v, err := args.OptUint("start"); err != nil {
		return nil, err
	} else if v != nil {
		start = *v
	}
	duration, err := args.Uint("duration")
	if err != nil {
		return nil, err
	}
	denom, err := args.Str("reward_token")
	if err != nil {
		return nil, err
	}
	rate, err := args.Uint("rate")
	if err != nil {
		return nil, err
	}
	id, err := m.rewards.Instantiate(ctx, env, start, duration, denom, rate)
	if err != nil {
		return nil, err
	}
	return ir.IRObject{"schedule_id": ir.Uint(id)}, nil
}

// updateSchedules advances one schedule when schedule_id is given, or a
// batch from the maintenance queue otherwise. A given account is settled
// against whatever was advanced.
func (m *modules) updateSchedules(ctx context.Context, env ir.Env, args ir.IRObject) (ir.IRObject, error) {
	id, err := args.OptUint("schedule_id")
	if err != nil {
		return nil, err
	}
	account, err := args.OptStr("account")
	if err != nil {
		return nil, err
	}

	if id != nil {
		s, err := m.rewards.UpdateSchedule(ctx, env, *id, ir.Address(account))
		if err != nil {
			return nil, err
		}
		return ir.IRObject{
			"schedule_id": ir.Uint(s.ID),
			"accumulator": ir.IRString(ir.FormatDecimal(s.Accumulator)),
		}, nil
	}

	ids, err := m.rewards.UpdateBatch(ctx, env)
	if err != nil {
		return nil, err
	}
	updated := make(ir.IRArray, len(ids))
	for i, v := range ids {
		updated[i] = ir.Uint(v)
	}
	out := ir.IRObject{"updated": updated}
	if account != "" {
		backlog, err := m.rewards.Settle(ctx, env.Now, ir.Address(account))
		if err != nil {
			return nil, err
		}
		out["settlement_pending"] = ir.IRBool(backlog)
	}
	return out, nil
}
