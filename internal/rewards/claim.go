package rewards

import (
	"context"
	"sort"

	"github.com/roach88/stakegov/internal/ir"
)

// Claim settles the sender and pays out its nonzero checkpoints from the
// rewards account, lowest schedule id first and at most one claim page per
// call. A checkpoint the account is fully settled against is removed; the
// rest are zeroed. Retired schedules left over by a partial settlement are
// picked up by the next claim.
func (e *Engine) Claim(ctx context.Context, env ir.Env) ([]ir.Payout, error) {
	if _, err := e.Settle(ctx, env.Now, env.Sender); err != nil {
		return nil, err
	}
	acct, _, err := e.tx.Account(ctx, env.Sender)
	if err != nil {
		return nil, err
	}
	cps, err := e.tx.ClaimableCheckpoints(ctx, env.Sender, e.claimPage())
	if err != nil {
		return nil, err
	}

	payouts := []ir.Payout{}
	for _, cp := range cps {
		s, err := e.schedule(ctx, cp.ScheduleID)
		if err != nil {
			return nil, err
		}
		if err := e.bank.Transfer(ctx, ir.RewardsAddress, env.Sender, s.RewardToken, cp.AccruedUnclaimed); err != nil {
			return nil, err
		}
		payouts = append(payouts, ir.Payout{
			ScheduleID: s.ID,
			Denom:      s.RewardToken,
			To:         env.Sender,
			Amount:     cp.AccruedUnclaimed,
		})

		if settled(s, acct) {
			err = e.tx.DeleteCheckpoint(ctx, cp.ScheduleID, cp.Account)
		} else {
			cp.AccruedUnclaimed = 0
			err = e.tx.PutCheckpoint(ctx, cp)
		}
		if err != nil {
			return nil, err
		}
	}
	return payouts, nil
}

// claimPage bounds the checkpoints one claim pays: every queued schedule
// plus one batch of retired ones.
func (e *Engine) claimPage() int {
	return e.cfg.MaxActiveSchedules + e.cfg.MaxUpdateBatch
}

// Allocate credits amount to account's unclaimed rewards in a schedule
// without touching the accumulator. Natural accrual is settled first.
func (e *Engine) Allocate(ctx context.Context, env ir.Env, id uint64, account ir.Address, amount uint64) error {
	cp, err := e.adjustable(ctx, env, id, account, amount)
	if err != nil {
		return err
	}
	if cp.AccruedUnclaimed, err = ir.Add(cp.AccruedUnclaimed, amount); err != nil {
		return err
	}
	return e.tx.PutCheckpoint(ctx, cp)
}

// Deallocate removes amount from account's unclaimed rewards in a
// schedule.
func (e *Engine) Deallocate(ctx context.Context, env ir.Env, id uint64, account ir.Address, amount uint64) error {
	cp, err := e.adjustable(ctx, env, id, account, amount)
	if err != nil {
		return err
	}
	if amount > cp.AccruedUnclaimed {
		return ir.Errorf(ir.CodeInsufficientAccrued,
			"%s has %d unclaimed in schedule %d, deallocating %d", account, cp.AccruedUnclaimed, id, amount)
	}
	cp.AccruedUnclaimed -= amount
	return e.tx.PutCheckpoint(ctx, cp)
}

// adjustable checks an admin adjustment and returns the settled checkpoint
// it applies to.
func (e *Engine) adjustable(ctx context.Context, env ir.Env, id uint64, account ir.Address, amount uint64) (ir.RewardCheckpoint, error) {
	if err := e.requireAdmin(env); err != nil {
		return ir.RewardCheckpoint{}, err
	}
	if amount == 0 {
		return ir.RewardCheckpoint{}, ir.Errorf(ir.CodeZeroAmount, "adjustment amount must be positive")
	}
	if account == "" || account.IsModule() {
		return ir.RewardCheckpoint{}, ir.Errorf(ir.CodeInvalidArgument, "invalid account %q", account)
	}
	s, err := e.UpdateSchedule(ctx, env, id, "")
	if err != nil {
		return ir.RewardCheckpoint{}, err
	}
	acct, _, err := e.tx.Account(ctx, account)
	if err != nil {
		return ir.RewardCheckpoint{}, err
	}
	cp, _, err := e.checkpoint(ctx, s, acct)
	if err != nil {
		return ir.RewardCheckpoint{}, err
	}
	if err := fold(&cp, s, acct.Share); err != nil {
		return ir.RewardCheckpoint{}, err
	}
	return cp, nil
}

// Pending returns what the next claim by account at now would pay. It
// follows the same bounds as Claim: queued schedules, one batch of retired
// schedules and one claim page of stored checkpoints. Nothing is written.
func (e *Engine) Pending(ctx context.Context, account ir.Address, now uint64) ([]ir.RewardCheckpoint, error) {
	acct, _, err := e.tx.Account(ctx, account)
	if err != nil {
		return nil, err
	}
	st, err := e.tx.State(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := e.tx.ClaimableCheckpoints(ctx, account, e.claimPage())
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]ir.RewardCheckpoint, len(stored))
	for _, cp := range stored {
		byID[cp.ScheduleID] = cp
	}
	preview := func(s ir.RewardSchedule) error {
		cp, found, err := e.checkpoint(ctx, s, acct)
		if err != nil {
			return err
		}
		if !found && cp.AccumulatorPaid.Equal(s.Accumulator) {
			return nil
		}
		if err := fold(&cp, s, acct.Share); err != nil {
			return err
		}
		byID[s.ID] = cp
		return nil
	}

	ids, err := e.tx.QueueFront(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		s, err := e.schedule(ctx, id)
		if err != nil {
			return nil, err
		}
		advance(&s, now, st.TotalShare)
		if err := preview(s); err != nil {
			return nil, err
		}
	}
	if acct.Share > 0 && acct.RetiredCursor < st.RetiredCount {
		retired, err := e.tx.RetiredSchedules(ctx, acct.RetiredCursor, e.cfg.MaxUpdateBatch)
		if err != nil {
			return nil, err
		}
		for _, s := range retired {
			if err := preview(s); err != nil {
				return nil, err
			}
		}
	}

	pending := make([]ir.RewardCheckpoint, 0, len(byID))
	for _, cp := range byID {
		if cp.AccruedUnclaimed > 0 {
			pending = append(pending, cp)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ScheduleID < pending[j].ScheduleID
	})
	if len(pending) > e.claimPage() {
		pending = pending[:e.claimPage()]
	}
	return pending, nil
}
