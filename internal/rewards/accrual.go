package rewards

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakegov/internal/ir"
)

func clamp(v, lo, hi uint64) uint64 {
	return min(max(v, lo), hi)
}

// advance moves the accumulator of s forward to now at the given
// total_share. Time outside [start, end] accrues nothing, and neither does
// time during which no shares exist.
func advance(s *ir.RewardSchedule, now, totalShare uint64) {
	end := s.End()
	from := clamp(s.LastUpdateTime, s.StartTime, end)
	to := clamp(now, s.StartTime, end)
	if to > from && totalShare > 0 {
		s.Accumulator = s.Accumulator.Add(ir.RewardPerShare(to-from, s.Rate, totalShare))
	}
	s.LastUpdateTime = max(s.LastUpdateTime, now)
}

func (e *Engine) advanceAndStore(ctx context.Context, s *ir.RewardSchedule, now, totalShare uint64) error {
	before := *s
	advance(s, now, totalShare)
	if s.LastUpdateTime == before.LastUpdateTime && s.Accumulator.Equal(before.Accumulator) {
		return nil
	}
	return e.tx.PutSchedule(ctx, *s)
}

// BeforeShareChange settles owner at now. The ledger calls it before any
// stake or unstake. It fails with SETTLEMENT_PENDING when retired
// schedules remain unsettled after one batch.
func (e *Engine) BeforeShareChange(ctx context.Context, now uint64, owner ir.Address) error {
	backlog, err := e.Settle(ctx, now, owner)
	if err != nil {
		return err
	}
	if backlog {
		return ir.Errorf(ir.CodeSettlementPending,
			"%s has retired reward schedules left to settle; run claim_rewards or update_schedules with the account first", owner)
	}
	return nil
}

// Settle brings owner's checkpoints up to date at now. Every queued
// schedule is advanced and settled. Retired schedules the account has not
// been settled against are folded in retirement order, at most
// max_update_batch per call. Settle reports whether any remain; only a
// call that leaves none moves rewards_settled_at.
func (e *Engine) Settle(ctx context.Context, now uint64, owner ir.Address) (backlog bool, err error) {
	acct, _, err := e.tx.Account(ctx, owner)
	if err != nil {
		return false, err
	}
	st, err := e.tx.State(ctx)
	if err != nil {
		return false, err
	}

	ids, err := e.tx.QueueFront(ctx, 0)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		s, err := e.schedule(ctx, id)
		if err != nil {
			return false, err
		}
		if err := e.advanceAndStore(ctx, &s, now, st.TotalShare); err != nil {
			return false, err
		}
		if _, err := e.settleOne(ctx, s, acct); err != nil {
			return false, err
		}
	}

	before := acct
	if acct.Share == 0 {
		// Nothing accrued since the last share change.
		acct.RetiredCursor = st.RetiredCount
	} else if acct.RetiredCursor < st.RetiredCount {
		retired, err := e.tx.RetiredSchedules(ctx, acct.RetiredCursor, e.cfg.MaxUpdateBatch)
		if err != nil {
			return false, err
		}
		for _, s := range retired {
			if err := e.settleRetired(ctx, s, acct); err != nil {
				return false, err
			}
			acct.RetiredCursor = s.RetiredSeq
		}
	}

	backlog = acct.RetiredCursor < st.RetiredCount
	if !backlog {
		acct.RewardsSettledAt = max(acct.RewardsSettledAt, now)
	}
	if acct.RetiredCursor == before.RetiredCursor && acct.RewardsSettledAt == before.RewardsSettledAt {
		return backlog, nil
	}
	return backlog, e.tx.PutAccount(ctx, acct)
}

// settled reports whether acct has been fully settled against s, so that a
// missing checkpoint means nothing more is owed.
func settled(s ir.RewardSchedule, acct ir.Account) bool {
	if s.Retired() && s.RetiredSeq <= acct.RetiredCursor {
		return true
	}
	return s.End() <= acct.RewardsSettledAt
}

// checkpoint returns the account's position in s. Without a stored
// checkpoint the position is the final accumulator if the account is
// already settled against s, and zero otherwise. A retired schedule the
// account has walked past never folds again.
func (e *Engine) checkpoint(ctx context.Context, s ir.RewardSchedule, acct ir.Account) (ir.RewardCheckpoint, bool, error) {
	cp, found, err := e.tx.Checkpoint(ctx, s.ID, acct.Address)
	if err != nil {
		return cp, found, err
	}
	if !found {
		cp = ir.RewardCheckpoint{ScheduleID: s.ID, Account: acct.Address, AccumulatorPaid: decimal.Zero}
		if settled(s, acct) {
			cp.AccumulatorPaid = s.Accumulator
		}
		return cp, false, nil
	}
	if s.Retired() && s.RetiredSeq <= acct.RetiredCursor {
		cp.AccumulatorPaid = s.Accumulator
	}
	return cp, true, nil
}

// fold credits (accumulator - paid) * share to the checkpoint.
func fold(cp *ir.RewardCheckpoint, s ir.RewardSchedule, share uint64) error {
	diff := s.Accumulator.Sub(cp.AccumulatorPaid)
	if diff.IsNegative() {
		ir.Breach("accumulator-monotonic",
			"schedule %d accumulator %s behind checkpoint %s of %s", s.ID, s.Accumulator, cp.AccumulatorPaid, cp.Account)
	}
	delta, err := ir.MulFloor(diff, share)
	if err != nil {
		return err
	}
	if cp.AccruedUnclaimed, err = ir.Add(cp.AccruedUnclaimed, delta); err != nil {
		return err
	}
	cp.AccumulatorPaid = s.Accumulator
	return nil
}

// settleOne folds the accrual of one schedule into the account's
// checkpoint and stores it. s must already be advanced.
func (e *Engine) settleOne(ctx context.Context, s ir.RewardSchedule, acct ir.Account) (ir.RewardCheckpoint, error) {
	cp, found, err := e.checkpoint(ctx, s, acct)
	if err != nil {
		return ir.RewardCheckpoint{}, err
	}
	if !found && cp.AccumulatorPaid.Equal(s.Accumulator) {
		return cp, nil
	}
	if err := fold(&cp, s, acct.Share); err != nil {
		return ir.RewardCheckpoint{}, err
	}
	return cp, e.tx.PutCheckpoint(ctx, cp)
}

// settleRetired folds a retired schedule into the account's checkpoint.
// The account is about to move past it, so a checkpoint left with nothing
// unclaimed is dropped.
func (e *Engine) settleRetired(ctx context.Context, s ir.RewardSchedule, acct ir.Account) error {
	cp, found, err := e.checkpoint(ctx, s, acct)
	if err != nil {
		return err
	}
	if err := fold(&cp, s, acct.Share); err != nil {
		return err
	}
	switch {
	case cp.AccruedUnclaimed > 0:
		return e.tx.PutCheckpoint(ctx, cp)
	case found:
		return e.tx.DeleteCheckpoint(ctx, s.ID, acct.Address)
	}
	return nil
}
