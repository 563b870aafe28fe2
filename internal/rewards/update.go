package rewards

import (
	"context"

	"github.com/roach88/stakegov/internal/ir"
)

// UpdateSchedule advances one schedule to now. When account is non-empty
// its checkpoint for that schedule is settled as well.
func (e *Engine) UpdateSchedule(ctx context.Context, env ir.Env, id uint64, account ir.Address) (ir.RewardSchedule, error) {
	s, err := e.schedule(ctx, id)
	if err != nil {
		return ir.RewardSchedule{}, err
	}
	totalShare, err := e.totalShare(ctx)
	if err != nil {
		return ir.RewardSchedule{}, err
	}
	if err := e.advanceAndStore(ctx, &s, env.Now, totalShare); err != nil {
		return ir.RewardSchedule{}, err
	}
	if account == "" {
		return s, nil
	}
	acct, _, err := e.tx.Account(ctx, account)
	if err != nil {
		return ir.RewardSchedule{}, err
	}
	if _, err := e.settleOne(ctx, s, acct); err != nil {
		return ir.RewardSchedule{}, err
	}
	return s, nil
}

// UpdateBatch advances up to max_update_batch schedules from the front of
// the queue. Finished schedules are retired; the others move to the back. It returns the ids it advanced, in queue order.
func (e *Engine) UpdateBatch(ctx context.Context, env ir.Env) ([]uint64, error) {
	ids, err := e.tx.QueueFront(ctx, e.cfg.MaxUpdateBatch)
	if err != nil {
		return nil, err
	}
	totalShare, err := e.totalShare(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		s, err := e.schedule(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := e.advanceAndStore(ctx, &s, env.Now, totalShare); err != nil {
			return nil, err
		}
		if s.Finished() {
			err = e.retire(ctx, s)
		} else {
			err = e.tx.Enqueue(ctx, id)
		}
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
