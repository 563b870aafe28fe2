package rewards

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/store"
	"github.com/roach88/stakegov/internal/token"
)

// Engine is the reward stream engine bound to one store transaction.
type Engine struct {
	tx   *store.Tx
	bank *token.Bank
	cfg  ir.Config
}

// New returns an Engine.
func New(tx *store.Tx, bank *token.Bank, cfg ir.Config) *Engine {
	return &Engine{tx: tx, bank: bank, cfg: cfg}
}

func (e *Engine) requireAdmin(env ir.Env) error {
	if env.Sender != e.cfg.Admin {
		return ir.Errorf(ir.CodeUnauthorized, "%s is not the admin", env.Sender)
	}
	return nil
}

// Instantiate creates a schedule paying rate units of denom per unit of
// time. The full rate*duration is moved from the admin into the rewards
// account up front. It returns the schedule id.
func (e *Engine) Instantiate(ctx context.Context, env ir.Env, start, duration uint64, denom string, rate uint64) (uint64, error) {
	if err := e.requireAdmin(env); err != nil {
		return 0, err
	}
	switch {
	case denom == "":
		return 0, ir.Errorf(ir.CodeInvalidSchedule, "reward token is required")
	case start < env.Now:
		return 0, ir.Errorf(ir.CodeInvalidSchedule, "start %d is before now %d", start, env.Now)
	case duration == 0:
		return 0, ir.Errorf(ir.CodeInvalidSchedule, "duration must be positive")
	case rate == 0:
		return 0, ir.Errorf(ir.CodeInvalidSchedule, "rate must be positive")
	}
	if _, err := ir.AddTime(start, duration); err != nil {
		return 0, ir.Wrap(ir.CodeInvalidSchedule, err, "schedule ends beyond the time range")
	}
	funding, err := ir.Mul(rate, duration)
	if err != nil {
		return 0, ir.Wrap(ir.CodeInvalidSchedule, err, "funding rate*duration overflows")
	}

	if err := e.finalizeEnded(ctx, env.Now); err != nil {
		return 0, err
	}
	queued, err := e.tx.QueueLen(ctx)
	if err != nil {
		return 0, err
	}
	if queued >= e.cfg.MaxActiveSchedules {
		return 0, ir.Errorf(ir.CodeTooManySchedules,
			"%d schedules are active, limit is %d", queued, e.cfg.MaxActiveSchedules)
	}

	if err := e.bank.Transfer(ctx, env.Sender, ir.RewardsAddress, denom, funding); err != nil {
		return 0, err
	}

	st, err := e.tx.State(ctx)
	if err != nil {
		return 0, err
	}
	if st.ScheduleCount, err = ir.Add(st.ScheduleCount, 1); err != nil {
		return 0, err
	}
	s := ir.RewardSchedule{
		ID:             st.ScheduleCount,
		Funder:         env.Sender,
		StartTime:      start,
		Duration:       duration,
		RewardToken:    denom,
		Rate:           rate,
		Accumulator:    decimal.Zero,
		LastUpdateTime: env.Now,
		CreatedAt:      env.Now,
	}
	if err := e.tx.PutSchedule(ctx, s); err != nil {
		return 0, err
	}
	if err := e.tx.Enqueue(ctx, s.ID); err != nil {
		return 0, err
	}
	return s.ID, e.tx.PutState(ctx, st)
}

// finalizeEnded advances every queued schedule whose end has passed and
// retires it.
func (e *Engine) finalizeEnded(ctx context.Context, now uint64) error {
	ids, err := e.tx.QueueFront(ctx, 0)
	if err != nil {
		return err
	}
	totalShare, err := e.totalShare(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		s, err := e.schedule(ctx, id)
		if err != nil {
			return err
		}
		if s.End() > now {
			continue
		}
		if err := e.advanceAndStore(ctx, &s, now, totalShare); err != nil {
			return err
		}
		if err := e.retire(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// retire takes a finished schedule off the queue and numbers it in
// retirement order. Accounts settle retired schedules in that order.
func (e *Engine) retire(ctx context.Context, s ir.RewardSchedule) error {
	st, err := e.tx.State(ctx)
	if err != nil {
		return err
	}
	if st.RetiredCount, err = ir.Add(st.RetiredCount, 1); err != nil {
		return err
	}
	s.RetiredSeq = st.RetiredCount
	if err := e.tx.PutSchedule(ctx, s); err != nil {
		return err
	}
	if err := e.tx.Dequeue(ctx, s.ID); err != nil {
		return err
	}
	return e.tx.PutState(ctx, st)
}

// Get returns a schedule or NOT_FOUND.
func (e *Engine) Get(ctx context.Context, id uint64) (ir.RewardSchedule, error) {
	return e.schedule(ctx, id)
}

// List returns schedules ordered by id after the cursor.
func (e *Engine) List(ctx context.Context, after uint64, limit int) ([]ir.RewardSchedule, error) {
	return e.tx.ListSchedules(ctx, after, limit)
}

func (e *Engine) schedule(ctx context.Context, id uint64) (ir.RewardSchedule, error) {
	s, found, err := e.tx.Schedule(ctx, id)
	if err != nil {
		return ir.RewardSchedule{}, err
	}
	if !found {
		return ir.RewardSchedule{}, ir.Errorf(ir.CodeNotFound, "schedule %d not found", id)
	}
	return s, nil
}

func (e *Engine) totalShare(ctx context.Context) (uint64, error) {
	st, err := e.tx.State(ctx)
	if err != nil {
		return 0, err
	}
	return st.TotalShare, nil
}
