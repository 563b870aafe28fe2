package engine

import (
	"context"

	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/store"
)

// AccountInfo is an account with its derived values.
type AccountInfo struct {
	ir.Account
	// Value is the staking-token worth of the account's shares.
	Value    uint64 `json:"value"`
	Unlocked uint64 `json:"unlocked"`
}

// Config returns the genesis configuration.
func (e *Engine) Config(ctx context.Context) (ir.Config, error) {
	var cfg ir.Config
	err := e.store.View(ctx, func(tx *store.Tx) error {
		var err error
		cfg, err = tx.Config(ctx)
		return err
	})
	return cfg, err
}

// State returns the ledger totals and counters.
func (e *Engine) State(ctx context.Context) (ir.State, error) {
	var st ir.State
	err := e.view(ctx, func(tx *store.Tx, _ *modules) error {
		var err error
		st, err = tx.State(ctx)
		return err
	})
	return st, err
}

// Proposal returns a proposal or NOT_FOUND.
func (e *Engine) Proposal(ctx context.Context, id uint64) (ir.Proposal, error) {
	var p ir.Proposal
	err := e.view(ctx, func(_ *store.Tx, m *modules) error {
		var err error
		p, err = m.gov.Get(ctx, id)
		return err
	})
	return p, err
}

// Proposals lists proposals matching f.
func (e *Engine) Proposals(ctx context.Context, f store.ProposalFilter) ([]ir.Proposal, error) {
	var ps []ir.Proposal
	err := e.view(ctx, func(_ *store.Tx, m *modules) error {
		var err error
		ps, err = m.gov.List(ctx, f)
		return err
	})
	return ps, err
}

// Votes returns the votes cast on a proposal.
func (e *Engine) Votes(ctx context.Context, id uint64) ([]ir.VoteRecord, error) {
	var votes []ir.VoteRecord
	err := e.view(ctx, func(_ *store.Tx, m *modules) error {
		var err error
		votes, err = m.gov.Votes(ctx, id)
		return err
	})
	return votes, err
}

// Account returns an account with its value and unlocked shares. Unknown
// addresses yield a zero account.
func (e *Engine) Account(ctx context.Context, addr ir.Address) (AccountInfo, error) {
	var info AccountInfo
	err := e.view(ctx, func(tx *store.Tx, m *modules) error {
		acct, _, err := tx.Account(ctx, addr)
		if err != nil {
			return err
		}
		info.Account = acct
		if info.Value, err = m.ledger.BalanceOf(ctx, addr); err != nil {
			return err
		}
		info.Unlocked, err = m.ledger.Unlocked(ctx, addr)
		return err
	})
	return info, err
}

// Accounts lists accounts ordered by address after the cursor.
func (e *Engine) Accounts(ctx context.Context, after ir.Address, limit int) ([]ir.Account, error) {
	var accts []ir.Account
	err := e.view(ctx, func(tx *store.Tx, _ *modules) error {
		var err error
		accts, err = tx.ListAccounts(ctx, after, limit)
		return err
	})
	return accts, err
}

// Schedule returns a reward schedule or NOT_FOUND.
func (e *Engine) Schedule(ctx context.Context, id uint64) (ir.RewardSchedule, error) {
	var s ir.RewardSchedule
	err := e.view(ctx, func(_ *store.Tx, m *modules) error {
		var err error
		s, err = m.rewards.Get(ctx, id)
		return err
	})
	return s, err
}

// Schedules lists reward schedules ordered by id after the cursor.
func (e *Engine) Schedules(ctx context.Context, after uint64, limit int) ([]ir.RewardSchedule, error) {
	var ss []ir.RewardSchedule
	err := e.view(ctx, func(_ *store.Tx, m *modules) error {
		var err error
		ss, err = m.rewards.List(ctx, after, limit)
		return err
	})
	return ss, err
}

// PendingRewards simulates settling addr at now and returns what it could
// claim per schedule.
func (e *Engine) PendingRewards(ctx context.Context, addr ir.Address, now uint64) ([]ir.RewardCheckpoint, error) {
	var cps []ir.RewardCheckpoint
	err := e.view(ctx, func(_ *store.Tx, m *modules) error {
		var err error
		cps, err = m.rewards.Pending(ctx, addr, now)
		return err
	})
	return cps, err
}

// Balances returns every token balance held by addr.
func (e *Engine) Balances(ctx context.Context, addr ir.Address) (map[string]uint64, error) {
	var bals map[string]uint64
	err := e.view(ctx, func(_ *store.Tx, m *modules) error {
		var err error
		bals, err = m.bank.Balances(ctx, addr)
		return err
	})
	return bals, err
}

// Outbox returns dispatched actions for a proposal, or all of them when
// proposalID is 0.
func (e *Engine) Outbox(ctx context.Context, proposalID uint64) ([]store.OutboxEntry, error) {
	var entries []store.OutboxEntry
	err := e.view(ctx, func(tx *store.Tx, _ *modules) error {
		var err error
		entries, err = tx.Outbox(ctx, proposalID)
		return err
	})
	return entries, err
}

// Invocations returns audit records with seq > after.
func (e *Engine) Invocations(ctx context.Context, after int64, limit int) ([]store.InvocationRecord, error) {
	var recs []store.InvocationRecord
	err := e.view(ctx, func(tx *store.Tx, _ *modules) error {
		var err error
		recs, err = tx.ReadInvocations(ctx, after, limit)
		return err
	})
	return recs, err
}

// CheckInvariants verifies the ledger invariants against the committed
// state. A violation is returned as *ir.InvariantViolation.
func (e *Engine) CheckInvariants(ctx context.Context) error {
	return e.view(ctx, func(_ *store.Tx, m *modules) error {
		return m.ledger.CheckInvariants(ctx)
	})
}
