// Package ledger converts deposited tokens into shares of a pooled balance
// and back. Shares are the source of truth for voting weight and reward
// entitlement.
//
// The share price is total_balance / total_share. It only rises: stake and
// unstake round in the pool's favor, and CreditExternal adds balance
// without minting shares.
package ledger

import (
	"context"

	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/store"
	"github.com/roach88/stakegov/internal/token"
)

// ShareChangeHook runs before an account's share (and so total_share)
// changes. The reward engine uses it to settle accrual at the old share.
type ShareChangeHook interface {
	BeforeShareChange(ctx context.Context, now uint64, owner ir.Address) error
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithHook installs a ShareChangeHook.
func WithHook(h ShareChangeHook) Option {
	return func(l *Ledger) {
		l.hook = h
	}
}

// Ledger is the share ledger bound to one store transaction.
type Ledger struct {
	tx    *store.Tx
	bank  *token.Bank
	denom string
	hook  ShareChangeHook
}

// New returns a ledger for the staking token denom.
func New(tx *store.Tx, bank *token.Bank, denom string, opts ...Option) *Ledger {
	l := &Ledger{tx: tx, bank: bank, denom: denom}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Stake deposits amount of the staking token from the sender and mints
// shares at the pre-deposit price. It returns the minted shares.
func (l *Ledger) Stake(ctx context.Context, env ir.Env, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ir.Errorf(ir.CodeZeroAmount, "stake amount must be positive")
	}
	st, err := l.tx.State(ctx)
	if err != nil {
		return 0, err
	}

	var minted uint64
	if st.TotalShare == 0 {
		minted = amount
	} else {
		if st.TotalBalance == 0 {
			ir.Breach("share-backing", "total_share %d with zero total_balance", st.TotalShare)
		}
		minted, err = ir.MulDiv(amount, st.TotalShare, st.TotalBalance)
		if err != nil {
			return 0, err
		}
		if minted == 0 {
			return 0, ir.Errorf(ir.CodeZeroAmount,
				"deposit of %d mints no shares at price %d/%d", amount, st.TotalBalance, st.TotalShare)
		}
	}

	newShare, err := ir.Add(st.TotalShare, minted)
	if err != nil {
		return 0, err
	}
	newBalance, err := ir.Add(st.TotalBalance, amount)
	if err != nil {
		return 0, err
	}

	if err := l.beforeShareChange(ctx, env.Now, env.Sender); err != nil {
		return 0, err
	}

	acct, _, err := l.tx.Account(ctx, env.Sender)
	if err != nil {
		return 0, err
	}
	// Cannot overflow: acct.Share <= st.TotalShare.
	acct.Share = ir.MustAdd(acct.Share, minted)

	if err := l.bank.Transfer(ctx, env.Sender, ir.PoolAddress, l.denom, amount); err != nil {
		return 0, err
	}
	if err := l.tx.PutAccount(ctx, acct); err != nil {
		return 0, err
	}
	// Hooks may have written state; reload before updating totals.
	if st, err = l.tx.State(ctx); err != nil {
		return 0, err
	}
	st.TotalShare, st.TotalBalance = newShare, newBalance
	return minted, l.tx.PutState(ctx, st)
}

// Unstake burns shares from the sender and pays out their value at the
// current price, rounded down.
func (l *Ledger) Unstake(ctx context.Context, env ir.Env, shares uint64) (uint64, error) {
	if shares == 0 {
		return 0, ir.Errorf(ir.CodeZeroAmount, "unstake amount must be positive")
	}
	unlocked, err := l.Unlocked(ctx, env.Sender)
	if err != nil {
		return 0, err
	}
	if shares > unlocked {
		return 0, ir.Errorf(ir.CodeInsufficientUnlockedShare,
			"%s has %d unlocked shares, requested %d", env.Sender, unlocked, shares)
	}

	st, err := l.tx.State(ctx)
	if err != nil {
		return 0, err
	}
	if shares > st.TotalShare {
		ir.Breach("share-sum", "account shares %d exceed total_share %d", shares, st.TotalShare)
	}
	payout, err := ir.MulDiv(shares, st.TotalBalance, st.TotalShare)
	if err != nil {
		return 0, err
	}
	if payout > st.TotalBalance {
		ir.Breach("share-backing", "payout %d exceeds total_balance %d", payout, st.TotalBalance)
	}

	if err := l.beforeShareChange(ctx, env.Now, env.Sender); err != nil {
		return 0, err
	}

	acct, _, err := l.tx.Account(ctx, env.Sender)
	if err != nil {
		return 0, err
	}
	acct.Share = ir.MustSub(acct.Share, shares)
	if err := l.tx.PutAccount(ctx, acct); err != nil {
		return 0, err
	}
	if err := l.bank.Transfer(ctx, ir.PoolAddress, env.Sender, l.denom, payout); err != nil {
		return 0, err
	}
	if st, err = l.tx.State(ctx); err != nil {
		return 0, err
	}
	st.TotalShare = ir.MustSub(st.TotalShare, shares)
	st.TotalBalance = ir.MustSub(st.TotalBalance, payout)
	return payout, l.tx.PutState(ctx, st)
}

// SharesForAmount returns the smallest share count whose payout is at
// least amount. Unstaking by amount uses it so the caller receives no less
// than requested.
func (l *Ledger) SharesForAmount(ctx context.Context, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ir.Errorf(ir.CodeZeroAmount, "unstake amount must be positive")
	}
	st, err := l.tx.State(ctx)
	if err != nil {
		return 0, err
	}
	if st.TotalShare == 0 || st.TotalBalance == 0 {
		return 0, ir.Errorf(ir.CodeInsufficientUnlockedShare, "pool is empty")
	}
	return ir.MulDivCeil(amount, st.TotalShare, st.TotalBalance)
}

// BalanceOf returns the token value of owner's shares, rounded down.
func (l *Ledger) BalanceOf(ctx context.Context, owner ir.Address) (uint64, error) {
	st, err := l.tx.State(ctx)
	if err != nil {
		return 0, err
	}
	if st.TotalShare == 0 {
		return 0, nil
	}
	acct, _, err := l.tx.Account(ctx, owner)
	if err != nil {
		return 0, err
	}
	return ir.MulDiv(acct.Share, st.TotalBalance, st.TotalShare)
}

// Unlocked returns owner's shares not locked by votes on in-progress
// proposals.
func (l *Ledger) Unlocked(ctx context.Context, owner ir.Address) (uint64, error) {
	acct, _, err := l.tx.Account(ctx, owner)
	if err != nil {
		return 0, err
	}
	locked, err := acct.LockedShares()
	if err != nil {
		return 0, err
	}
	if locked > acct.Share {
		ir.Breach("lock-bound", "%s locks %d of %d shares", owner, locked, acct.Share)
	}
	return acct.Share - locked, nil
}

// CreditExternal absorbs amount held by from into the pool without minting
// shares, raising the share price for every holder.
func (l *Ledger) CreditExternal(ctx context.Context, from ir.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	st, err := l.tx.State(ctx)
	if err != nil {
		return err
	}
	if st.TotalBalance, err = ir.Add(st.TotalBalance, amount); err != nil {
		return err
	}
	if err := l.bank.Transfer(ctx, from, ir.PoolAddress, l.denom, amount); err != nil {
		return err
	}
	return l.tx.PutState(ctx, st)
}

// Totals returns total_share and total_balance.
func (l *Ledger) Totals(ctx context.Context) (ir.Ledger, error) {
	st, err := l.tx.State(ctx)
	if err != nil {
		return ir.Ledger{}, err
	}
	return st.Ledger, nil
}

func (l *Ledger) beforeShareChange(ctx context.Context, now uint64, owner ir.Address) error {
	if l.hook == nil {
		return nil
	}
	return l.hook.BeforeShareChange(ctx, now, owner)
}
