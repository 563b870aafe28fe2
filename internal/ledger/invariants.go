package ledger

import (
	"context"
	"fmt"

	"github.com/roach88/stakegov/internal/ir"
)

// CheckInvariants verifies the ledger against the account table and the
// pool's token balance. A non-nil result is an *ir.InvariantViolation.
//
// Checked:
//   - the sum of account shares equals total_share
//   - the pool holds exactly total_balance of the staking token
//   - shares are backed: total_share > 0 implies total_balance > 0
//   - no account locks more than it holds
func (l *Ledger) CheckInvariants(ctx context.Context) error {
	st, err := l.tx.State(ctx)
	if err != nil {
		return err
	}

	sum, err := l.tx.SumShares(ctx)
	if err != nil {
		return err
	}
	if sum != st.TotalShare {
		return violation("share-sum", "sum of shares %d != total_share %d", sum, st.TotalShare)
	}

	pool, err := l.bank.BalanceOf(ctx, ir.PoolAddress, l.denom)
	if err != nil {
		return err
	}
	if pool != st.TotalBalance {
		return violation("pool-balance", "pool holds %d, total_balance is %d", pool, st.TotalBalance)
	}

	if st.TotalShare > 0 && st.TotalBalance == 0 {
		return violation("share-backing", "total_share %d with zero total_balance", st.TotalShare)
	}

	accounts, err := l.tx.ListAccounts(ctx, "", 0)
	if err != nil {
		return err
	}
	for _, acct := range accounts {
		locked, err := acct.LockedShares()
		if err != nil {
			return err
		}
		if locked > acct.Share {
			return violation("lock-bound", "%s locks %d of %d shares", acct.Address, locked, acct.Share)
		}
	}
	return nil
}

func violation(name, format string, args ...any) error {
	return &ir.InvariantViolation{Invariant: name, Detail: fmt.Sprintf(format, args...)}
}
