package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/stakegov/internal/ir"
)

// Account returns the account at addr with its locked votes. A missing
// account is returned as a zero account; found reports whether a row
// existed.
func (t *Tx) Account(ctx context.Context, addr ir.Address) (acct ir.Account, found bool, err error) {
	acct = ir.Account{Address: addr}
	var (
		share     string
		settledAt int64
	)
	err = t.queryRow(ctx, `
		SELECT share, rewards_settled_at, retired_cursor FROM accounts WHERE address = ?
	`, string(addr)).Scan(&share, &settledAt, &acct.RetiredCursor)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return ir.Account{}, false, fmt.Errorf("read account %s: %w", addr, err)
	default:
		found = true
		if acct.Share, err = parseAmount(share); err != nil {
			return ir.Account{}, false, err
		}
		acct.RewardsSettledAt = uint64(settledAt)
	}

	acct.Locked, err = t.LockedVotes(ctx, addr)
	if err != nil {
		return ir.Account{}, false, err
	}
	return acct, found, nil
}

// PutAccount upserts the share and settlement position of an account. Locked
// votes are derived from the votes table and are not written here.
func (t *Tx) PutAccount(ctx context.Context, acct ir.Account) error {
	settledAt, err := sqlTime(acct.RewardsSettledAt)
	if err != nil {
		return err
	}
	err = t.exec(ctx, `
		INSERT INTO accounts (address, share, rewards_settled_at, retired_cursor)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			share = excluded.share,
			rewards_settled_at = excluded.rewards_settled_at,
			retired_cursor = excluded.retired_cursor
	`, string(acct.Address), formatAmount(acct.Share), settledAt, acct.RetiredCursor)
	if err != nil {
		return fmt.Errorf("write account %s: %w", acct.Address, err)
	}
	return nil
}

// ListAccounts returns accounts ordered by address, starting after the
// given address. limit <= 0 means no limit.
func (t *Tx) ListAccounts(ctx context.Context, after ir.Address, limit int) ([]ir.Account, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := t.query(ctx, `
		SELECT address, share, rewards_settled_at, retired_cursor FROM accounts
		WHERE address > ?
		ORDER BY address COLLATE BINARY ASC
		LIMIT ?
	`, string(after), limit)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}

	var accounts []ir.Account
	for rows.Next() {
		var (
			addr, share string
			settledAt   int64
			cursor      uint64
		)
		if err := rows.Scan(&addr, &share, &settledAt, &cursor); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan account: %w", err)
		}
		n, err := parseAmount(share)
		if err != nil {
			rows.Close()
			return nil, err
		}
		accounts = append(accounts, ir.Account{
			Address:          ir.Address(addr),
			Share:            n,
			RewardsSettledAt: uint64(settledAt),
			RetiredCursor:    cursor,
		})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	rows.Close()

	// Locked votes need a second query per account; the single connection
	// cannot run it while rows is open.
	for i := range accounts {
		locked, err := t.LockedVotes(ctx, accounts[i].Address)
		if err != nil {
			return nil, err
		}
		accounts[i].Locked = locked
	}

	if accounts == nil {
		accounts = []ir.Account{}
	}
	return accounts, nil
}

// SumShares adds the share of every account. It is used by the invariant
// check.
func (t *Tx) SumShares(ctx context.Context) (uint64, error) {
	rows, err := t.query(ctx, `SELECT share FROM accounts`)
	if err != nil {
		return 0, fmt.Errorf("query shares: %w", err)
	}
	defer rows.Close()

	var total uint64
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return 0, fmt.Errorf("scan share: %w", err)
		}
		n, err := parseAmount(s)
		if err != nil {
			return 0, err
		}
		if total, err = ir.Add(total, n); err != nil {
			return 0, err
		}
	}
	return total, rows.Err()
}
