package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/stakegov/internal/ir"
)

// Balance returns the token balance of addr in denom. Missing rows are zero.
func (t *Tx) Balance(ctx context.Context, addr ir.Address, denom string) (uint64, error) {
	var s string
	err := t.queryRow(ctx, `SELECT amount FROM balances WHERE address = ? AND denom = ?`,
		string(addr), denom).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return parseAmount(s)
}

// PutBalance sets a token balance. A zero balance deletes the row.
func (t *Tx) PutBalance(ctx context.Context, addr ir.Address, denom string, amount uint64) error {
	var err error
	if amount == 0 {
		err = t.exec(ctx, `DELETE FROM balances WHERE address = ? AND denom = ?`, string(addr), denom)
	} else {
		err = t.exec(ctx, `
			INSERT INTO balances (address, denom, amount) VALUES (?, ?, ?)
			ON CONFLICT(address, denom) DO UPDATE SET amount = excluded.amount
		`, string(addr), denom, formatAmount(amount))
	}
	if err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}

// Balances returns every nonzero balance held by addr keyed by denom.
func (t *Tx) Balances(ctx context.Context, addr ir.Address) (map[string]uint64, error) {
	rows, err := t.query(ctx, `
		SELECT denom, amount FROM balances WHERE address = ? ORDER BY denom ASC
	`, string(addr))
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	out := make(map[string]uint64)
	for rows.Next() {
		var denom, s string
		if err := rows.Scan(&denom, &s); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		n, err := parseAmount(s)
		if err != nil {
			return nil, err
		}
		out[denom] = n
	}
	return out, rows.Err()
}

// Supply returns the total minted amount of denom.
func (t *Tx) Supply(ctx context.Context, denom string) (uint64, error) {
	var s string
	err := t.queryRow(ctx, `SELECT amount FROM supplies WHERE denom = ?`, denom).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read supply: %w", err)
	}
	return parseAmount(s)
}

// PutSupply sets the total minted amount of denom.
func (t *Tx) PutSupply(ctx context.Context, denom string, amount uint64) error {
	err := t.exec(ctx, `
		INSERT INTO supplies (denom, amount) VALUES (?, ?)
		ON CONFLICT(denom) DO UPDATE SET amount = excluded.amount
	`, denom, formatAmount(amount))
	if err != nil {
		return fmt.Errorf("write supply: %w", err)
	}
	return nil
}
